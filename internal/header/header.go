// Package header maps semantic column names ("route code", "bags", ...) to
// positional indices in an export's header row.
//
// Export versions disagree on ordering, spacing and casing of header names,
// so resolution works on normalized names and a small declarative table of
// accepted variants per field. When no variant matches, a fixed fallback
// position is used and reported so the caller can warn about it.
package header

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// NoFallback marks a field that must be found by name.
const NoFallback = -1

// Field keys shared by the dispatch and picklist schemas.
const (
	RouteCode    = "route_code"
	DispatchArea = "dispatch_area"
	PicklistCode = "picklist_code"
	Bags         = "bags"
	OVs          = "ovs"
)

// Field describes one semantic column.
type Field struct {
	// Key identifies the field in a Resolution.
	Key string

	// Variants are normalized header names accepted for the field, in
	// priority order.
	Variants []string

	// Fallback is the column index used when no variant matches, or
	// NoFallback.
	Fallback int
}

// Schema is the set of fields a caller needs from one table.
type Schema struct {
	Table  string
	Fields []Field
}

// Field returns the field with key.
func (s Schema) Field(key string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// With returns a copy of s where the field with f.Key is replaced by f, or
// appended when s has no such field. s itself is not modified.
func (s Schema) With(f Field) Schema {
	out := Schema{Table: s.Table, Fields: make([]Field, 0, len(s.Fields)+1)}
	replaced := false
	for _, cur := range s.Fields {
		if cur.Key == f.Key {
			cur = f
			replaced = true
		}
		out.Fields = append(out.Fields, cur)
	}
	if !replaced {
		out.Fields = append(out.Fields, f)
	}
	return out
}

// Dispatch is the default schema of the dispatch ("pick order") table.
var Dispatch = Schema{
	Table: "dispatch",
	Fields: []Field{
		{Key: RouteCode, Variants: []string{"route code", "routecode"}, Fallback: 1},
		{Key: DispatchArea, Variants: []string{"dispatch area", "dispatcharea"}, Fallback: 3},
	},
}

// Picklist is the default schema of the picklist table.
var Picklist = Schema{
	Table: "picklist",
	Fields: []Field{
		{Key: RouteCode, Variants: []string{"route code", "routecode"}, Fallback: 0},
		{Key: PicklistCode, Variants: []string{"picklist code", "picklistcode"}, Fallback: 1},
		{Key: Bags, Variants: []string{"bags"}, Fallback: 10},
		{Key: OVs, Variants: []string{"ovs", "ov"}, Fallback: 11},
	},
}

// NormalizeName canonicalizes a header cell for comparison: BOM stripped,
// trimmed, one layer of surrounding double quotes removed, whitespace runs
// (newlines and tabs included) collapsed to one space, NFC-composed and
// lowercased.
func NormalizeName(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	s = strings.Join(strings.Fields(s), " ")
	s = norm.NFC.String(s)
	// Casers keep state; one per call keeps NormalizeName safe for concurrent use.
	return cases.Lower(language.Und).String(s)
}

// Normalize applies NormalizeName to every cell of a header row.
func Normalize(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = NormalizeName(h)
	}
	return out
}
