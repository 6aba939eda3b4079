package header

import (
	"fmt"
	"strings"
)

// Resolution is the outcome of resolving a Schema against a header row.
type Resolution struct {
	Table string

	// Index maps field key to column index for every resolved field.
	Index map[string]int

	// Fallback lists the keys that were resolved by fixed position.
	Fallback []string

	// Missing lists the keys with no matching variant and no fallback.
	Missing []string
}

// Lookup returns the column index for key.
func (r Resolution) Lookup(key string) (int, bool) {
	i, ok := r.Index[key]
	return i, ok
}

// Complete reports whether every field of the schema resolved, by name or by
// fallback.
func (r Resolution) Complete() bool {
	return len(r.Missing) == 0
}

// UsedFallback reports whether any field was resolved by fixed position.
func (r Resolution) UsedFallback() bool {
	return len(r.Fallback) > 0
}

// Describe renders the resolved indices as "key=idx" pairs in schema order,
// marking positional ones with "(fallback)".
func (r Resolution) Describe(s Schema) string {
	parts := make([]string, 0, len(s.Fields))
	fb := make(map[string]bool, len(r.Fallback))
	for _, k := range r.Fallback {
		fb[k] = true
	}
	for _, f := range s.Fields {
		i, ok := r.Index[f.Key]
		switch {
		case !ok:
			parts = append(parts, f.Key+"=?")
		case fb[f.Key]:
			parts = append(parts, fmt.Sprintf("%s=%d(fallback)", f.Key, i))
		default:
			parts = append(parts, fmt.Sprintf("%s=%d", f.Key, i))
		}
	}
	return strings.Join(parts, " ")
}

// Resolve finds a column index for every field of s in header.
//
// For each field the variants are tried in order against the normalized
// header; the first variant present wins and its first occurrence is used.
// With no matching variant the field's Fallback is used, unless it is
// NoFallback, in which case the key is reported as missing.
func Resolve(header []string, s Schema) Resolution {
	names := Normalize(header)
	res := Resolution{Table: s.Table, Index: make(map[string]int, len(s.Fields))}

	for _, f := range s.Fields {
		if i := indexOfAny(names, f.Variants); i >= 0 {
			res.Index[f.Key] = i
			continue
		}
		if f.Fallback >= 0 {
			res.Index[f.Key] = f.Fallback
			res.Fallback = append(res.Fallback, f.Key)
			continue
		}
		res.Missing = append(res.Missing, f.Key)
	}
	return res
}

func indexOfAny(names, variants []string) int {
	for _, v := range variants {
		v = NormalizeName(v)
		for i, n := range names {
			if n == v {
				return i
			}
		}
	}
	return -1
}
