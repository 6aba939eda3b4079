// Package aggregate rolls the picklist table up into one summary per route.
//
// A picklist row belongs to route R when its trimmed picklist code starts
// with R followed by a literal '#'. Every such row counts as one cart and
// contributes its bags and over-volume counts to R.
package aggregate

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"cartaudit/internal/header"
	pcsv "cartaudit/internal/parser/csv"
	"cartaudit/internal/parser/numeric"
)

// Separator joins a route code and the picklist suffix.
const Separator = "#"

// ErrUnresolvedColumn is returned when a column needed for aggregation could
// not be resolved by name or fallback.
var ErrUnresolvedColumn = errors.New("aggregate: required column not resolved")

// Columns holds the picklist column indices aggregation reads.
type Columns struct {
	Route    int
	Picklist int
	Bags     int
	OVs      int
}

// ColumnsFrom extracts Columns from a picklist resolution.
func ColumnsFrom(res header.Resolution) (Columns, error) {
	var c Columns
	var missing []string
	for _, f := range []struct {
		key string
		dst *int
	}{
		{header.RouteCode, &c.Route},
		{header.PicklistCode, &c.Picklist},
		{header.Bags, &c.Bags},
		{header.OVs, &c.OVs},
	} {
		i, ok := res.Lookup(f.key)
		if !ok {
			missing = append(missing, f.key)
			continue
		}
		*f.dst = i
	}
	if len(missing) > 0 {
		return Columns{}, fmt.Errorf("%w: %s", ErrUnresolvedColumn, strings.Join(missing, ", "))
	}
	return c, nil
}

// RouteSummary is the roll-up of one route.
type RouteSummary struct {
	RouteCode string  `json:"route_code" yaml:"route_code"`
	Carts     int     `json:"carts" yaml:"carts"`
	Bags      float64 `json:"bags" yaml:"bags"`
	OVs       float64 `json:"ovs" yaml:"ovs"`
}

// Result is the output of Summarize.
type Result struct {
	// Routes is sorted by RouteCode.
	Routes []RouteSummary `json:"routes" yaml:"routes"`

	// Skipped counts data rows too short to carry a picklist code.
	Skipped int `json:"skipped" yaml:"skipped"`

	// Resolution records how the picklist columns were found. It is empty
	// when SummarizeRows was called directly.
	Resolution header.Resolution `json:"-" yaml:"-"`
}

// Len returns the number of routes.
func (r Result) Len() int { return len(r.Routes) }

// Lookup returns the summary of route, if any.
func (r Result) Lookup(route string) (RouteSummary, bool) {
	i := sort.Search(len(r.Routes), func(i int) bool { return r.Routes[i].RouteCode >= route })
	if i < len(r.Routes) && r.Routes[i].RouteCode == route {
		return r.Routes[i], true
	}
	return RouteSummary{}, false
}

// Table renders the result as a header row followed by one row per route.
func (r Result) Table() [][]string {
	out := make([][]string, 0, len(r.Routes)+1)
	out = append(out, []string{"Route Code", "Carts", "Bags", "OVs"})
	for _, s := range r.Routes {
		out = append(out, []string{
			s.RouteCode,
			fmt.Sprint(s.Carts),
			numeric.Format(s.Bags),
			numeric.Format(s.OVs),
		})
	}
	return out
}

// Summarize resolves the picklist columns of t against s and aggregates the
// data rows. It fails without a partial result when t has no data rows or a
// column stays unresolved.
func Summarize(t pcsv.Table, s header.Schema) (Result, error) {
	if err := t.RequireData(); err != nil {
		return Result{}, fmt.Errorf("aggregate %s: %w", s.Table, err)
	}
	res := header.Resolve(t.Header(), s)
	cols, err := ColumnsFrom(res)
	if err != nil {
		return Result{}, fmt.Errorf("aggregate %s: %w", s.Table, err)
	}
	out := SummarizeRows(t.Data(), cols)
	out.Resolution = res
	return out, nil
}

// SummarizeRows aggregates picklist data rows (header excluded).
//
// Route codes are collected from the route column first. Each picklist code
// is then split at every '#' and each prefix that is a known route gets the
// row, which matches a full per-route prefix scan in a single pass.
func SummarizeRows(rows [][]string, cols Columns) Result {
	routes := make(map[string]*RouteSummary)
	for _, r := range rows {
		code := cell(r, cols.Route)
		if code == "" {
			continue
		}
		if _, ok := routes[code]; !ok {
			routes[code] = &RouteSummary{RouteCode: code}
		}
	}

	var out Result
	for _, r := range rows {
		if cols.Picklist >= len(r) {
			out.Skipped++
			continue
		}
		pick := cell(r, cols.Picklist)
		if pick == "" {
			continue
		}
		var bags, ovs float64
		parsed := false
		for i := strings.Index(pick, Separator); i >= 0; {
			if s, ok := routes[pick[:i]]; ok {
				if !parsed {
					bags, ovs = numeric.Lenient(cell(r, cols.Bags)), numeric.Lenient(cell(r, cols.OVs))
					parsed = true
				}
				s.Carts++
				s.Bags += bags
				s.OVs += ovs
			}
			next := strings.Index(pick[i+1:], Separator)
			if next < 0 {
				break
			}
			i += next + 1
		}
	}

	out.Routes = make([]RouteSummary, 0, len(routes))
	for _, s := range routes {
		out.Routes = append(out.Routes, *s)
	}
	sort.Slice(out.Routes, func(i, j int) bool { return out.Routes[i].RouteCode < out.Routes[j].RouteCode })
	return out
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
