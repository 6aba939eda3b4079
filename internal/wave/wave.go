// Package wave joins dispatch rows with route summaries and slices the result
// into fixed-size waves.
//
// Dispatch rows are taken in file order. Rows with an empty route code are
// dropped and only the first row of each route code is kept. Each surviving
// row gets the carts, bags and over-volume totals of its route, or zeros when
// the picklist had no such route. Summaries of routes that never appear in
// the dispatch table are not reported.
package wave

import (
	"fmt"
	"strings"

	"cartaudit/internal/aggregate"
	"cartaudit/internal/header"
	pcsv "cartaudit/internal/parser/csv"
	"cartaudit/internal/transformer"
	"cartaudit/internal/transformer/builtin"
)

// DefaultSize is the number of rows per wave.
const DefaultSize = 36

// Columns holds the dispatch column indices reconciliation reads.
type Columns struct {
	Route int
	Area  int
}

// ColumnsFrom extracts Columns from a dispatch resolution.
func ColumnsFrom(res header.Resolution) (Columns, error) {
	route, okRoute := res.Lookup(header.RouteCode)
	area, okArea := res.Lookup(header.DispatchArea)
	switch {
	case !okRoute:
		return Columns{}, fmt.Errorf("%w: %s", aggregate.ErrUnresolvedColumn, header.RouteCode)
	case !okArea:
		return Columns{}, fmt.Errorf("%w: %s", aggregate.ErrUnresolvedColumn, header.DispatchArea)
	}
	return Columns{Route: route, Area: area}, nil
}

// Row is one reconciled dispatch row.
type Row struct {
	RouteCode string  `json:"route_code" yaml:"route_code"`
	Location  string  `json:"location" yaml:"location"`
	Carts     int     `json:"carts" yaml:"carts"`
	Bags      float64 `json:"bags" yaml:"bags"`
	OVs       float64 `json:"ovs" yaml:"ovs"`
}

// Wave is a block of at most Size rows. Number is 1-based.
type Wave struct {
	Number int   `json:"wave" yaml:"wave"`
	Rows   []Row `json:"rows" yaml:"rows"`
}

// Reconcile resolves the dispatch columns of t against s and joins the data
// rows with summary.
func Reconcile(t pcsv.Table, s header.Schema, summary aggregate.Result) ([]Row, header.Resolution, error) {
	if err := t.RequireData(); err != nil {
		return nil, header.Resolution{}, fmt.Errorf("reconcile %s: %w", s.Table, err)
	}
	res := header.Resolve(t.Header(), s)
	cols, err := ColumnsFrom(res)
	if err != nil {
		return nil, res, fmt.Errorf("reconcile %s: %w", s.Table, err)
	}
	return ReconcileRows(t.Data(), cols, summary), res, nil
}

// ReconcileRows joins dispatch data rows (header excluded) with summary.
func ReconcileRows(rows [][]string, cols Columns, summary aggregate.Result) []Row {
	joined := make([]Row, 0, len(rows))
	for _, r := range rows {
		joined = append(joined, Row{
			RouteCode: cell(r, cols.Route),
			Location:  cell(r, cols.Area),
		})
	}

	chain := transformer.Chain[Row]{
		builtin.Require[Row]{Present: func(r Row) bool { return r.RouteCode != "" }},
		builtin.DeDup[Row]{Key: func(r Row) (string, bool) { return r.RouteCode, true }},
	}
	out := chain.Apply(joined)

	for i := range out {
		if s, ok := summary.Lookup(out[i].RouteCode); ok {
			out[i].Carts, out[i].Bags, out[i].OVs = s.Carts, s.Bags, s.OVs
		}
	}
	return out
}

// Partition slices rows into consecutive waves of size rows. The last wave
// may be shorter. A size below 1 means DefaultSize.
func Partition(rows []Row, size int) []Wave {
	if size < 1 {
		size = DefaultSize
	}
	waves := make([]Wave, 0, (len(rows)+size-1)/size)
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		waves = append(waves, Wave{Number: len(waves) + 1, Rows: rows[start:end:end]})
	}
	return waves
}

// Count returns the total number of rows across waves.
func Count(waves []Wave) int {
	n := 0
	for _, w := range waves {
		n += len(w.Rows)
	}
	return n
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
