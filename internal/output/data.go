package output

import (
	"fmt"

	"cartaudit/internal/aggregate"
	"cartaudit/internal/wave"
)

// Mark is appended to highlighted cells in table output.
const Mark = " *"

// Table is one titled block of table output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Footer  string
}

// Document pairs the table rendering of a result with the value JSON and
// YAML encode.
type Document struct {
	Tables []Table
	Value  any
}

// SummaryTable renders route summaries.
func SummaryTable(res aggregate.Result) Table {
	rows := res.Table()
	t := Table{Title: "Route summary", Headers: rows[0], Rows: rows[1:]}
	t.Footer = fmt.Sprintf("%d route(s)", res.Len())
	if res.Skipped > 0 {
		t.Footer += fmt.Sprintf(", %d short row(s) skipped", res.Skipped)
	}
	return t
}

// WaveTables renders one table per wave in view v. Highlighted cells get
// Mark appended.
func WaveTables(waves []wave.Wave, v wave.View) []Table {
	fields := v.Fields()
	out := make([]Table, 0, len(waves))
	for _, w := range waves {
		t := Table{
			Title:   fmt.Sprintf("Wave %d", w.Number),
			Headers: v.Header(),
			Rows:    make([][]string, 0, len(w.Rows)),
		}
		for _, r := range w.Rows {
			cells := v.Cells(r)
			for i, f := range fields {
				if wave.Highlight(f, r) != wave.EmphasisNone {
					cells[i] += Mark
				}
			}
			t.Rows = append(t.Rows, cells)
		}
		out = append(out, t)
	}
	return out
}

// WaveDocument is the JSON/YAML shape of a wave listing.
type WaveDocument struct {
	View   string      `json:"view" yaml:"view"`
	Digest string      `json:"digest" yaml:"digest"`
	Rows   int         `json:"rows" yaml:"rows"`
	Waves  []wave.Wave `json:"waves" yaml:"waves"`
}

// Waves builds the Document for a wave listing.
func Waves(waves []wave.Wave, v wave.View, digest uint64) Document {
	return Document{
		Tables: WaveTables(waves, v),
		Value: WaveDocument{
			View:   v.String(),
			Digest: fmt.Sprintf("%016x", digest),
			Rows:   wave.Count(waves),
			Waves:  waves,
		},
	}
}
