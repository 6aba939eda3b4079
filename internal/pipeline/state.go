package pipeline

import (
	"cartaudit/internal/aggregate"
	pcsv "cartaudit/internal/parser/csv"
	"cartaudit/internal/wave"
)

// State is the in-memory result of an audit. It is a value: every pipeline
// operation returns a new State and never modifies the one it was given.
//
// Loading a table replaces it wholesale and drops what was derived from it.
// A new picklist clears Summary and Waves; a new dispatch table clears Waves.
type State struct {
	Dispatch pcsv.Table
	Picklist pcsv.Table

	// Summary is nil until the picklist has been processed.
	Summary *aggregate.Result

	// Waves is nil until Build has run.
	Waves []wave.Wave

	// Digest fingerprints Waves.
	Digest uint64
}

// Processed reports whether a route summary is available.
func (s State) Processed() bool { return s.Summary != nil }

// Built reports whether waves are available.
func (s State) Built() bool { return s.Waves != nil }

// Rows returns the number of reconciled rows across all waves.
func (s State) Rows() int { return wave.Count(s.Waves) }
