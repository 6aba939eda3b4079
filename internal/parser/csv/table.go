package csv

// Table is a parsed export: Rows[0] is the header, the rest are data rows.
// A Table is never mutated after ParseString returns it.
type Table struct {
	Rows [][]string

	// Delimiter is the delimiter the rows were split on.
	Delimiter rune

	// Recovered reports that the normalized text parsed into a one-cell header
	// and the original text was parsed instead.
	Recovered bool

	// Fingerprint is the xxh3 hash of the raw text the table came from.
	Fingerprint uint64
}

// Header returns the header row, or nil for an empty table.
func (t Table) Header() []string {
	if len(t.Rows) == 0 {
		return nil
	}
	return t.Rows[0]
}

// Data returns the rows after the header.
func (t Table) Data() [][]string {
	if len(t.Rows) < 2 {
		return nil
	}
	return t.Rows[1:]
}

// Len returns the number of data rows.
func (t Table) Len() int {
	if len(t.Rows) < 2 {
		return 0
	}
	return len(t.Rows) - 1
}

// Columns returns the width of the header row.
func (t Table) Columns() int {
	return len(t.Header())
}

// Loaded reports whether the table holds anything at all.
func (t Table) Loaded() bool {
	return len(t.Rows) > 0
}

// RequireData returns ErrNoData unless the table has a header and at least
// one data row.
func (t Table) RequireData() error {
	if len(t.Rows) < 2 {
		return ErrNoData
	}
	return nil
}
