package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingTable is returned when a table has no data rows.
	ErrMissingTable = errors.New("missing required table")

	// ErrNotProcessed is returned by Build before the picklist has been
	// processed into at least one route summary.
	ErrNotProcessed = errors.New("picklist not processed")
)

// TableError reports a table without data rows. It matches ErrMissingTable.
type TableError struct {
	Table string
	Rows  int
}

func (e *TableError) Error() string {
	if e.Rows == 0 {
		return fmt.Sprintf("%s table not loaded", e.Table)
	}
	return fmt.Sprintf("%s table has %d row(s); need a header and at least one data row", e.Table, e.Rows)
}

func (e *TableError) Is(target error) bool { return target == ErrMissingTable }
