package cdt

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncated is returned for a file with fewer than two lines.
	ErrTruncated = errors.New("cdt: truncated table")

	// ErrRaggedRow is wrapped by RowError.
	ErrRaggedRow = errors.New("cdt: ragged row")

	// ErrSeparatorInValue is returned when a value cannot be written without
	// being split on read.
	ErrSeparatorInValue = errors.New("cdt: value contains a separator or line break")

	// ErrIDOutOfRange is returned for an identifier outside the 32-bit range
	// the reader accepts.
	ErrIDOutOfRange = errors.New("cdt: identifier out of 32-bit range")

	// ErrLoneEmptyField is returned for a line that would hold exactly one
	// empty field, which reads back as a line with no fields.
	ErrLoneEmptyField = errors.New("cdt: line with a single empty field")
)

// RowError reports a row whose cell count does not match the column count.
type RowError struct {
	Row     int
	Cells   int
	Columns int
}

func (e *RowError) Error() string {
	return fmt.Sprintf("cdt: row %d has %d cells, want %d", e.Row, e.Cells, e.Columns)
}

func (e *RowError) Unwrap() error {
	return ErrRaggedRow
}
