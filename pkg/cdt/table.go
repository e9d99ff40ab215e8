// Package cdt reads and writes CDT (component data table) files, the
// '#'-delimited text tables stored inside a DDF archive.
//
// A CDT file has three sections:
//
//	#<id1> #<id2> #...          identifiers, joined by HeaderSeparator
//	#<col1> #<col2> #...        column names, joined by HeaderSeparator
//	#<cell>  #<cell>  #...      one line per row, joined by DataSeparator
//
// The leading '#' of every line is a line-start marker added and stripped
// exactly once per line.
package cdt

import (
	"fmt"
	"slices"
)

// Table is one dataset: identifiers, column names and a grid of string cells.
// After a read every row has at least len(Columns) cells.
type Table struct {
	IDs     []int
	Columns []string
	Rows    [][]string
}

// New returns a table with the given identifiers and columns and no rows.
func New(ids []int, columns ...string) *Table {
	return &Table{
		IDs:     slices.Clone(ids),
		Columns: slices.Clone(columns),
	}
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// NumColumns returns the number of column names.
func (t *Table) NumColumns() int {
	return len(t.Columns)
}

// ColumnIndex returns the index of the first column with the given name,
// or -1.
func (t *Table) ColumnIndex(name string) int {
	return slices.Index(t.Columns, name)
}

// Cell returns the value at (row, col). Cells beyond a short row read as "".
// ok is false when row or col is outside the table.
func (t *Table) Cell(row, col int) (value string, ok bool) {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return "", false
	}
	r := t.Rows[row]
	if col < len(r) {
		return r[col], true
	}
	if col < len(t.Columns) {
		return "", true
	}
	return "", false
}

// SetCell sets the value at (row, col), padding the row if it is short.
func (t *Table) SetCell(row, col int, value string) error {
	if row < 0 || row >= len(t.Rows) {
		return fmt.Errorf("row %d out of range [0,%d)", row, len(t.Rows))
	}
	width := max(len(t.Columns), len(t.Rows[row]))
	if col < 0 || col >= width {
		return fmt.Errorf("column %d out of range [0,%d)", col, width)
	}
	t.Rows[row] = padCells(t.Rows[row], col+1)
	t.Rows[row][col] = value
	return nil
}

// CellByName returns the value in the named column of row.
func (t *Table) CellByName(row int, column string) (string, bool) {
	col := t.ColumnIndex(column)
	if col < 0 {
		return "", false
	}
	return t.Cell(row, col)
}

// SetCellByName sets the value in the named column of row.
func (t *Table) SetCellByName(row int, column, value string) error {
	col := t.ColumnIndex(column)
	if col < 0 {
		return fmt.Errorf("unknown column %q", column)
	}
	return t.SetCell(row, col, value)
}

// AppendRow adds a row, padded to the column count.
func (t *Table) AppendRow(cells ...string) {
	t.Rows = append(t.Rows, padCells(slices.Clone(cells), len(t.Columns)))
}

// Pad right-pads every short row with empty cells. Long rows are kept.
func (t *Table) Pad() {
	for i, r := range t.Rows {
		t.Rows[i] = padCells(r, len(t.Columns))
	}
}

// Validate checks the row/column-count invariant under the given policy.
// PadRows accepts every table; RejectRagged reports the first row whose
// cell count differs from the column count.
func (t *Table) Validate(policy RowPolicy) error {
	if policy != RejectRagged {
		return nil
	}
	for i, r := range t.Rows {
		if len(r) != len(t.Columns) {
			return &RowError{Row: i, Cells: len(r), Columns: len(t.Columns)}
		}
	}
	return nil
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	c := &Table{
		IDs:     slices.Clone(t.IDs),
		Columns: slices.Clone(t.Columns),
	}
	if t.Rows != nil {
		c.Rows = make([][]string, len(t.Rows))
		for i, r := range t.Rows {
			c.Rows[i] = slices.Clone(r)
		}
	}
	return c
}

// Equal reports whether both tables have the same identifiers, column names,
// row count and cell values in order. Nil and empty slices compare equal.
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	if !slices.Equal(t.IDs, o.IDs) || !slices.Equal(t.Columns, o.Columns) {
		return false
	}
	if len(t.Rows) != len(o.Rows) {
		return false
	}
	for i := range t.Rows {
		if !slices.Equal(t.Rows[i], o.Rows[i]) {
			return false
		}
	}
	return true
}

func padCells(cells []string, n int) []string {
	for len(cells) < n {
		cells = append(cells, "")
	}
	return cells
}
