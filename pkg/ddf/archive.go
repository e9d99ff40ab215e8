// Package ddf reads and writes DDF archives: ZIP containers holding one CDT
// table per registry slot.
//
// Reading never fails because of a single table. Missing archives, truncated
// or unreadable tables and unrecognized members are reported as Diagnostics
// alongside whatever could be loaded. Only container-level failures (an
// unreadable ZIP, an unwritable destination) are returned as errors.
package ddf

import (
	"errors"
	"fmt"

	"github.com/Tokarzewski/ddf-lib/pkg/cdt"
	"github.com/Tokarzewski/ddf-lib/pkg/schema"
)

// ErrUnknownTable is returned when a name does not match any registry slot.
var ErrUnknownTable = errors.New("ddf: unknown table name")

// Archive maps registry slots to tables. A nil entry means the archive has no
// such table. The zero value is an empty archive.
//
// An Archive owns its tables: Set takes ownership of the pointer it is given
// and Get returns the owned table for in-place edits. Use Clone to copy.
type Archive struct {
	tables [schema.NumSlots]*cdt.Table
}

// Get returns the table in slot s.
func (a *Archive) Get(s schema.Slot) (*cdt.Table, bool) {
	if !s.Valid() {
		return nil, false
	}
	t := a.tables[s]
	return t, t != nil
}

// Set stores t in slot s; a nil t makes the slot absent. An invalid slot is
// ignored, as in Get and Remove.
func (a *Archive) Set(s schema.Slot, t *cdt.Table) {
	if s.Valid() {
		a.tables[s] = t
	}
}

// Remove makes slot s absent.
func (a *Archive) Remove(s schema.Slot) {
	if s.Valid() {
		a.tables[s] = nil
	}
}

// GetByName returns the table stored under an exact registry name.
func (a *Archive) GetByName(name string) (*cdt.Table, bool) {
	s, ok := schema.Lookup(name)
	if !ok {
		return nil, false
	}
	return a.Get(s)
}

// SetByName stores t under an exact registry name.
func (a *Archive) SetByName(name string, t *cdt.Table) error {
	s, ok := schema.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	a.Set(s, t)
	return nil
}

// Has reports whether the named table is present.
func (a *Archive) Has(name string) bool {
	_, ok := a.GetByName(name)
	return ok
}

// Present returns the slots holding a table, in registry order.
func (a *Archive) Present() []schema.Slot {
	var out []schema.Slot
	for i, t := range a.tables {
		if t != nil {
			out = append(out, schema.Slot(i))
		}
	}
	return out
}

// PresentNames returns the names of the slots holding a table, in registry
// order.
func (a *Archive) PresentNames() []string {
	slots := a.Present()
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.String()
	}
	return out
}

// Len returns the number of present tables.
func (a *Archive) Len() int {
	n := 0
	for _, t := range a.tables {
		if t != nil {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (a *Archive) Clone() *Archive {
	c := &Archive{}
	for i, t := range a.tables {
		c.tables[i] = t.Clone()
	}
	return c
}

// Equal reports whether both archives have the same present slots holding
// equal tables.
func (a *Archive) Equal(b *Archive) bool {
	if a == nil || b == nil {
		return a == b
	}
	for i := range a.tables {
		if !a.tables[i].Equal(b.tables[i]) {
			return false
		}
	}
	return true
}
