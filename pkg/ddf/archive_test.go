package ddf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tokarzewski/ddf-lib/pkg/cdt"
	"github.com/Tokarzewski/ddf-lib/pkg/schema"
)

func TestArchive_ZeroValue(t *testing.T) {
	var a Archive
	assert.Equal(t, 0, a.Len())
	assert.Empty(t, a.Present())
	assert.Empty(t, a.PresentNames())
	_, ok := a.Get(schema.Materials)
	assert.False(t, ok)
}

func TestArchive_SetGetRemove(t *testing.T) {
	a := &Archive{}
	tbl := cdt.New([]int{1}, "Name")
	a.Set(schema.Materials, tbl)

	got, ok := a.Get(schema.Materials)
	require.True(t, ok)
	assert.Same(t, tbl, got)
	assert.True(t, a.Has("Materials"))
	assert.Equal(t, 1, a.Len())

	a.Set(schema.Materials, nil)
	assert.False(t, a.Has("Materials"))

	a.Set(schema.Materials, tbl)
	a.Remove(schema.Materials)
	assert.Equal(t, 0, a.Len())

	_, ok = a.Get(schema.Slot(200))
	assert.False(t, ok)
	a.Remove(schema.Slot(200))
	assert.NotPanics(t, func() { a.Set(schema.Slot(200), tbl) })
	assert.NotPanics(t, func() { a.Set(schema.Slot(schema.NumSlots), tbl) })
	assert.Equal(t, 0, a.Len())
}

func TestArchive_ByName(t *testing.T) {
	a := &Archive{}
	require.NoError(t, a.SetByName("Schedules", cdt.New(nil)))

	_, ok := a.GetByName("Schedules")
	assert.True(t, ok)
	_, ok = a.GetByName("schedules")
	assert.False(t, ok, "names are matched exactly")

	err := a.SetByName("Foo", cdt.New(nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownTable)
	assert.False(t, a.Has("Foo"))
}

func TestArchive_PresentInRegistryOrder(t *testing.T) {
	a := &Archive{}
	a.Set(schema.Schedules, cdt.New(nil))
	a.Set(schema.Glazing, cdt.New(nil))
	a.Set(schema.Materials, cdt.New(nil))

	assert.Equal(t, []schema.Slot{schema.Glazing, schema.Materials, schema.Schedules}, a.Present())
	assert.Equal(t, []string{"Glazing", "Materials", "Schedules"}, a.PresentNames())
}

func TestArchive_CloneIsDeep(t *testing.T) {
	a := &Archive{}
	a.Set(schema.Materials, &cdt.Table{IDs: []int{1}, Columns: []string{"Name"}, Rows: [][]string{{"Brick"}}})

	c := a.Clone()
	require.True(t, a.Equal(c))

	tbl, _ := c.Get(schema.Materials)
	tbl.Rows[0][0] = "Wood"
	orig, _ := a.Get(schema.Materials)
	assert.Equal(t, "Brick", orig.Rows[0][0])
	assert.False(t, a.Equal(c))
}

func TestArchive_Equal(t *testing.T) {
	mk := func(slots ...schema.Slot) *Archive {
		a := &Archive{}
		for _, s := range slots {
			a.Set(s, cdt.New([]int{1}, "Name"))
		}
		return a
	}

	tests := []struct {
		name string
		a, b *Archive
		want bool
	}{
		{"both empty", &Archive{}, &Archive{}, true},
		{"same slots", mk(schema.Materials), mk(schema.Materials), true},
		{"different slots", mk(schema.Materials), mk(schema.Glazing), false},
		{"extra slot", mk(schema.Materials), mk(schema.Materials, schema.Glazing), false},
		{"nil and empty", nil, &Archive{}, false},
		{"both nil", nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
		})
	}
}
