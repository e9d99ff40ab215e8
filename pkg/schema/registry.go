// Package schema holds the fixed catalog of table slots a DDF archive may
// contain. The catalog is compiled in and never changes at runtime; adding a
// slot is backward compatible, removing or renaming one is not.
package schema

import (
	"strconv"

	"golang.org/x/text/cases"
)

// Slot identifies one registry entry.
type Slot uint8

// Registry slots in legacy catalog order.
const (
	Glazing Slot = iota
	InternalBlinds
	Panes
	WindowGas
	Constructions
	Materials
	ActivityTemplates
	ConstructionTemplates
	DHWTemplates
	FacadeTemplates
	GlazingTemplates
	HourlyWeather
	LightingTemplates
	LocalShading
	LocationTemplates
	SBEMHVACSystems
	Schedules

	numSlots
)

// NumSlots is the number of entries in the registry.
const NumSlots = int(numSlots)

var names = [NumSlots]string{
	Glazing:               "Glazing",
	InternalBlinds:        "InternalBlinds",
	Panes:                 "Panes",
	WindowGas:             "WindowGas",
	Constructions:         "Constructions",
	Materials:             "Materials",
	ActivityTemplates:     "ActivityTemplates",
	ConstructionTemplates: "ConstructionTemplates",
	DHWTemplates:          "DHWTemplates",
	FacadeTemplates:       "FacadeTemplates",
	GlazingTemplates:      "GlazingTemplates",
	HourlyWeather:         "HourlyWeather",
	LightingTemplates:     "LightingTemplates",
	LocalShading:          "LocalShading",
	LocationTemplates:     "LocationTemplates",
	SBEMHVACSystems:       "SBEMHVACSystems",
	Schedules:             "Schedules",
}

var (
	byName = make(map[string]Slot, NumSlots)
	byFold = make(map[string]Slot, NumSlots)
)

func init() {
	for i, name := range names {
		byName[name] = Slot(i)
		byFold[fold(name)] = Slot(i)
	}
}

// String returns the registry name of the slot.
func (s Slot) String() string {
	if !s.Valid() {
		return "Slot(" + strconv.Itoa(int(s)) + ")"
	}
	return names[s]
}

// Valid reports whether s is a registry entry.
func (s Slot) Valid() bool {
	return s < numSlots
}

// FileName returns the archive member name for the slot, e.g. "Materials.cdt".
func (s Slot) FileName(ext string) string {
	return s.String() + ext
}

// Slots returns every slot in registry order.
func Slots() []Slot {
	out := make([]Slot, NumSlots)
	for i := range out {
		out[i] = Slot(i)
	}
	return out
}

// Names returns the registry names in registry order.
func Names() []string {
	out := make([]string, NumSlots)
	copy(out, names[:])
	return out
}

// Lookup resolves an exact registry name.
func Lookup(name string) (Slot, bool) {
	s, ok := byName[name]
	return s, ok
}

// IsKnown reports whether name is an exact registry name.
func IsKnown(name string) bool {
	_, ok := byName[name]
	return ok
}

// LookupFold resolves a registry name ignoring case, for user-typed input.
// Archive members are always matched with Lookup.
func LookupFold(name string) (Slot, bool) {
	if s, ok := byName[name]; ok {
		return s, true
	}
	s, ok := byFold[fold(name)]
	return s, ok
}

// fold builds a fresh Caser per call: a Caser is stateful and must not be
// shared between goroutines.
func fold(s string) string {
	return cases.Fold().String(s)
}
