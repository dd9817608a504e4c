package definition

import (
	"slices"
)

// Package file table.go contains the mode registry lookups.

// Table is an immutable, ordered collection of mode definitions.
// It is safe for concurrent use once built.
type Table struct {
	kind Kind
	desc string
	keys []string
	defs map[string]Definition
}

// Kind returns the purpose of the table.
func (t *Table) Kind() Kind {
	return t.kind
}

// Description returns the human readable summary of the table.
func (t *Table) Description() string {
	return t.desc
}

// Len returns the number of modes in the table.
func (t *Table) Len() int {
	return len(t.keys)
}

// Supported returns true if the mode is in the table.
func (t *Table) Supported(mode string) bool {
	_, ok := t.defs[mode]
	return ok
}

// Lookup returns a copy of the named mode definition.
func (t *Table) Lookup(mode string) (Definition, bool) {
	def, ok := t.defs[mode]
	if !ok {
		return Definition{}, false
	}
	return def.clone(), true
}

// Modes returns the mode keys in the table order.
func (t *Table) Modes() []string {
	return slices.Clone(t.keys)
}

// Extension returns the default file extension of the mode,
// or an empty string when the mode is unsupported or has no extensions.
func (t *Table) Extension(mode string) string {
	return t.defs[mode].Extension()
}

// Extensions returns all the file extensions of the mode in order,
// or nil when the mode is unsupported.
func (t *Table) Extensions(mode string) []string {
	return slices.Clone(t.defs[mode].Extensions)
}

// Binaries returns the sorted union of the programs required by the modes in order.
// Modes that are not in the table are ignored.
// When no modes are given, every mode in the table is used.
func (t *Table) Binaries(order ...string) []string {
	if len(order) == 0 {
		order = t.keys
	}
	names := []string{}
	for _, mode := range order {
		def, ok := t.defs[mode]
		if !ok {
			continue
		}
		names = append(names, def.Binaries...)
	}
	slices.Sort(names)
	return slices.Compact(names)
}
