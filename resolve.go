package decomp

import (
	"strings"

	"github.com/Defacto2/decomp/command"
	"github.com/Defacto2/decomp/definition"
)

// Package file resolve.go contains the mode auto-detection.

// DetermineMode returns the first mode in order that has all of its programs
// installed and an extension that ends the source name.
//
// The modes are tried in order and the extensions of each mode in their declared order,
// so when two modes share an extension the earlier mode wins.
// The comparison is case-sensitive and the extensions are used as written,
// "tar.xz" matches both "stage3.tar.xz" and "stage3tar.xz".
// Modes in order that are not in the table are skipped.
func DetermineMode(source string, order []string, tab *definition.Table, avail command.Set) (string, bool) {
	if tab == nil {
		return "", false
	}
	for _, mode := range order {
		def, ok := tab.Lookup(mode)
		if !ok || !def.Enabled(avail) {
			continue
		}
		for _, ext := range def.Extensions {
			if ext != "" && strings.HasSuffix(source, ext) {
				return mode, true
			}
		}
	}
	return "", false
}

// DetermineMode returns the mode for the source using the search order,
// the definitions and the installed programs of the map.
func (m *Map) DetermineMode(source string) (string, bool) {
	mode, ok := DetermineMode(source, m.order, m.tab, m.avail)
	if !ok {
		m.log.Debug().Str("source", source).Strs("order", m.order).Msg("failed to find a mode")
		return "", false
	}
	m.log.Debug().Str("source", source).Str("mode", mode).Msg("determined mode")
	return mode, true
}
