package command

import (
	"maps"
	"os/exec"
	"slices"
)

// Set is a collection of program names confirmed to be runnable on the host.
// A Set is not modified after it is created, so it can be shared between goroutines.
type Set map[string]struct{}

// NewSet returns a Set containing the names, without probing the system.
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, name := range names {
		s[name] = struct{}{}
	}
	return s
}

// Available looks up each of the named programs in the directories named
// by the PATH environment variable and returns those that were found.
// Missing programs are not an error, they are left out of the Set.
func Available(names ...string) Set {
	s := make(Set, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := s[name]; ok {
			continue
		}
		if _, err := exec.LookPath(name); err != nil {
			continue
		}
		s[name] = struct{}{}
	}
	return s
}

// Has returns true if the named program is in the set.
func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// All returns true if every named program is in the set.
// An empty list of names is always satisfied.
func (s Set) All(names ...string) bool {
	for _, name := range names {
		if !s.Has(name) {
			return false
		}
	}
	return true
}

// Names returns the sorted program names in the set.
func (s Set) Names() []string {
	return slices.Sorted(maps.Keys(s))
}
