// internal/event/types.go
package event

import (
	"slices"
	"sort"
)

// Frame is one poll cycle: Frame[i] is the register at start offset + i.
// Geometry only: no semantics.
type Frame []uint16

// PortSet is a sorted set of transport identifiers.
type PortSet []string

// NewPortSet copies names, drops every excluded identifier and sorts the rest.
func NewPortSet(names []string, exclude ...string) PortSet {
	out := make(PortSet, 0, len(names))
	for _, n := range names {
		if n == "" || slices.Contains(exclude, n) {
			continue
		}
		out = append(out, n)
	}
	sort.Strings(out)
	return slices.Compact(out)
}

// Contains reports whether name is in the set.
func (p PortSet) Contains(name string) bool {
	_, ok := slices.BinarySearch(p, name)
	return ok
}

// Len is the cardinality used by the port watcher.
func (p PortSet) Len() int { return len(p) }
