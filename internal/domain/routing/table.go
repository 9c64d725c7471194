package routing

import (
	"sort"
	"strings"
)

// Table groups facility locations for HR eligibility. A location maps to
// itself plus the satellite locations serviced from it.
type Table struct {
	groups map[string][]string
}

// NewTable builds a table from location -> related locations. Every group
// always contains its own key, duplicates are dropped.
func NewTable(groups map[string][]string) *Table {
	t := &Table{groups: make(map[string][]string, len(groups))}
	for location, related := range groups {
		key := strings.TrimSpace(location)
		if key == "" {
			continue
		}
		seen := map[string]struct{}{key: {}}
		members := []string{key}
		for _, r := range related {
			r = strings.TrimSpace(r)
			if r == "" {
				continue
			}
			if _, ok := seen[r]; ok {
				continue
			}
			seen[r] = struct{}{}
			members = append(members, r)
		}
		t.groups[key] = members
	}
	return t
}

// Group returns the locations serviced from location. Unmapped locations
// fall back to themselves only.
func (t *Table) Group(location string) []string {
	location = strings.TrimSpace(location)
	if t != nil {
		if members, ok := t.groups[location]; ok {
			out := make([]string, len(members))
			copy(out, members)
			return out
		}
	}
	if location == "" {
		return nil
	}
	return []string{location}
}

// InGroup reports whether location is part of the group keyed by groupOf
func (t *Table) InGroup(groupOf, location string) bool {
	location = strings.TrimSpace(location)
	for _, member := range t.Group(groupOf) {
		if member == location {
			return true
		}
	}
	return false
}

// Locations lists the configured group keys in sorted order
func (t *Table) Locations() []string {
	if t == nil {
		return nil
	}
	keys := make([]string, 0, len(t.groups))
	for k := range t.groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
