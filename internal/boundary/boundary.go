// Package boundary models candidate microservice boundaries and maps
// monolith files onto them.
package boundary

import (
	"sort"
	"strings"
)

// CatchAllName is the synthetic boundary that owns every file no real
// boundary claimed. Its presence keeps the union of all boundary file
// sets equal to the full repository file set.
const CatchAllName = "SharedOrUnassigned"

// ServiceBoundary is one proposed microservice: a name, the domain
// entities it owns, its responsibilities, and the monolith files mapped
// to it.
type ServiceBoundary struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Responsibilities []string `json:"responsibilities"`
	Entities         []string `json:"entities"`
	APIs             []string `json:"apis"`
	Files            []string `json:"files,omitempty"`
}

// IsCatchAll reports whether b is the synthetic unassigned boundary.
func (b ServiceBoundary) IsCatchAll() bool {
	return b.Name == CatchAllName
}

// FromDocumentFields builds a boundary from loosely typed extraction
// output. Absent fields become empty, never nil-vs-present ambiguity.
func FromDocumentFields(name, description string, responsibilities, entities, apis []string) ServiceBoundary {
	return ServiceBoundary{
		Name:             strings.TrimSpace(name),
		Description:      strings.TrimSpace(description),
		Responsibilities: responsibilities,
		Entities:         entities,
		APIs:             apis,
	}
}

// sortedUnique returns a sorted copy of paths with duplicates removed.
func sortedUnique(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
