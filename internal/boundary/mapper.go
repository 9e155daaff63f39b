package boundary

import (
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// contentScanExtensions limits the expensive content heuristic to files
// that plausibly contain source code.
var contentScanExtensions = map[string]struct{}{
	".cs":   {},
	".py":   {},
	".js":   {},
	".ts":   {},
	".java": {},
	".go":   {},
}

// Mapper assigns repository files to service boundaries using a fixed
// sequence of string heuristics. The mapping is deterministic and
// idempotent: the same boundaries and files always produce the same
// assignment, and a file may be claimed by more than one boundary.
type Mapper struct {
	log *zap.Logger
}

// NewMapper returns a Mapper. A nil logger is replaced with a no-op one.
func NewMapper(log *zap.Logger) *Mapper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Mapper{log: log}
}

// MapFiles returns the sorted set of paths the boundary claims. contents
// maps each path to its file body and is only consulted by the final
// heuristic, for source-like extensions.
//
// The heuristics run in a fixed order per file and short-circuit on the
// first match:
//  1. the lowercased path contains a lowercased entity name
//  2. the path contains a token (>3 chars) of the boundary name
//  3. the path contains a responsibility word (>4 chars)
//  4. for source files, the content mentions an entity name
func (m *Mapper) MapFiles(b ServiceBoundary, paths []string, contents map[string]string) []string {
	entities := lowerAll(b.Entities)
	nameTokens := tokensLongerThan(strings.Fields(b.Name), 3)
	respWords := responsibilityWords(b.Responsibilities)

	var claimed []string
	for _, path := range paths {
		lower := strings.ToLower(path)
		if matchAny(lower, entities) ||
			matchAny(lower, nameTokens) ||
			matchAny(lower, respWords) ||
			m.contentMentionsEntity(path, contents[path], entities) {
			claimed = append(claimed, path)
		}
	}
	return sortedUnique(claimed)
}

// MapAll runs MapFiles for every boundary and records the result on the
// boundary's Files field.
func (m *Mapper) MapAll(boundaries []ServiceBoundary, paths []string, contents map[string]string) []ServiceBoundary {
	out := make([]ServiceBoundary, len(boundaries))
	for i, b := range boundaries {
		b.Files = m.MapFiles(b, paths, contents)
		out[i] = b
		m.log.Debug("mapped boundary files",
			zap.String("boundary", b.Name),
			zap.Int("files", len(b.Files)))
	}
	return out
}

// EnsureCompleteCoverage appends a SharedOrUnassigned boundary owning
// every path no boundary claimed. When coverage is already complete the
// input is returned unchanged. Existing boundaries are never mutated.
func (m *Mapper) EnsureCompleteCoverage(boundaries []ServiceBoundary, allPaths []string) []ServiceBoundary {
	covered := make(map[string]struct{})
	for _, b := range boundaries {
		for _, p := range b.Files {
			covered[p] = struct{}{}
		}
	}

	var uncovered []string
	for _, p := range allPaths {
		if _, ok := covered[p]; !ok {
			uncovered = append(uncovered, p)
		}
	}
	if len(uncovered) == 0 {
		return boundaries
	}
	sort.Strings(uncovered)

	m.log.Warn("coverage gap: routing unclaimed files to catch-all boundary",
		zap.Int("unclaimed", len(uncovered)),
		zap.Int("total", len(allPaths)))

	return append(boundaries, ServiceBoundary{
		Name:        CatchAllName,
		Description: "Shared infrastructure and files not assigned to any identified service boundary.",
		Responsibilities: []string{
			"Cross-cutting utilities and configuration",
		},
		Files: uncovered,
	})
}

func (m *Mapper) contentMentionsEntity(path, content string, entities []string) bool {
	if content == "" || len(entities) == 0 {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := contentScanExtensions[ext]; !ok {
		return false
	}
	return matchAny(strings.ToLower(content), entities)
}

func matchAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func tokensLongerThan(tokens []string, minLen int) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if len(t) > minLen {
			out = append(out, strings.ToLower(t))
		}
	}
	return out
}

func responsibilityWords(responsibilities []string) []string {
	var out []string
	for _, r := range responsibilities {
		for _, w := range strings.Fields(r) {
			w = strings.ToLower(strings.Trim(w, ".,;:()"))
			if len(w) > 4 {
				out = append(out, w)
			}
		}
	}
	return out
}
