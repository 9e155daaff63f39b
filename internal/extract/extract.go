// Package extract recovers structured documents from LLM completions.
//
// Model output that is supposed to be JSON frequently is not: it arrives
// wrapped in markdown fences, prefixed with prose, truncated mid-object,
// or with raw newlines inside string values. Rather than failing the
// surrounding task, callers run the raw text through a fixed cascade of
// recovery strategies and take the first result that satisfies their
// schema. Total failure is reported as a distinguished empty result,
// never as an error.
package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Strategy names, in cascade order. Exposed so callers and tests can
// observe which recovery path produced a result.
const (
	StrategyDirect  = "direct"
	StrategyCleaned = "cleaned"
	StrategyPattern = "pattern"
	StrategyLines   = "lines"
)

// Document is a recovered JSON object.
type Document map[string]any

// FilePair is one generated file recovered from model output.
type FilePair struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Trace records which strategies ran and which one was accepted.
// Accepted is empty when the whole cascade failed.
type Trace struct {
	Attempted []string
	Accepted  string
}

// strategy is a pure recovery function. An error advances the cascade.
type strategy struct {
	name string
	fn   func(raw string) (Document, error)
}

var cascade = []strategy{
	{StrategyDirect, parseDirect},
	{StrategyCleaned, parseCleaned},
	{StrategyPattern, parsePatterns},
	{StrategyLines, parseLines},
}

// Extract runs the recovery cascade over raw and returns the first
// document containing every required key with a non-null value. The
// boolean is false when no strategy produced such a document.
func Extract(raw string, required []string) (Document, bool) {
	doc, ok, _ := ExtractWithTrace(raw, required)
	return doc, ok
}

// ExtractWithTrace is Extract plus per-strategy instrumentation.
func ExtractWithTrace(raw string, required []string) (Document, bool, Trace) {
	var tr Trace
	for _, s := range cascade {
		tr.Attempted = append(tr.Attempted, s.name)
		doc, err := s.fn(raw)
		if err != nil || doc == nil {
			continue
		}
		if !hasRequired(doc, required) {
			continue
		}
		tr.Accepted = s.name
		return doc, true, tr
	}
	return nil, false, tr
}

// ExtractFiles recovers a list of generated files. It accepts documents
// whose "files" key holds objects with path and content, which the
// pattern and line strategies produce directly.
func ExtractFiles(raw string) ([]FilePair, bool, Trace) {
	doc, ok, tr := ExtractWithTrace(raw, []string{"files"})
	if !ok {
		return nil, false, tr
	}
	files := doc.FilePairs("files")
	if len(files) == 0 {
		tr.Accepted = ""
		return nil, false, tr
	}
	return files, true, tr
}

func hasRequired(doc Document, required []string) bool {
	for _, key := range required {
		v, present := doc[key]
		if !present || v == nil {
			return false
		}
	}
	return true
}

// =============================================================================
// STRATEGY 1: DIRECT PARSE
// =============================================================================

// parseDirect tries the raw text as-is: a fenced ```json block if one
// exists, otherwise the first balanced {...} region.
func parseDirect(raw string) (Document, error) {
	candidate := fencedBlock(raw)
	if candidate == "" {
		candidate = braceRegion(raw)
	}
	if candidate == "" {
		return nil, fmt.Errorf("no JSON object found")
	}
	var doc Document
	if err := json.Unmarshal([]byte(candidate), &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// fencedBlock returns the body of the first ```json fence, or "".
func fencedBlock(s string) string {
	start := strings.Index(s, "```json")
	if start == -1 {
		return ""
	}
	body := s[start+len("```json"):]
	nl := strings.Index(body, "\n")
	if nl != -1 {
		body = body[nl+1:]
	}
	end := strings.Index(body, "```")
	if end == -1 {
		return strings.TrimSpace(body)
	}
	return strings.TrimSpace(body[:end])
}

// braceRegion returns the substring from the first '{' to its matching
// '}', or "" when the braces never balance. Brace characters inside
// string literals are skipped.
func braceRegion(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}

// =============================================================================
// STRATEGY 2: CLEANED PARSE
// =============================================================================

// parseCleaned repairs the three most common corruptions before parsing:
// prose outside the outermost braces, raw control characters inside
// string values, and trailing commas.
func parseCleaned(raw string) (Document, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no brace-delimited region")
	}
	cleaned := escapeControlChars(raw[start : end+1])
	cleaned = stripTrailingCommas(cleaned)
	var doc Document
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// escapeControlChars rewrites raw control characters inside string
// literals as their JSON escape sequences. Characters outside strings
// are left alone.
func escapeControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			b.WriteByte(c)
			escaped = false
			continue
		}
		if inString {
			switch {
			case c == '\\':
				b.WriteByte(c)
				escaped = true
			case c == '"':
				b.WriteByte(c)
				inString = false
			case c == '\n':
				b.WriteString(`\n`)
			case c == '\r':
				b.WriteString(`\r`)
			case c == '\t':
				b.WriteString(`\t`)
			case c < 0x20:
				fmt.Fprintf(&b, `\u%04x`, c)
			default:
				b.WriteByte(c)
			}
			continue
		}
		if c == '"' {
			inString = true
		}
		b.WriteByte(c)
	}
	return b.String()
}

// stripTrailingCommas drops commas that directly precede a closing
// brace or bracket. String interiors are left untouched so recovered
// file content keeps its bytes.
func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			b.WriteByte(c)
			escaped = false
			continue
		}
		if inString {
			if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			b.WriteByte(c)
			continue
		}
		switch c {
		case '"':
			inString = true
		case ',':
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n' || s[j] == '\r') {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// =============================================================================
// STRATEGY 3: PATTERN EXTRACTION
// =============================================================================

var filePairPattern = regexp.MustCompile(
	`"path"\s*:\s*"((?:[^"\\]|\\.)*)"\s*,\s*"content"\s*:\s*"((?:[^"\\]|\\.)*)"`)

// parsePatterns scans for "path"/"content" pairs without requiring the
// surrounding JSON to be well formed. It only recovers file lists.
func parsePatterns(raw string) (Document, error) {
	matches := filePairPattern.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("no path/content pairs")
	}
	files := make([]any, 0, len(matches))
	for _, m := range matches {
		files = append(files, map[string]any{
			"path":    unquoteJSON(m[1]),
			"content": unquoteJSON(m[2]),
		})
	}
	return Document{"files": files}, nil
}

// unquoteJSON interprets the escape sequences of a JSON string body.
// Falls back to the raw text when the body is not valid.
func unquoteJSON(body string) string {
	var s string
	if err := json.Unmarshal([]byte(`"`+body+`"`), &s); err != nil {
		return body
	}
	return s
}

// =============================================================================
// STRATEGY 4: LINE-ORIENTED RECOVERY
// =============================================================================

var pathLine = regexp.MustCompile(`"?path"?\s*[:=]\s*"?([^",}]+)`)
var contentStart = regexp.MustCompile(`"?content"?\s*[:=]\s*"?(.*)`)

// parseLines is the last resort: walk the text line by line, treating
// each path marker as the start of a file and accumulating everything
// until the next marker as its content. Lossy, but it salvages output
// that is too mangled for the structural strategies.
func parseLines(raw string) (Document, error) {
	lines := strings.Split(raw, "\n")
	var files []any
	var curPath string
	var curContent []string

	flush := func() {
		if curPath == "" {
			return
		}
		content := strings.TrimRight(strings.Join(curContent, "\n"), "\n")
		content = strings.TrimSuffix(content, `"`)
		files = append(files, map[string]any{
			"path":    curPath,
			"content": content,
		})
		curPath = ""
		curContent = nil
	}

	for _, line := range lines {
		if m := pathLine.FindStringSubmatch(line); m != nil {
			flush()
			curPath = strings.TrimSpace(strings.Trim(m[1], `"' `))
			continue
		}
		if curPath == "" {
			continue
		}
		if m := contentStart.FindStringSubmatch(line); m != nil && len(curContent) == 0 {
			line = m[1]
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "}" || trimmed == "}," || trimmed == "]" || trimmed == "}]" {
			flush()
			continue
		}
		curContent = append(curContent, line)
	}
	flush()

	if len(files) == 0 {
		return nil, fmt.Errorf("no recoverable lines")
	}
	return Document{"files": files}, nil
}
