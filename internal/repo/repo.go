// Package repo acquires a monolith's source tree and parses it into the
// in-memory file map the rest of the pipeline works on. Remote
// repositories are cloned with the git binary into a temp directory;
// local paths are read in place.
package repo

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// FileRecord is one parsed source file. Path is relative to the
// repository root and unique within a parse result.
type FileRecord struct {
	Path      string `json:"path"`
	Content   string `json:"content"`
	Extension string `json:"extension"`
	Language  string `json:"language"`
	SizeBytes int64  `json:"size_bytes"`
}

// parseExtensions is the allowlist of extensions worth feeding to the
// analysis stages.
var parseExtensions = map[string]struct{}{
	".cs": {}, ".csproj": {}, ".sln": {},
	".py": {}, ".js": {}, ".ts": {}, ".java": {}, ".go": {},
	".xml": {}, ".json": {}, ".yaml": {}, ".yml": {},
}

// hiddenDirAllowlist names hidden directories that still carry useful
// configuration. Everything else starting with "." is skipped.
var hiddenDirAllowlist = map[string]bool{
	".github":   true,
	".circleci": true,
	".config":   true,
	".git":      false,
}

// maxFileBytes guards against embedding binary blobs or generated
// megafiles in prompts.
const maxFileBytes = 1 << 20 // 1 MiB

// Parser acquires and reads repositories.
type Parser struct {
	log     *zap.Logger
	workers int
}

// NewParser returns a Parser reading up to workers files concurrently.
func NewParser(log *zap.Logger, workers int) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	if workers <= 0 {
		workers = 20
	}
	return &Parser{log: log, workers: workers}
}

// ParseRepository clones url (or opens it directly when it is a local
// directory) and returns every parseable file keyed by relative path.
// Acquisition failure is returned as an error; the pipeline treats it
// as fatal to the run.
func (p *Parser) ParseRepository(ctx context.Context, url string) (map[string]FileRecord, error) {
	root := url
	if !isLocalDir(url) {
		dir, err := os.MkdirTemp("", "monoshift-clone-*")
		if err != nil {
			return nil, fmt.Errorf("create clone dir: %w", err)
		}
		defer os.RemoveAll(dir)

		if err := p.clone(ctx, url, dir); err != nil {
			return nil, err
		}
		root = dir
	}

	files, err := p.scan(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", url, err)
	}
	p.log.Info("parsed repository",
		zap.String("source", url),
		zap.Int("files", len(files)))
	return files, nil
}

func (p *Parser) clone(ctx context.Context, url, dir string) error {
	cmd := exec.CommandContext(ctx, "git", "clone", "--depth", "1", url, dir)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git clone %s: %w: %s", url, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func isLocalDir(url string) bool {
	info, err := os.Stat(url)
	return err == nil && info.IsDir()
}

// Languages returns the language histogram of a parse result.
func Languages(files map[string]FileRecord) map[string]int {
	dist := make(map[string]int)
	for _, f := range files {
		if f.Language != "" {
			dist[f.Language]++
		}
	}
	return dist
}

// Contents flattens a parse result to path -> content, the shape the
// boundary mapper consumes.
func Contents(files map[string]FileRecord) map[string]string {
	out := make(map[string]string, len(files))
	for path, f := range files {
		out[path] = f.Content
	}
	return out
}

// Paths returns the sorted-insensitive key set of a parse result.
func Paths(files map[string]FileRecord) []string {
	out := make([]string, 0, len(files))
	for path := range files {
		out = append(out, path)
	}
	return out
}

func detectLanguage(ext string) string {
	switch strings.ToLower(ext) {
	case ".cs", ".csproj", ".sln":
		return "csharp"
	case ".py":
		return "python"
	case ".js":
		return "javascript"
	case ".ts":
		return "typescript"
	case ".java":
		return "java"
	case ".go":
		return "go"
	case ".xml":
		return "xml"
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return ""
	}
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
