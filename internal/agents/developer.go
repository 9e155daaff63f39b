package agents

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"monoshift/internal/boundary"
	"monoshift/internal/extract"
	"monoshift/internal/llm"
	"monoshift/internal/repo"
	"monoshift/internal/scaffold"
)

// PlaceholderPath is the single file emitted when every generation
// batch for a service produced unrecoverable output. Its presence (and
// nothing else substantive) marks the service as failed in the audit.
const PlaceholderPath = "GENERATION_FAILED.md"

// DeveloperConfig bounds the size of each generation request.
type DeveloperConfig struct {
	MaxFilesPerBatch int `yaml:"max_files_per_batch"`
	MaxCharsPerBatch int `yaml:"max_chars_per_batch"`
}

// DefaultDeveloperConfig returns the batching defaults.
func DefaultDeveloperConfig() DeveloperConfig {
	return DeveloperConfig{
		MaxFilesPerBatch: 10,
		MaxCharsPerBatch: 60000,
	}
}

// Developer generates the code of one microservice from a boundary and
// the original files mapped to it.
type Developer struct {
	client llm.Client
	cfg    DeveloperConfig
	log    *zap.Logger
}

// RefactorResult is the generated service.
type RefactorResult struct {
	ServiceName string             `json:"service_name"`
	Files       []extract.FilePair `json:"files"`
	// Placeholder marks a result whose only content is the explanatory
	// placeholder file.
	Placeholder bool `json:"placeholder,omitempty"`
}

// NewDeveloper wires a Developer.
func NewDeveloper(client llm.Client, cfg DeveloperConfig, log *zap.Logger) *Developer {
	if cfg.MaxFilesPerBatch <= 0 {
		cfg.MaxFilesPerBatch = DefaultDeveloperConfig().MaxFilesPerBatch
	}
	if cfg.MaxCharsPerBatch <= 0 {
		cfg.MaxCharsPerBatch = DefaultDeveloperConfig().MaxCharsPerBatch
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Developer{client: client, cfg: cfg, log: log}
}

// Refactor generates the service for one boundary. The boundary's
// original files are sent in batches; recovered files merge with
// last-write-wins by path. An error is returned only when every model
// call failed. When calls succeed but nothing can be recovered, the
// result is a single placeholder file so the service is never silently
// empty.
func (d *Developer) Refactor(ctx context.Context, b boundary.ServiceBoundary, files map[string]repo.FileRecord, language string) (*RefactorResult, error) {
	batches := d.makeBatches(b.Files, files)
	if len(batches) == 0 {
		return nil, fmt.Errorf("boundary %s has no source files", b.Name)
	}

	merged := make(map[string]string)
	var order []string
	callsSucceeded := 0

	for i, batch := range batches {
		raw, err := d.client.CompleteWithSystem(ctx, developerSystemPrompt, refactorPrompt(b, batch, language))
		if err != nil {
			d.log.Warn("generation call failed",
				zap.String("boundary", b.Name),
				zap.Int("batch", i), zap.Error(err))
			continue
		}
		callsSucceeded++

		pairs, ok, tr := extract.ExtractFiles(raw)
		if !ok {
			d.log.Warn("no files recovered from generation output",
				zap.String("boundary", b.Name),
				zap.Int("batch", i),
				zap.Strings("strategies", tr.Attempted))
			continue
		}
		d.log.Debug("recovered generated files",
			zap.String("boundary", b.Name),
			zap.Int("batch", i),
			zap.Int("files", len(pairs)),
			zap.String("strategy", tr.Accepted))

		for _, p := range pairs {
			if _, exists := merged[p.Path]; !exists {
				order = append(order, p.Path)
			}
			merged[p.Path] = p.Content
		}
	}

	if callsSucceeded == 0 {
		return nil, fmt.Errorf("all %d generation calls for %s failed", len(batches), b.Name)
	}

	res := &RefactorResult{ServiceName: b.Name}
	if len(merged) == 0 {
		res.Placeholder = true
		res.Files = []extract.FilePair{{
			Path:    PlaceholderPath,
			Content: placeholderContent(b, len(batches)),
		}}
		return res, nil
	}

	for _, path := range order {
		res.Files = append(res.Files, extract.FilePair{Path: path, Content: merged[path]})
	}
	res.Files = append(res.Files, scaffold.SupportFiles(scaffold.ForLanguage(language), b, res.Files)...)
	return res, nil
}

// makeBatches splits the boundary's files respecting both batch limits.
// A single file over the char limit still ships alone rather than being
// dropped.
func (d *Developer) makeBatches(paths []string, files map[string]repo.FileRecord) [][]repo.FileRecord {
	var batches [][]repo.FileRecord
	var cur []repo.FileRecord
	curChars := 0

	for _, path := range paths {
		rec, ok := files[path]
		if !ok {
			continue
		}
		size := len(rec.Content)
		if len(cur) > 0 && (len(cur) >= d.cfg.MaxFilesPerBatch || curChars+size > d.cfg.MaxCharsPerBatch) {
			batches = append(batches, cur)
			cur = nil
			curChars = 0
		}
		cur = append(cur, rec)
		curChars += size
	}
	if len(cur) > 0 {
		batches = append(batches, cur)
	}
	return batches
}

func placeholderContent(b boundary.ServiceBoundary, batches int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s: generation could not be recovered\n\n", b.Name)
	fmt.Fprintf(&sb, "The model was asked to generate this service in %d batch(es), but none of its responses contained recoverable file content.\n\n", batches)
	sb.WriteString("Original files assigned to this boundary:\n\n")
	for _, f := range b.Files {
		fmt.Fprintf(&sb, "- %s\n", f)
	}
	sb.WriteString("\nRe-run the migration for this service or port these files manually.\n")
	return sb.String()
}
