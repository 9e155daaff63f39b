// Package agents implements the three pipeline capabilities: analyzing
// a monolith, proposing service boundaries, and generating the
// per-service code.
package agents

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"monoshift/internal/analysis"
	"monoshift/internal/extract"
	"monoshift/internal/knowledge"
	"monoshift/internal/llm"
	"monoshift/internal/repo"
)

// Analyzer acquires a repository, runs static analysis over it, and
// asks the model to classify the architecture.
type Analyzer struct {
	parser *repo.Parser
	client llm.Client
	index  *knowledge.Index
	log    *zap.Logger
}

// AnalyzeResult carries everything downstream stages need: the parsed
// files and the aggregated analysis.
type AnalyzeResult struct {
	RepoURL  string                     `json:"repo_url"`
	Files    map[string]repo.FileRecord `json:"-"`
	Analysis *analysis.Result           `json:"analysis"`
}

// NewAnalyzer wires an Analyzer. index may be nil.
func NewAnalyzer(parser *repo.Parser, client llm.Client, index *knowledge.Index, log *zap.Logger) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{parser: parser, client: client, index: index, log: log}
}

// Analyze parses the repository and inspects it. Repository acquisition
// failure is returned as an error; classification and indexing problems
// degrade gracefully instead of failing the stage.
func (a *Analyzer) Analyze(ctx context.Context, runID, repoURL string) (*AnalyzeResult, error) {
	files, err := a.parser.ParseRepository(ctx, repoURL)
	if err != nil {
		return nil, fmt.Errorf("acquire repository: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("repository %s contains no parseable files", repoURL)
	}

	res := analysis.Analyze(files)
	res.ArchitectureType = a.classifyArchitecture(ctx, res, files)

	a.log.Info("analysis complete",
		zap.String("repo", repoURL),
		zap.Int("files", res.FileCount),
		zap.Int("entities", len(res.Entities)),
		zap.String("architecture", res.ArchitectureType))

	if a.index.Enabled() {
		a.index.IndexFiles(ctx, runID, files)
	}

	return &AnalyzeResult{RepoURL: repoURL, Files: files, Analysis: res}, nil
}

// classifyArchitecture is best-effort: any model or extraction failure
// yields "unknown".
func (a *Analyzer) classifyArchitecture(ctx context.Context, res *analysis.Result, files map[string]repo.FileRecord) string {
	raw, err := a.client.CompleteWithSystem(ctx, classifierSystemPrompt, architecturePrompt(res, files))
	if err != nil {
		a.log.Warn("architecture classification failed", zap.Error(err))
		return "unknown"
	}
	doc, ok := extract.Extract(raw, []string{"architecture_type"})
	if !ok {
		a.log.Warn("architecture classification produced no parseable output")
		return "unknown"
	}
	if t := doc.String("architecture_type"); t != "" {
		return t
	}
	return "unknown"
}
