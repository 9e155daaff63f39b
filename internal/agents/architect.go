package agents

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"monoshift/internal/boundary"
	"monoshift/internal/extract"
	"monoshift/internal/llm"
	"monoshift/internal/repo"
)

// Architect proposes service boundaries for an analyzed monolith and
// maps the monolith's files onto them.
type Architect struct {
	client llm.Client
	mapper *boundary.Mapper
	log    *zap.Logger
}

// NewArchitect wires an Architect.
func NewArchitect(client llm.Client, mapper *boundary.Mapper, log *zap.Logger) *Architect {
	if log == nil {
		log = zap.NewNop()
	}
	return &Architect{client: client, mapper: mapper, log: log}
}

// IdentifyBoundaries asks the model for service boundaries, falling
// back to the static-analysis namespace clusters when the model's
// answer cannot be recovered. The returned boundaries have their Files
// populated; completeness of the file coverage is the caller's step.
func (a *Architect) IdentifyBoundaries(ctx context.Context, res *AnalyzeResult) ([]boundary.ServiceBoundary, error) {
	raw, err := a.client.CompleteWithSystem(ctx, architectSystemPrompt, boundaryPrompt(res.Analysis, res.Files))
	if err != nil {
		return nil, fmt.Errorf("boundary identification: %w", err)
	}

	boundaries := a.parseBoundaries(raw)
	if len(boundaries) == 0 {
		a.log.Warn("no boundaries recovered from model output, falling back to namespace clusters")
		boundaries = a.fallbackBoundaries(res)
	}
	// An empty list is not an error: the caller's coverage step turns
	// it into a single catch-all boundary owning every file.
	if len(boundaries) == 0 {
		a.log.Warn("no service boundaries identified, every file will fall to the catch-all")
		return nil, nil
	}

	paths := repo.Paths(res.Files)
	contents := repo.Contents(res.Files)
	return a.mapper.MapAll(boundaries, paths, contents), nil
}

func (a *Architect) parseBoundaries(raw string) []boundary.ServiceBoundary {
	doc, ok, tr := extract.ExtractWithTrace(raw, []string{"service_boundaries"})
	if !ok {
		return nil
	}
	a.log.Debug("recovered boundary document", zap.String("strategy", tr.Accepted))

	var out []boundary.ServiceBoundary
	for _, obj := range doc.Objects("service_boundaries") {
		b := boundary.FromDocumentFields(
			obj.String("name"),
			obj.String("description"),
			obj.StringSlice("responsibilities"),
			obj.StringSlice("entities"),
			obj.StringSlice("apis"),
		)
		if b.Name == "" {
			continue
		}
		out = append(out, b)
	}
	return out
}

// fallbackBoundaries turns static-analysis namespace clusters into
// boundaries so a mute or mangled model never stalls the run.
func (a *Architect) fallbackBoundaries(res *AnalyzeResult) []boundary.ServiceBoundary {
	var out []boundary.ServiceBoundary
	for _, s := range res.Analysis.PotentialServices {
		out = append(out, boundary.ServiceBoundary{
			Name:        s.Name,
			Description: fmt.Sprintf("Namespace cluster %s identified by static analysis.", s.Namespace),
			Entities:    s.Entities,
		})
	}
	return out
}
