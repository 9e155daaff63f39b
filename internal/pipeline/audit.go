package pipeline

import (
	"sort"

	"go.uber.org/zap"
)

// CoverageAudit is the terminal summary of a run: what the monolith
// contained, what was generated, and which services made it.
type CoverageAudit struct {
	TotalFiles          int      `json:"total_files"`
	TotalGeneratedFiles int      `json:"total_generated_files"`
	SucceededServices   []string `json:"succeeded_services"`
	FailedServices      []string `json:"failed_services"`
}

// RunReport is everything a run produced.
type RunReport struct {
	RunID    string             `json:"run_id"`
	Outcomes map[string]Outcome `json:"outcomes"`
	Audit    CoverageAudit      `json:"audit"`
}

// buildReport snapshots the outcomes and classifies every generated
// service. A service succeeded when it produced at least one
// substantive file; a placeholder-only result or a failed task counts
// as failed.
func (o *Orchestrator) buildReport(runID string) *RunReport {
	o.mu.Lock()
	outcomes := make(map[string]Outcome, len(o.outcomes))
	for id, out := range o.outcomes {
		outcomes[id] = out
	}
	o.mu.Unlock()

	audit := CoverageAudit{
		SucceededServices: []string{},
		FailedServices:    []string{},
	}
	for _, out := range outcomes {
		switch {
		case out.Action == ActionAnalyze && out.Analysis != nil:
			audit.TotalFiles = len(out.Analysis.Files)
		case out.Action == ActionRefactor:
			name := serviceName(out)
			if out.Status == StatusCompleted && out.Refactor != nil && !out.Refactor.Placeholder {
				audit.TotalGeneratedFiles += len(out.Refactor.Files)
				audit.SucceededServices = append(audit.SucceededServices, name)
			} else {
				audit.FailedServices = append(audit.FailedServices, name)
			}
		}
	}
	sort.Strings(audit.SucceededServices)
	sort.Strings(audit.FailedServices)

	o.log.Info("run complete",
		zap.String("run_id", runID),
		zap.Int("total_files", audit.TotalFiles),
		zap.Int("generated_files", audit.TotalGeneratedFiles),
		zap.Strings("succeeded", audit.SucceededServices),
		zap.Strings("failed", audit.FailedServices))

	return &RunReport{RunID: runID, Outcomes: outcomes, Audit: audit}
}

// serviceName resolves the boundary name of a refactor outcome even
// when the task never ran to completion.
func serviceName(out Outcome) string {
	if out.Service != "" {
		return out.Service
	}
	if out.Refactor != nil && out.Refactor.ServiceName != "" {
		return out.Refactor.ServiceName
	}
	return out.TaskID
}
