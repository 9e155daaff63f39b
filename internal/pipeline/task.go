// Package pipeline drives the migration as a dynamic task graph: a
// FIFO queue of capability tasks, an orchestrator that executes them
// through a fixed registry, and a derivation table that decides which
// tasks each completed stage spawns next.
package pipeline

import (
	"monoshift/internal/agents"
	"monoshift/internal/boundary"
)

// Capability names a registered agent.
type Capability string

const (
	CapabilityAnalyzer  Capability = "analyzer"
	CapabilityArchitect Capability = "architect"
	CapabilityDeveloper Capability = "developer"
)

// Action names an operation of a capability.
type Action string

const (
	ActionAnalyze            Action = "analyze"
	ActionIdentifyBoundaries Action = "identify_boundaries"
	ActionRefactor           Action = "refactor"
)

// Params carries the typed inputs of a task. Only the fields the
// task's action needs are set.
type Params struct {
	RepoURL  string
	Analysis *agents.AnalyzeResult
	Boundary *boundary.ServiceBoundary
	Language string
}

// Task is one unit of work. ID is assigned by the orchestrator from
// the capability, action, and a run-scoped sequence counter, never
// from the task's content.
type Task struct {
	ID     string
	Agent  Capability
	Action Action
	Params Params
}

// Status is the terminal state of an executed task.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// FailureKind classifies why a task did not complete.
type FailureKind string

const (
	FailureAgentNotFound  FailureKind = "agent_not_found"
	FailureActionNotFound FailureKind = "action_not_found"
	FailureExecution      FailureKind = "execution_error"
)

// Failure describes a task that did not complete.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// Outcome is the recorded result of one task. Exactly one of the
// payload fields is set on success, matching the task's action.
type Outcome struct {
	TaskID     string                     `json:"task_id"`
	Agent      Capability                 `json:"agent"`
	Action     Action                     `json:"action"`
	Status     Status                     `json:"status"`
	Service    string                     `json:"service,omitempty"`
	Analysis   *agents.AnalyzeResult      `json:"analysis,omitempty"`
	Boundaries []boundary.ServiceBoundary `json:"boundaries,omitempty"`
	Refactor   *agents.RefactorResult     `json:"refactor,omitempty"`
	Failure    *Failure                   `json:"failure,omitempty"`
}
