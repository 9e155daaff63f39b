package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"monoshift/internal/agents"
	"monoshift/internal/boundary"
)

// Config tunes one orchestrator.
type Config struct {
	// RefactorWorkers bounds how many service generations run at once.
	RefactorWorkers int `yaml:"refactor_workers"`
	// TaskTimeout is applied per task when the caller's context has no
	// deadline of its own.
	TaskTimeout time.Duration `yaml:"task_timeout"`
	// TargetLanguage overrides the generated services' language; empty
	// means follow the monolith's dominant language.
	TargetLanguage string `yaml:"target_language"`
}

// DefaultConfig returns the orchestrator defaults.
func DefaultConfig() Config {
	return Config{
		RefactorWorkers: 4,
		TaskTimeout:     5 * time.Minute,
	}
}

// handler executes one task and returns its outcome plus any follow-up
// tasks to enqueue. Handlers return an error only for execution
// failures; the dispatcher turns it into a recorded failure.
type handler func(ctx context.Context, task Task) (Outcome, []Task, error)

// Orchestrator owns a run: it drains the task queue, dispatches
// through the capability registry, records write-once outcomes, and
// derives follow-up tasks until the graph is exhausted.
type Orchestrator struct {
	cfg      Config
	queue    *TaskQueue
	registry map[Capability]map[Action]handler
	mapper   *boundary.Mapper
	log      *zap.Logger

	analyzer  *agents.Analyzer
	architect *agents.Architect
	developer *agents.Developer

	runID    string
	seq      atomic.Int64
	mu       sync.Mutex
	outcomes map[string]Outcome
}

// New wires an Orchestrator. Every collaborator is required except the
// logger.
func New(cfg Config, analyzer *agents.Analyzer, architect *agents.Architect, developer *agents.Developer, mapper *boundary.Mapper, log *zap.Logger) *Orchestrator {
	if cfg.RefactorWorkers <= 0 {
		cfg.RefactorWorkers = DefaultConfig().RefactorWorkers
	}
	if log == nil {
		log = zap.NewNop()
	}
	o := &Orchestrator{
		cfg:       cfg,
		queue:     NewTaskQueue(),
		mapper:    mapper,
		log:       log,
		analyzer:  analyzer,
		architect: architect,
		developer: developer,
		outcomes:  make(map[string]Outcome),
	}
	o.registry = map[Capability]map[Action]handler{
		CapabilityAnalyzer:  {ActionAnalyze: o.runAnalyze},
		CapabilityArchitect: {ActionIdentifyBoundaries: o.runIdentifyBoundaries},
		CapabilityDeveloper: {ActionRefactor: o.runRefactor},
	}
	return o
}

// newTask assigns the run-scoped ID. IDs are derived from the
// capability, action, and a sequence counter only.
func (o *Orchestrator) newTask(agent Capability, action Action, params Params) Task {
	return Task{
		ID:     fmt.Sprintf("%s_%s_%d", agent, action, o.seq.Add(1)),
		Agent:  agent,
		Action: action,
		Params: params,
	}
}

// Run executes the whole migration for one repository and returns the
// per-task outcomes plus the terminal coverage audit. The returned
// error is non-nil only for run-fatal conditions: failure to acquire
// the repository itself.
// An Orchestrator executes a single run; build a fresh one per run.
func (o *Orchestrator) Run(ctx context.Context, runID, repoURL string) (*RunReport, error) {
	o.runID = runID
	seed := o.newTask(CapabilityAnalyzer, ActionAnalyze, Params{RepoURL: repoURL})
	o.queue.Enqueue(seed)

	for {
		task, ok := o.queue.Dequeue()
		if !ok {
			break
		}
		// Everything after boundary identification is an independent
		// per-service generation; those run on a bounded pool. All
		// other stages are strictly sequential.
		if task.Action == ActionRefactor {
			o.runRefactorStage(ctx, task)
			continue
		}
		o.dispatch(ctx, task)
	}

	report := o.buildReport(runID)

	if out, ok := o.outcomeFor(seed.ID); ok && out.Status == StatusFailed {
		return report, fmt.Errorf("run failed: %s", out.Failure.Message)
	}
	return report, nil
}

// runRefactorStage drains the refactor tasks (the first one already
// dequeued plus everything still queued, which by construction is all
// refactors) and executes them concurrently. A failing service never
// cancels its siblings.
func (o *Orchestrator) runRefactorStage(ctx context.Context, first Task) {
	batch := []Task{first}
	for {
		t, ok := o.queue.Dequeue()
		if !ok {
			break
		}
		batch = append(batch, t)
	}

	g := new(errgroup.Group)
	g.SetLimit(o.cfg.RefactorWorkers)
	for _, task := range batch {
		task := task
		g.Go(func() error {
			o.dispatch(ctx, task)
			return nil
		})
	}
	g.Wait()
}

// dispatch resolves the task through the registry, executes it with
// the per-task timeout, records the outcome, and enqueues follow-ups.
// Unknown capabilities or actions are recorded as skips, never fatal.
func (o *Orchestrator) dispatch(ctx context.Context, task Task) {
	actions, ok := o.registry[task.Agent]
	if !ok {
		o.log.Warn("skipping task for unknown agent",
			zap.String("task", task.ID), zap.String("agent", string(task.Agent)))
		o.record(Outcome{
			TaskID: task.ID, Agent: task.Agent, Action: task.Action,
			Status: StatusSkipped, Service: boundaryName(task),
			Failure: &Failure{
				Kind:    FailureAgentNotFound,
				Message: fmt.Sprintf("no agent registered as %q", task.Agent),
			},
		})
		return
	}
	h, ok := actions[task.Action]
	if !ok {
		o.log.Warn("skipping task for unknown action",
			zap.String("task", task.ID), zap.String("action", string(task.Action)))
		o.record(Outcome{
			TaskID: task.ID, Agent: task.Agent, Action: task.Action,
			Status: StatusSkipped, Service: boundaryName(task),
			Failure: &Failure{
				Kind:    FailureActionNotFound,
				Message: fmt.Sprintf("agent %q has no action %q", task.Agent, task.Action),
			},
		})
		return
	}

	taskCtx, cancel := o.taskContext(ctx)
	outcome, followUps, err := h(taskCtx, task)
	cancel()

	if err != nil {
		o.log.Error("task execution failed",
			zap.String("task", task.ID), zap.Error(err))
		o.record(Outcome{
			TaskID: task.ID, Agent: task.Agent, Action: task.Action,
			Status: StatusFailed, Service: boundaryName(task),
			Failure: &Failure{Kind: FailureExecution, Message: err.Error()},
		})
		return
	}

	o.record(outcome)
	for _, f := range followUps {
		o.queue.Enqueue(f)
	}
}

// taskContext applies the configured per-task timeout unless the
// caller's context already carries a deadline.
func (o *Orchestrator) taskContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && o.cfg.TaskTimeout > 0 {
		return context.WithTimeout(ctx, o.cfg.TaskTimeout)
	}
	return ctx, func() {}
}

// record stores an outcome. Slots are write-once; a duplicate ID is a
// bug in the derivation and is logged, not overwritten.
func (o *Orchestrator) record(out Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.outcomes[out.TaskID]; exists {
		o.log.Error("refusing to overwrite recorded outcome",
			zap.String("task", out.TaskID))
		return
	}
	o.outcomes[out.TaskID] = out
}

func (o *Orchestrator) outcomeFor(taskID string) (Outcome, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	out, ok := o.outcomes[taskID]
	return out, ok
}

// =============================================================================
// TASK HANDLERS + FOLLOW-UP DERIVATION
// =============================================================================

func (o *Orchestrator) runAnalyze(ctx context.Context, task Task) (Outcome, []Task, error) {
	res, err := o.analyzer.Analyze(ctx, o.runID, task.Params.RepoURL)
	if err != nil {
		return Outcome{}, nil, err
	}

	followUp := o.newTask(CapabilityArchitect, ActionIdentifyBoundaries, Params{Analysis: res})
	return Outcome{
		TaskID: task.ID, Agent: task.Agent, Action: task.Action,
		Status: StatusCompleted, Analysis: res,
	}, []Task{followUp}, nil
}

func (o *Orchestrator) runIdentifyBoundaries(ctx context.Context, task Task) (Outcome, []Task, error) {
	res := task.Params.Analysis
	boundaries, err := o.architect.IdentifyBoundaries(ctx, res)
	if err != nil {
		return Outcome{}, nil, err
	}

	// Every file must end up owned by some boundary before generation
	// starts; unclaimed files go to the synthetic catch-all.
	allPaths := make([]string, 0, len(res.Files))
	for p := range res.Files {
		allPaths = append(allPaths, p)
	}
	boundaries = o.mapper.EnsureCompleteCoverage(boundaries, allPaths)

	language := o.cfg.TargetLanguage
	if language == "" {
		language = dominantLanguage(res.Analysis.LanguageDistribution)
	}

	var followUps []Task
	for i := range boundaries {
		b := boundaries[i]
		if len(b.Files) == 0 {
			o.log.Info("skipping boundary with no files",
				zap.String("boundary", b.Name))
			continue
		}
		followUps = append(followUps, o.newTask(CapabilityDeveloper, ActionRefactor, Params{
			Analysis: res,
			Boundary: &b,
			Language: language,
		}))
	}

	return Outcome{
		TaskID: task.ID, Agent: task.Agent, Action: task.Action,
		Status: StatusCompleted, Boundaries: boundaries,
	}, followUps, nil
}

func (o *Orchestrator) runRefactor(ctx context.Context, task Task) (Outcome, []Task, error) {
	res, err := o.developer.Refactor(ctx, *task.Params.Boundary, task.Params.Analysis.Files, task.Params.Language)
	if err != nil {
		return Outcome{}, nil, err
	}
	// Refactor is terminal: no follow-ups.
	return Outcome{
		TaskID: task.ID, Agent: task.Agent, Action: task.Action,
		Status: StatusCompleted, Service: res.ServiceName, Refactor: res,
	}, nil, nil
}

func boundaryName(task Task) string {
	if task.Params.Boundary != nil {
		return task.Params.Boundary.Name
	}
	return ""
}

func dominantLanguage(dist map[string]int) string {
	best, bestCount := "", -1
	for lang, n := range dist {
		if n > bestCount || (n == bestCount && lang < best) {
			best, bestCount = lang, n
		}
	}
	return best
}
