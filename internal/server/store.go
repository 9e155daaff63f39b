package server

import (
	"sort"
	"sync"
	"time"

	"monoshift/internal/pipeline"
)

// RunState is the lifecycle of an analysis run.
type RunState string

const (
	StateProcessing RunState = "processing"
	StateCompleted  RunState = "completed"
	StateFailed     RunState = "failed"
)

// Run is the server-side record of a migration run.
type Run struct {
	ID        string              `json:"id"`
	RepoURL   string              `json:"repo_url"`
	State     RunState            `json:"state"`
	Error     string              `json:"error,omitempty"`
	StartedAt time.Time           `json:"started_at"`
	UpdatedAt time.Time           `json:"updated_at"`
	Report    *pipeline.RunReport `json:"report,omitempty"`
}

// RunStore keeps run records in memory. Finished runs are evicted
// after a TTL, and the store never holds more than maxRuns records;
// when full, the oldest finished run is dropped first.
type RunStore struct {
	mu      sync.Mutex
	runs    map[string]*Run
	ttl     time.Duration
	maxRuns int
	now     func() time.Time
}

// NewRunStore builds a store with the given TTL and capacity.
// Non-positive values fall back to 24h and 100.
func NewRunStore(ttl time.Duration, maxRuns int) *RunStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if maxRuns <= 0 {
		maxRuns = 100
	}
	return &RunStore{
		runs:    make(map[string]*Run),
		ttl:     ttl,
		maxRuns: maxRuns,
		now:     time.Now,
	}
}

// Put inserts or replaces a run record.
func (s *RunStore) Put(run Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run.UpdatedAt = s.now()
	s.runs[run.ID] = &run
	s.evictLocked()
}

// Get returns a copy of the run, or false if unknown or expired.
func (s *RunStore) Get(id string) (Run, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked()
	run, ok := s.runs[id]
	if !ok {
		return Run{}, false
	}
	return *run, true
}

// List returns all live runs, newest first.
func (s *RunStore) List() []Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked()
	out := make([]Run, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, *run)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

// evictLocked drops expired finished runs, then enforces capacity by
// removing the oldest finished runs. In-flight runs are never evicted.
func (s *RunStore) evictLocked() {
	now := s.now()
	for id, run := range s.runs {
		if run.State != StateProcessing && now.Sub(run.UpdatedAt) > s.ttl {
			delete(s.runs, id)
		}
	}
	for len(s.runs) > s.maxRuns {
		oldestID := ""
		var oldest time.Time
		for id, run := range s.runs {
			if run.State == StateProcessing {
				continue
			}
			if oldestID == "" || run.UpdatedAt.Before(oldest) {
				oldestID = id
				oldest = run.UpdatedAt
			}
		}
		if oldestID == "" {
			return
		}
		delete(s.runs, oldestID)
	}
}
