package server

import (
	"fmt"
	"testing"
	"time"
)

func TestStoreTTLEviction(t *testing.T) {
	store := NewRunStore(time.Minute, 10)
	now := time.Now()
	store.now = func() time.Time { return now }

	store.Put(Run{ID: "done", State: StateCompleted, StartedAt: now})
	store.Put(Run{ID: "live", State: StateProcessing, StartedAt: now})

	now = now.Add(2 * time.Minute)

	if _, ok := store.Get("done"); ok {
		t.Error("finished run survived past its TTL")
	}
	// In-flight runs are never expired.
	if _, ok := store.Get("live"); !ok {
		t.Error("in-flight run was evicted")
	}
}

func TestStoreCapacityEvictsOldestFinished(t *testing.T) {
	store := NewRunStore(time.Hour, 3)
	now := time.Now()
	store.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		store.Put(Run{ID: fmt.Sprintf("run-%d", i), State: StateCompleted, StartedAt: now})
		now = now.Add(time.Second)
	}
	store.Put(Run{ID: "run-3", State: StateCompleted, StartedAt: now})

	if _, ok := store.Get("run-0"); ok {
		t.Error("oldest finished run should have been evicted")
	}
	if _, ok := store.Get("run-3"); !ok {
		t.Error("newest run missing")
	}
	if got := len(store.List()); got != 3 {
		t.Errorf("len = %d, want 3", got)
	}
}

func TestStoreCapacityNeverEvictsProcessing(t *testing.T) {
	store := NewRunStore(time.Hour, 2)
	now := time.Now()
	store.now = func() time.Time { return now }

	store.Put(Run{ID: "a", State: StateProcessing, StartedAt: now})
	store.Put(Run{ID: "b", State: StateProcessing, StartedAt: now})
	store.Put(Run{ID: "c", State: StateProcessing, StartedAt: now})

	for _, id := range []string{"a", "b", "c"} {
		if _, ok := store.Get(id); !ok {
			t.Errorf("in-flight run %q was evicted", id)
		}
	}
}

func TestStoreListNewestFirst(t *testing.T) {
	store := NewRunStore(time.Hour, 10)
	base := time.Now()
	store.Put(Run{ID: "old", State: StateCompleted, StartedAt: base})
	store.Put(Run{ID: "new", State: StateCompleted, StartedAt: base.Add(time.Minute)})

	runs := store.List()
	if len(runs) != 2 || runs[0].ID != "new" {
		t.Fatalf("runs = %+v", runs)
	}
}
