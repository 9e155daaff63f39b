package pipeline

import "testing"

func TestQueueFIFO(t *testing.T) {
	q := NewTaskQueue()
	q.Enqueue(Task{ID: "a"})
	q.Enqueue(Task{ID: "b"})
	q.Enqueue(Task{ID: "c"})

	for _, want := range []string{"a", "b", "c"} {
		got, ok := q.Dequeue()
		if !ok || got.ID != want {
			t.Fatalf("dequeue = %q ok=%v, want %q", got.ID, ok, want)
		}
	}
	if _, ok := q.Dequeue(); ok {
		t.Fatal("dequeue on empty queue must report empty")
	}
}

func TestQueueMidProcessingEnqueue(t *testing.T) {
	q := NewTaskQueue()
	q.Enqueue(Task{ID: "first"})
	q.Enqueue(Task{ID: "second"})

	got, _ := q.Dequeue()
	if got.ID != "first" {
		t.Fatalf("dequeue = %q", got.ID)
	}
	// A follow-up derived mid-processing lands behind existing work.
	q.Enqueue(Task{ID: "derived"})

	got, _ = q.Dequeue()
	if got.ID != "second" {
		t.Fatalf("dequeue = %q, derived task must not jump the queue", got.ID)
	}
	got, _ = q.Dequeue()
	if got.ID != "derived" {
		t.Fatalf("dequeue = %q", got.ID)
	}
}

func TestQueueLenAndIsEmpty(t *testing.T) {
	q := NewTaskQueue()
	if !q.IsEmpty() || q.Len() != 0 {
		t.Fatal("new queue must be empty")
	}
	q.Enqueue(Task{ID: "a"})
	if q.IsEmpty() || q.Len() != 1 {
		t.Fatalf("len = %d", q.Len())
	}
}
