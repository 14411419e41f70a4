package pipeline

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/stepwise/internal/parser"
)

func TestNewJob(t *testing.T) {
	job := NewJob(ModeSolve, "student-1", Input{})
	if job.Status != StatusQueued || job.Phase != "queued" {
		t.Errorf("expected queued job, got %q/%q", job.Status, job.Phase)
	}
	id, err := uuid.Parse(job.ID)
	if err != nil {
		t.Fatalf("job ID %q is not a UUID: %v", job.ID, err)
	}
	if id.Version() != 7 {
		t.Errorf("expected UUIDv7, got version %d", id.Version())
	}
	if job.CreatedAt.IsZero() || !job.CreatedAt.Equal(job.UpdatedAt) {
		t.Error("expected CreatedAt == UpdatedAt on a new job")
	}
}

func TestNewJob_IDsAreOrdered(t *testing.T) {
	a := NewJob(ModeSolve, "u", Input{})
	time.Sleep(2 * time.Millisecond)
	b := NewJob(ModeSolve, "u", Input{})
	if a.ID >= b.ID {
		t.Errorf("expected %q < %q", a.ID, b.ID)
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := NewJob(ModeImprove, "u", Input{})

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusGenerating, "generating"},
		{StatusParsing, "parsing"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		snap := job.Snapshot()
		if snap.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, snap.Status)
		}
		if snap.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, snap.Phase)
		}
		if !snap.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
	if !job.Snapshot().Done() {
		t.Error("completed job should be done")
	}
}

func TestJob_AddError(t *testing.T) {
	job := NewJob(ModeSolve, "u", Input{})
	job.AddError("generate: timeout")
	job.AddError("history: status 500")

	snap := job.Snapshot()
	if len(snap.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Errors))
	}
	if snap.Errors[0] != "generate: timeout" {
		t.Errorf("expected first error %q, got %q", "generate: timeout", snap.Errors[0])
	}

	// The snapshot must not alias internal state.
	snap.Errors[0] = "changed"
	if job.Snapshot().Errors[0] != "generate: timeout" {
		t.Error("snapshot errors alias job state")
	}
}

func TestJob_SnapshotErrorsNotNil(t *testing.T) {
	snap := NewJob(ModeSolve, "u", Input{}).Snapshot()
	if snap.Errors == nil {
		t.Error("expected non-nil errors slice in snapshot")
	}
	if snap.Solve != nil || snap.Improve != nil {
		t.Error("expected no result before processing")
	}
	if snap.Done() {
		t.Error("queued job should not be done")
	}
}

func TestJob_Results(t *testing.T) {
	job := NewJob(ModeSolve, "u", Input{})
	job.AddGenerated(10)
	job.AddGenerated(5)
	job.setModel("m", true)
	job.setSolve(parser.SolveResponse{Problems: []parser.ProblemSolution{{Answer: "4"}}})

	snap := job.Snapshot()
	if snap.Generated != 15 {
		t.Errorf("expected 15 generated bytes, got %d", snap.Generated)
	}
	if snap.Model != "m" || !snap.Cached {
		t.Errorf("expected cached model m, got %q cached=%v", snap.Model, snap.Cached)
	}
	if snap.Solve == nil || snap.Solve.Problems[0].Answer != "4" {
		t.Errorf("unexpected solve result %+v", snap.Solve)
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := NewJob(ModeSolve, "u", Input{})
	store.Put(job)

	got := store.Get(job.ID)
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != job.ID {
		t.Errorf("expected ID %q, got %q", job.ID, got.ID)
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 job, got %d", store.Len())
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	store := NewJobStore(time.Hour)
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(time.Minute)

	expired := NewJob(ModeSolve, "u", Input{})
	expired.UpdatedAt = time.Now().Add(-2 * time.Minute)
	store.Put(expired)

	fresh := NewJob(ModeSolve, "u", Input{})
	store.Put(fresh)

	store.Cleanup()

	if store.Get(expired.ID) != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get(fresh.ID) == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

func TestJobStore_CleanupEmpty(t *testing.T) {
	store := NewJobStore(time.Hour)
	// Should not panic on empty store.
	store.Cleanup()
}

func TestBackoff(t *testing.T) {
	for attempt := range 8 {
		d := Backoff(attempt)
		base := time.Duration(1<<uint(attempt)) * time.Second
		if base > 30*time.Second {
			base = 30 * time.Second
		}
		if d < base || d >= base+base/2 {
			t.Errorf("attempt %d: backoff %v outside [%v, %v)", attempt, d, base, base+base/2)
		}
	}
}
