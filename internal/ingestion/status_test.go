package ingestion

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
)

func TestMemoryTrackerSetGet(t *testing.T) {
	tracker := NewMemoryTracker()
	ctx := context.Background()

	if _, ok := tracker.Get(ctx, "missing"); ok {
		t.Fatal("Get on empty tracker reported a record")
	}

	tracker.Set(ctx, StatusRecord{ProcessingID: "run-1", State: RunPending})
	rec, ok := tracker.Get(ctx, "run-1")
	if !ok {
		t.Fatal("record not found after Set")
	}
	if rec.State != RunPending {
		t.Errorf("State = %q, want pending", rec.State)
	}
	if rec.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not stamped on Set")
	}

	tracker.Set(ctx, StatusRecord{ProcessingID: "run-1", State: RunCompleted, Detail: "completed"})
	rec, _ = tracker.Get(ctx, "run-1")
	if rec.State != RunCompleted {
		t.Errorf("State = %q after overwrite, want completed", rec.State)
	}
}

func TestMemoryTrackerConcurrent(t *testing.T) {
	tracker := NewMemoryTracker()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Set(ctx, StatusRecord{ProcessingID: "shared", State: RunProcessing})
			tracker.Get(ctx, "shared")
		}()
	}
	wg.Wait()

	if _, ok := tracker.Get(ctx, "shared"); !ok {
		t.Error("record lost under concurrent access")
	}
}

func TestRunnerRunsAndRecovers(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	runner := NewRunner(logger)

	done := make(chan struct{})
	runner.Go("ok", func(ctx context.Context) error {
		close(done)
		return nil
	})
	<-done

	// A panicking task must not take the process down.
	runner.Go("panics", func(ctx context.Context) error {
		panic("boom")
	})
	runner.Go("fails", func(ctx context.Context) error {
		return context.Canceled
	})
	runner.Wait()
}
