package ingestion

import (
	"context"
	"log/slog"
	"sync"
)

// Runner executes pipeline runs as detached background tasks after the HTTP
// handler has already acknowledged the request. There is no persistent queue:
// an in-flight run is lost on process crash and recoverable only via the next
// equivalent event. Failures are logged, never surfaced to the original
// caller.
type Runner struct {
	logger *slog.Logger
	wg     sync.WaitGroup
}

func NewRunner(logger *slog.Logger) *Runner {
	return &Runner{logger: logger}
}

// Go submits fn for background execution. The task runs with its own
// context, never the already-answered request's, and panics are recovered
// and logged.
func (r *Runner) Go(name string, fn func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("background task panicked",
					slog.String("task", name),
					slog.Any("panic", rec))
			}
		}()

		if err := fn(context.Background()); err != nil {
			r.logger.Error("background task failed",
				slog.String("task", name),
				slog.String("error", err.Error()))
		}
	}()
}

// Wait blocks until all submitted tasks have finished. Used on shutdown to
// let in-flight runs drain.
func (r *Runner) Wait() {
	r.wg.Wait()
}
