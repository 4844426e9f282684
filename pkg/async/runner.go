package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/caronakit/pkg/logger"
)

// TaskError is reported on Runner.Errors when a background task fails.
type TaskError struct {
	Task string
	Err  error
}

func (e TaskError) Error() string { return e.Task + ": " + e.Err.Error() }

func (e TaskError) Unwrap() error { return e.Err }

// Runner spawns fire-and-forget tasks whose failures must stay observable.
// Every failure is logged and, when a consumer keeps up, delivered on Errors.
// The errors channel is buffered; when it is full, further failures are only logged.
type Runner struct {
	logger *slog.Logger
	errs   chan TaskError
	wg     sync.WaitGroup
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunnerLogger sets the logger used for task failures.
func WithRunnerLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithErrorBuffer sets the capacity of the Errors channel. Default is 32.
func WithErrorBuffer(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.errs = make(chan TaskError, n)
		}
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		logger: slog.Default(),
		errs:   make(chan TaskError, 32),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Go starts fn in the background. The returned Future may be ignored.
// A cancelled ctx or a panic inside fn counts as a failure.
func (r *Runner) Go(ctx context.Context, task string, fn func(context.Context) error) *Future[struct{}] {
	r.wg.Add(1)
	f := Async(ctx, struct{}{}, func(ctx context.Context, _ struct{}) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	go func() {
		defer r.wg.Done()
		if _, err := f.Await(); err != nil {
			r.report(ctx, task, err)
		}
	}()
	return f
}

func (r *Runner) report(ctx context.Context, task string, err error) {
	r.logger.LogAttrs(ctx, slog.LevelWarn, "background task failed",
		slog.String("task", task),
		logger.Error(err),
	)
	select {
	case r.errs <- TaskError{Task: task, Err: err}:
	default:
	}
}

// Errors exposes failed tasks.
func (r *Runner) Errors() <-chan TaskError {
	return r.errs
}

// Wait blocks until every task started so far has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// WaitTimeout is like Wait but returns ErrTimeout once d has passed. Tasks
// still running keep running. A non-positive d waits without a bound.
func (r *Runner) WaitTimeout(d time.Duration) error {
	if d <= 0 {
		r.Wait()
		return nil
	}
	f := Async(context.Background(), struct{}{}, func(context.Context, struct{}) (struct{}, error) {
		r.wg.Wait()
		return struct{}{}, nil
	})
	_, err := f.AwaitWithTimeout(d)
	return err
}
