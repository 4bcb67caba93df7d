// internal/app/system/tasks/runner.go
package tasks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrUnknownJob is returned by RunOnce for a name that was never registered.
var ErrUnknownJob = errors.New("unknown job")

// Job is a recurring background task.
type Job struct {
	Name     string
	Interval time.Duration
	// Timeout bounds a single run. Zero means the run only ends when the
	// runner stops.
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// Runner executes registered jobs on their intervals.
type Runner struct {
	logger  *zap.Logger
	jobs    []Job
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	running atomic.Int32
	active  sync.Map // job name -> struct{}
}

// New creates a task runner.
func New(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger}
}

// Register adds a job. Call before Start.
func (r *Runner) Register(job Job) {
	r.jobs = append(r.jobs, job)
}

// Start launches one goroutine per job. Each job runs once immediately and
// then on every tick of its interval.
func (r *Runner) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	for _, job := range r.jobs {
		r.wg.Add(1)
		go r.loop(ctx, job)
	}

	r.logger.Info("background task runner started",
		zap.Int("job_count", len(r.jobs)))
}

// Stop cancels all jobs and waits for them until ctx is done. It returns
// ctx.Err() if some job is still running at the deadline.
func (r *Runner) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("background task runner stopped gracefully")
		return nil
	case <-ctx.Done():
		var still []string
		r.active.Range(func(key, _ any) bool {
			still = append(still, key.(string))
			return true
		})
		r.logger.Warn("background task runner shutdown timed out",
			zap.Strings("jobs_still_running", still),
			zap.Int32("running_count", r.running.Load()))
		return ctx.Err()
	}
}

// RunOnce executes the named job immediately, outside the schedule.
func (r *Runner) RunOnce(ctx context.Context, name string) error {
	for _, job := range r.jobs {
		if job.Name == name {
			return r.execute(ctx, job)
		}
	}
	return ErrUnknownJob
}

func (r *Runner) loop(ctx context.Context, job Job) {
	defer r.wg.Done()

	r.execute(ctx, job)

	interval := job.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("job stopped", zap.String("job", job.Name))
			return
		case <-ticker.C:
			r.execute(ctx, job)
		}
	}
}

func (r *Runner) execute(ctx context.Context, job Job) error {
	r.running.Add(1)
	r.active.Store(job.Name, struct{}{})
	defer func() {
		r.running.Add(-1)
		r.active.Delete(job.Name)
	}()

	runCtx := ctx
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := job.Run(runCtx)
	switch {
	case err == nil:
		r.logger.Debug("job completed",
			zap.String("job", job.Name),
			zap.Duration("duration", time.Since(start)))
	case ctx.Err() != nil:
		// Shutdown in progress; not a failure.
		r.logger.Debug("job cancelled during shutdown",
			zap.String("job", job.Name),
			zap.Duration("duration", time.Since(start)))
	default:
		r.logger.Error("job failed",
			zap.String("job", job.Name),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
	}
	return err
}
