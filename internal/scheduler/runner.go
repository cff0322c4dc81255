package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/horcrux-nas/horcruxd/internal/horcruxerr"
)

// defaultJobTimeout applies when a Job doesn't specify TimeoutSecs.
const defaultJobTimeout = 5 * time.Minute

// Handler performs the work for a single job execution. It must honor ctx's
// deadline: the Runner cancels ctx when the job's timeout elapses and
// expects the handler (or whatever child process it starts) to stop
// promptly rather than run to completion regardless.
type Handler func(ctx context.Context, job *Job) (output string, err error)

// Persister saves job state. Runner calls Save after every execution so a
// job's LastRun/LastStatus/NextRun survive a restart; a nil Persister
// (the default) means in-memory only.
type Persister interface {
	Save(*Job) error
}

// Runner executes one job at a time on the caller's goroutine, enforcing
// the running-set guard, timeout, retry, and history/telemetry bookkeeping
// that every trigger path (schedule tick, manual run, startup, retry) shares.
type Runner struct {
	store     *Store
	history   *History
	handler   Handler
	logger    *slog.Logger
	persister Persister
}

// NewRunner builds a Runner around the given store, history, and task
// dispatcher.
func NewRunner(store *Store, history *History, handler Handler, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{store: store, history: history, handler: handler, logger: logger}
}

// SetPersister attaches a Persister that every subsequent execution's
// outcome is saved through, in addition to the in-memory Store.
func (r *Runner) SetPersister(p Persister) {
	r.persister = p
}

// Run executes job once under trigger, honoring the running-set guard, then
// retries on Failed/Timeout up to job.MaxRetries additional attempts. It
// never returns an error for a failed job execution — the outcome is
// recorded in history and on the job itself; Run only returns an error if
// the job could not be found or was already running.
func (r *Runner) Run(ctx context.Context, jobID string, trigger JobTrigger) error {
	job, err := r.store.Get(jobID)
	if err != nil {
		return err
	}

	if !r.store.TryMarkRunning(jobID) {
		r.history.Append(Execution{
			ID:        uuid.NewString(),
			JobID:     job.ID,
			JobName:   job.Name,
			JobType:   job.Type,
			Target:    job.Target,
			Trigger:   trigger,
			Status:    StatusSkipped,
			StartedAt: time.Now().UTC(),
			Error:     "job already running",
		})
		return horcruxerr.ConflictErr("job %q is already running", jobID)
	}
	defer r.store.ClearRunning(jobID)

	maxAttempts := job.MaxRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var last Execution
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		trig := trigger
		if attempt > 1 {
			trig = TriggerRetry
		}
		last = r.execute(ctx, job, trig, attempt)
		if last.Status == StatusSuccess {
			break
		}
		if last.Status != StatusFailed && last.Status != StatusTimeout {
			break
		}
	}

	if err := r.store.RecordOutcome(job.ID, last.Status, last.StartedAt, last.DurationMs, last.Error); err != nil {
		return err
	}

	if r.persister != nil {
		if updated, gerr := r.store.Get(job.ID); gerr == nil {
			if perr := r.persister.Save(updated); perr != nil {
				r.logger.Warn("failed to persist job outcome", "job_id", job.ID, "error", perr)
			}
		}
	}
	return nil
}

// execute runs a single attempt, applying the timeout and panic recovery,
// and appends the resulting Execution to history.
func (r *Runner) execute(ctx context.Context, job *Job, trigger JobTrigger, attempt int) (result Execution) {
	timeout := time.Duration(job.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = defaultJobTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	execID := uuid.NewString()
	startedAt := time.Now().UTC()

	result = Execution{
		ID:        execID,
		JobID:     job.ID,
		JobName:   job.Name,
		JobType:   job.Type,
		Target:    job.Target,
		Trigger:   trigger,
		Status:    StatusRunning,
		StartedAt: startedAt,
		Attempt:   attempt,
	}

	output, err := r.runHandlerSafely(runCtx, job)

	finishedAt := time.Now().UTC()
	result.FinishedAt = &finishedAt
	result.DurationMs = finishedAt.Sub(startedAt).Milliseconds()
	result.Output = output

	switch {
	case runCtx.Err() == context.DeadlineExceeded:
		result.Status = StatusTimeout
		result.Error = fmt.Sprintf("job exceeded timeout of %s", timeout)
	case err != nil:
		result.Status = StatusFailed
		result.Error = err.Error()
	default:
		result.Status = StatusSuccess
	}

	r.logger.Info("job execution finished",
		"job_id", job.ID, "job_type", job.Type, "trigger", trigger,
		"attempt", attempt, "status", result.Status, "duration_ms", result.DurationMs)

	r.history.Append(result)
	return result
}

// runHandlerSafely calls the handler, converting a panic into an error so
// one broken handler can't take down the scheduler loop.
func (r *Runner) runHandlerSafely(ctx context.Context, job *Job) (output string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("job handler panicked", "job_id", job.ID, "panic", rec)
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return r.handler(ctx, job)
}
