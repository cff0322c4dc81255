package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/horcrux-nas/horcruxd/internal/horcruxerr"
)

// tickInterval is how often the scheduler loop checks for due jobs. Cron
// resolution is one minute, so a 60s tick is sufficient and matches typical
// cron daemon behavior.
const tickInterval = 60 * time.Second

type runState int

const (
	stateStopped runState = iota
	stateRunning
)

// Scheduler owns the job store, execution history, and the ticking loop
// that dispatches due jobs to a Runner. Starting it twice, or stopping it
// before it's started, is a Conflict error rather than a panic.
type Scheduler struct {
	Store     *Store
	History   *History
	runner    *Runner
	logger    *slog.Logger
	persister Persister

	mu    sync.Mutex
	state runState
	stop  context.CancelFunc
	done  chan struct{}
}

// New builds a Scheduler around a fresh Store and History, dispatching due
// jobs through handler.
func New(handler Handler, maxHistory int, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	store := NewStore()
	history := NewHistory(maxHistory)
	return &Scheduler{
		Store:   store,
		History: history,
		runner:  NewRunner(store, history, handler, logger),
		logger:  logger,
	}
}

// Start runs the startup catch-up pass (every enabled RunOnStartup job,
// once, synchronously) and then launches the ticking loop in a background
// goroutine. Starting an already-running Scheduler is a Conflict.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state == stateRunning {
		s.mu.Unlock()
		return horcruxerr.ConflictErr("scheduler is already running")
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.stop = cancel
	s.done = make(chan struct{})
	s.state = stateRunning
	s.mu.Unlock()

	s.runStartupJobs(loopCtx)

	go s.loop(loopCtx)
	return nil
}

// Stop signals the ticking loop to exit and waits up to timeout for it to
// do so. Stop neither waits for nor cancels any job currently executing —
// an in-flight scheduled job keeps running to completion (or its own job
// timeout) on the goroutine dispatchDue started for it; Stop only
// guarantees no new tick will be dispatched after it returns (or the
// timeout elapses, whichever first). Callers that need a fully quiesced
// scheduler should check Store.RunningJobs() after Stop returns.
func (s *Scheduler) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if s.state != stateRunning {
		s.mu.Unlock()
		return horcruxerr.ConflictErr("scheduler is not running")
	}
	cancel := s.stop
	done := s.done
	s.mu.Unlock()

	cancel()

	select {
	case <-done:
	case <-time.After(timeout):
		s.logger.Warn("scheduler stop timed out waiting for loop to exit", "timeout", timeout)
	}

	s.mu.Lock()
	s.state = stateStopped
	s.mu.Unlock()
	return nil
}

// RunNow triggers job immediately, outside of its schedule, and returns
// once the attempt (and any retries) has completed.
func (s *Scheduler) RunNow(ctx context.Context, jobID string) error {
	return s.runner.Run(ctx, jobID, TriggerManual)
}

// SetPersister wires a Persister into both the scheduler's own job mutation
// paths (AddJob/RemoveJob/UpdateJob) and the Runner's per-execution saves.
func (s *Scheduler) SetPersister(p Persister) {
	s.persister = p
	s.runner.SetPersister(p)
}

// LoadPersisted populates the Store from previously persisted jobs,
// recomputing each job's NextRun against now. Call before Start.
func (s *Scheduler) LoadPersisted(jobs []*Job, now time.Time) {
	s.Store.LoadPersisted(jobs, now)
}

// AddJob adds a job to the Store and, if a Persister is attached, saves it.
func (s *Scheduler) AddJob(j *Job) (*Job, error) {
	added, err := s.Store.Add(j)
	if err != nil {
		return nil, err
	}
	if s.persister != nil {
		if perr := s.persister.Save(added); perr != nil {
			return nil, fmt.Errorf("persist new job %q: %w", added.ID, perr)
		}
	}
	return added, nil
}

// RemoveJob removes a job from the Store and, if a Persister is attached,
// deletes it from persistence.
func (s *Scheduler) RemoveJob(id string) error {
	if err := s.Store.Remove(id); err != nil {
		return err
	}
	if deleter, ok := s.persister.(interface{ Delete(string) error }); ok && deleter != nil {
		if err := deleter.Delete(id); err != nil {
			return fmt.Errorf("delete persisted job %q: %w", id, err)
		}
	}
	return nil
}

// UpdateJob mutates a job in the Store and, if a Persister is attached,
// saves the result.
func (s *Scheduler) UpdateJob(id string, mutate func(*Job)) (*Job, error) {
	updated, err := s.Store.Update(id, mutate)
	if err != nil {
		return nil, err
	}
	if s.persister != nil {
		if perr := s.persister.Save(updated); perr != nil {
			return nil, fmt.Errorf("persist updated job %q: %w", updated.ID, perr)
		}
	}
	return updated, nil
}

func (s *Scheduler) runStartupJobs(ctx context.Context) {
	var wg sync.WaitGroup
	for _, j := range s.Store.StartupJobs() {
		wg.Add(1)
		go func(jobID string) {
			defer wg.Done()
			if err := s.runner.Run(ctx, jobID, TriggerStartup); err != nil {
				s.logger.Warn("startup job dispatch failed", "job_id", jobID, "error", err)
			}
		}(j.ID)
	}
	wg.Wait()
}

// loop ticks every tickInterval, handing every due, non-running job to
// dispatchDue, which starts each on its own goroutine in priority-then-ID
// order. The loop does not wait for those jobs, so a slow job never delays
// another due job in the same tick, and there is no bounded worker pool.
func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.dispatchDue(ctx, now.UTC())
		}
	}
}

// dispatchDue starts one goroutine per due job, in priority-then-ID order,
// so that distinct jobs run concurrently while preserving a deterministic
// start order for same-tick dispatch (see Store.DueJobs). It does not wait
// for the jobs to finish — only for their Run calls to be issued. The jobs
// run under a context detached from the loop's cancellation, so Stop does
// not abort them.
func (s *Scheduler) dispatchDue(ctx context.Context, now time.Time) {
	jobCtx := context.WithoutCancel(ctx)
	for _, j := range s.Store.DueJobs(now) {
		go func(jobID string) {
			if err := s.runner.Run(jobCtx, jobID, TriggerSchedule); err != nil {
				s.logger.Warn("scheduled job dispatch failed", "job_id", jobID, "error", err)
			}
		}(j.ID)
	}
}

// IsRunning reports whether the ticking loop is currently active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateRunning
}
