package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// waitForCondition polls cond for up to a second, failing the test if it
// never becomes true. Dispatch is asynchronous (see Scheduler.dispatchDue),
// so tests observing its effect must poll rather than assert immediately.
func waitForCondition(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	if !cond() {
		t.Fatal("condition not met within timeout")
	}
}

func countingHandler(calls *int64) Handler {
	return func(ctx context.Context, job *Job) (string, error) {
		atomic.AddInt64(calls, 1)
		return "ok", nil
	}
}

func blockingHandler(release <-chan struct{}) Handler {
	return func(ctx context.Context, job *Job) (string, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return "", nil
	}
}

// TestSchedulerDispatchesDueJob covers an hourly snapshot job firing on its
// tick: a job whose schedule matches "now" must be dispatched and recorded
// as a successful execution.
func TestSchedulerDispatchesDueJob(t *testing.T) {
	var calls int64
	sch := New(countingHandler(&calls), 100, nil)

	j, err := sch.AddJob(&Job{Name: "hourly snapshot", Type: JobSnapshot, Schedule: mustSchedule(t, "0 * * * *"), Enabled: true})
	if err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	sch.dispatchDue(context.Background(), time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))

	waitForCondition(t, func() bool { return atomic.LoadInt64(&calls) == 1 })

	got, err := sch.Store.Get(j.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	waitForCondition(t, func() bool { return got.LastStatus == StatusSuccess })
	if got.LastStatus != StatusSuccess {
		t.Errorf("LastStatus = %v, want Success", got.LastStatus)
	}
}

// TestSchedulerSuppressesDuplicateRun covers a job already running being
// skipped rather than dispatched a second time concurrently (single-instance
// enforcement via the running-set).
func TestSchedulerSuppressesDuplicateRun(t *testing.T) {
	release := make(chan struct{})
	sch := New(blockingHandler(release), 100, nil)

	j, _ := sch.AddJob(&Job{Name: "slow", Type: JobScrub, Schedule: mustSchedule(t, "0 * * * *"), Enabled: true})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = sch.RunNow(context.Background(), j.ID)
	}()

	// Give the first run a moment to claim the running-set.
	for i := 0; i < 100 && !sch.Store.IsRunning(j.ID); i++ {
		time.Sleep(time.Millisecond)
	}
	if !sch.Store.IsRunning(j.ID) {
		t.Fatal("expected job to be marked running")
	}

	err := sch.RunNow(context.Background(), j.ID)
	if err == nil {
		t.Fatal("expected second concurrent run to be rejected")
	}

	close(release)
	wg.Wait()

	entries := sch.History.ListForJob(j.ID, 0)
	var sawSkipped bool
	for _, e := range entries {
		if e.Status == StatusSkipped {
			sawSkipped = true
		}
	}
	if !sawSkipped {
		t.Error("expected a Skipped execution recorded for the suppressed run")
	}
}

// TestSchedulerStartupCatchUp covers RunOnStartup jobs firing once during
// Start, ahead of any tick.
func TestSchedulerStartupCatchUp(t *testing.T) {
	var calls int64
	sch := New(countingHandler(&calls), 100, nil)

	_, err := sch.AddJob(&Job{Name: "startup job", Type: JobHealthCheck, RunOnStartup: true, Enabled: true})
	if err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := sch.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer sch.Stop(time.Second)

	if atomic.LoadInt64(&calls) != 1 {
		t.Fatalf("expected startup job to run once, got %d calls", calls)
	}
}

func TestSchedulerStartTwiceIsConflict(t *testing.T) {
	sch := New(countingHandler(new(int64)), 10, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sch.Start(ctx); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer sch.Stop(time.Second)

	if err := sch.Start(ctx); err == nil {
		t.Fatal("expected second Start to fail with Conflict")
	}
}

func TestSchedulerStopBeforeStartIsConflict(t *testing.T) {
	sch := New(countingHandler(new(int64)), 10, nil)
	if err := sch.Stop(time.Second); err == nil {
		t.Fatal("expected Stop before Start to fail with Conflict")
	}
}
