package scheduler

import (
	"testing"
	"time"

	"github.com/horcrux-nas/horcruxd/internal/cronexpr"
	"github.com/horcrux-nas/horcruxd/internal/horcruxerr"
)

func mustSchedule(t *testing.T, expr string) *cronexpr.Schedule {
	t.Helper()
	s, err := cronexpr.Parse(expr)
	if err != nil {
		t.Fatalf("Parse(%q): %v", expr, err)
	}
	return s
}

func TestStoreAddAssignsIDAndNextRun(t *testing.T) {
	s := NewStore()
	j := &Job{Name: "hourly snapshot", Type: JobSnapshot, Schedule: mustSchedule(t, "0 * * * *"), Enabled: true}

	added, err := s.Add(j)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if added.ID == "" {
		t.Error("expected an ID to be assigned")
	}
	if added.NextRun == nil {
		t.Error("expected NextRun to be computed")
	}
}

func TestStoreRemoveWhileRunningIsConflict(t *testing.T) {
	s := NewStore()
	j, _ := s.Add(&Job{Name: "x", Type: JobScrub})

	if !s.TryMarkRunning(j.ID) {
		t.Fatal("expected to win running-set")
	}
	err := s.Remove(j.ID)
	if kind, ok := horcruxerr.KindOf(err); !ok || kind != horcruxerr.Conflict {
		t.Fatalf("Remove while running: got %v, want Conflict", err)
	}
}

func TestStoreRemoveNotFound(t *testing.T) {
	s := NewStore()
	err := s.Remove("nonexistent")
	if kind, ok := horcruxerr.KindOf(err); !ok || kind != horcruxerr.NotFound {
		t.Fatalf("Remove missing job: got %v, want NotFound", err)
	}
}

func TestStoreTryMarkRunningIsExclusive(t *testing.T) {
	s := NewStore()
	j, _ := s.Add(&Job{Name: "x", Type: JobScrub})

	if !s.TryMarkRunning(j.ID) {
		t.Fatal("first TryMarkRunning should succeed")
	}
	if s.TryMarkRunning(j.ID) {
		t.Fatal("second concurrent TryMarkRunning should fail")
	}
	s.ClearRunning(j.ID)
	if !s.TryMarkRunning(j.ID) {
		t.Fatal("TryMarkRunning should succeed again after ClearRunning")
	}
}

func TestStoreDueJobsExcludesRunningAndDisabled(t *testing.T) {
	s := NewStore()
	due, _ := s.Add(&Job{Name: "due", Type: JobSnapshot, Schedule: mustSchedule(t, "0 * * * *"), Enabled: true})
	running, _ := s.Add(&Job{Name: "running", Type: JobSnapshot, Schedule: mustSchedule(t, "0 * * * *"), Enabled: true})
	disabled, _ := s.Add(&Job{Name: "disabled", Type: JobSnapshot, Schedule: mustSchedule(t, "0 * * * *"), Enabled: false})
	_ = disabled

	s.TryMarkRunning(running.ID)

	jobs := s.DueJobs(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	if len(jobs) != 1 || jobs[0].ID != due.ID {
		t.Fatalf("DueJobs = %v, want only %q", jobs, due.ID)
	}
}

func TestStoreDueJobsPriorityThenIDOrdering(t *testing.T) {
	s := NewStore()
	high, _ := s.Add(&Job{ID: "b", Name: "high", Type: JobSnapshot, Schedule: mustSchedule(t, "0 * * * *"), Enabled: true, Priority: 1})
	low, _ := s.Add(&Job{ID: "a", Name: "low", Type: JobSnapshot, Schedule: mustSchedule(t, "0 * * * *"), Enabled: true, Priority: 10})
	tie, _ := s.Add(&Job{ID: "c", Name: "tie", Type: JobSnapshot, Schedule: mustSchedule(t, "0 * * * *"), Enabled: true, Priority: 1})

	jobs := s.DueJobs(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	if len(jobs) != 3 {
		t.Fatalf("expected 3 due jobs, got %d", len(jobs))
	}
	// high and tie share priority 1 (lower value = higher priority); "b" < "c" lexically.
	if jobs[0].ID != high.ID || jobs[1].ID != tie.ID {
		t.Errorf("expected tie-break by ascending ID among priority-1 jobs, got order %q, %q", jobs[0].ID, jobs[1].ID)
	}
	if jobs[2].ID != low.ID {
		t.Errorf("expected lowest priority (highest value) last, got %q", jobs[2].ID)
	}
}

func TestHistoryBoundedFIFO(t *testing.T) {
	h := NewHistory(3)
	for i := 0; i < 5; i++ {
		h.Append(Execution{ID: string(rune('a' + i)), JobID: "job"})
	}
	all := h.List(0)
	if len(all) != 3 {
		t.Fatalf("expected 3 entries after eviction, got %d", len(all))
	}
	// Newest first: the last 3 appended were c, d, e.
	if all[0].ID != "e" || all[2].ID != "c" {
		t.Errorf("unexpected eviction order: %+v", all)
	}
}
