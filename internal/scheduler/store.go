package scheduler

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/horcrux-nas/horcruxd/internal/horcruxerr"
)

// Store holds the in-memory set of jobs plus the running-set that enforces
// single-instance execution per job. It has no opinion on persistence —
// SQLitePersister (sqlite_store.go) is what loads/saves it across restarts.
type Store struct {
	mu      sync.RWMutex
	jobs    map[string]*Job
	running map[string]struct{}
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		jobs:    make(map[string]*Job),
		running: make(map[string]struct{}),
	}
}

// LoadPersisted replaces the store's contents with jobs loaded from
// persistence, recomputing NextRun for each against now rather than trusting
// whatever was last saved (the appliance may have been powered off past
// several scheduled fire times).
func (s *Store) LoadPersisted(jobs []*Job, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs = make(map[string]*Job, len(jobs))
	for _, j := range jobs {
		s.recomputeNextRun(j, now)
		s.jobs[j.ID] = j
	}
}

// Add inserts a new job, assigning it an ID if it doesn't already have one,
// and computes its initial NextRun from its schedule.
func (s *Store) Add(j *Job) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	if _, exists := s.jobs[j.ID]; exists {
		return nil, horcruxerr.ConflictErr("job %q already exists", j.ID)
	}

	now := time.Now().UTC()
	j.CreatedAt = now
	j.ModifiedAt = now
	if j.LastStatus == "" {
		j.LastStatus = StatusPending
	}
	s.recomputeNextRun(j, now)

	s.jobs[j.ID] = j
	return j, nil
}

// Remove deletes a job. A job currently running cannot be removed — the
// caller should wait for it to finish or accept the Conflict and retry.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return horcruxerr.NotFoundErr("job %q not found", id)
	}
	if _, running := s.running[id]; running {
		return horcruxerr.ConflictErr("job %q is currently running", id)
	}
	delete(s.jobs, id)
	return nil
}

// Update replaces a job's mutable fields in place, preserving its ID,
// CreatedAt, and run history, and recomputes NextRun against the new
// schedule.
func (s *Store) Update(id string, mutate func(*Job)) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, horcruxerr.NotFoundErr("job %q not found", id)
	}

	mutate(j)
	j.ID = id
	j.ModifiedAt = time.Now().UTC()
	s.recomputeNextRun(j, j.ModifiedAt)
	return j, nil
}

// Get returns a copy-free pointer to the job; callers must not mutate it
// outside of Update.
func (s *Store) Get(id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, horcruxerr.NotFoundErr("job %q not found", id)
	}
	return j, nil
}

// List returns every job, in no particular order.
func (s *Store) List() []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	return out
}

// ListByType returns every job of the given type.
func (s *Store) ListByType(t JobType) []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Job
	for _, j := range s.jobs {
		if j.Type == t {
			out = append(out, j)
		}
	}
	return out
}

// SetEnabled flips a job's Enabled flag.
func (s *Store) SetEnabled(id string, enabled bool) error {
	_, err := s.Update(id, func(j *Job) { j.Enabled = enabled })
	return err
}

// DueJobs returns every enabled, non-running job whose schedule matches t,
// ordered by ascending Priority value (lower dispatches first) and then
// ascending ID for a stable
// dispatch order among same-priority jobs.
func (s *Store) DueJobs(t time.Time) []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []*Job
	for _, j := range s.jobs {
		if !j.Enabled || j.Schedule == nil {
			continue
		}
		if _, running := s.running[j.ID]; running {
			continue
		}
		if j.Schedule.Matches(t) {
			due = append(due, j)
		}
	}
	sortByPriorityThenID(due)
	return due
}

// StartupJobs returns every enabled job with RunOnStartup set.
func (s *Store) StartupJobs() []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Job
	for _, j := range s.jobs {
		if j.Enabled && j.RunOnStartup {
			out = append(out, j)
		}
	}
	sortByPriorityThenID(out)
	return out
}

// TryMarkRunning atomically checks and sets the running-set entry for id,
// returning false if it was already running. This is the single-instance
// enforcement point: exactly one of the Runner's concurrent dispatches can
// win this for a given job ID.
func (s *Store) TryMarkRunning(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, running := s.running[id]; running {
		return false
	}
	s.running[id] = struct{}{}
	return true
}

// ClearRunning removes id from the running-set.
func (s *Store) ClearRunning(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, id)
}

// IsRunning reports whether id is currently in the running-set.
func (s *Store) IsRunning(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, running := s.running[id]
	return running
}

// RunningJobs returns the IDs currently in the running-set.
func (s *Store) RunningJobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.running))
	for id := range s.running {
		out = append(out, id)
	}
	return out
}

// RecordOutcome updates a job's run telemetry after an execution completes.
// Called with the store lock free — it takes its own.
func (s *Store) RecordOutcome(id string, status JobStatus, startedAt time.Time, durationMs int64, errMsg string) error {
	_, err := s.Update(id, func(j *Job) {
		j.LastRun = &startedAt
		j.LastStatus = status
		j.LastDurationMs = durationMs
		j.LastError = errMsg
	})
	return err
}

// recomputeNextRun refreshes j.NextRun from its schedule relative to from.
// Must be called with s.mu held.
func (s *Store) recomputeNextRun(j *Job, from time.Time) {
	if j.Schedule == nil || !j.Enabled {
		j.NextRun = nil
		return
	}
	next, ok := j.Schedule.NextFireAfter(from)
	if !ok {
		j.NextRun = nil
		return
	}
	j.NextRun = &next
}

// sortByPriorityThenID performs an in-place insertion sort by ascending
// Priority (lower value = higher priority), then ascending ID. Job lists are
// small enough (scheduled jobs on one appliance, not a multi-tenant queue)
// that this is clearer than pulling in sort for a handful of elements.
func sortByPriorityThenID(jobs []*Job) {
	for i := 1; i < len(jobs); i++ {
		for k := i; k > 0 && less(jobs[k], jobs[k-1]); k-- {
			jobs[k], jobs[k-1] = jobs[k-1], jobs[k]
		}
	}
}

func less(a, b *Job) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	return a.ID < b.ID
}
