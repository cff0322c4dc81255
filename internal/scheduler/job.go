// Package scheduler maintains the set of scheduled jobs, runs them on their
// cron schedule, and records what happened. It does not know how to perform
// any particular job — that's internal/tasks — only when to call it.
package scheduler

import (
	"time"

	"github.com/horcrux-nas/horcruxd/internal/cronexpr"
)

// JobType is a closed enumeration of the kinds of work the scheduler can
// dispatch. Adding a new kind means adding a new handler in internal/tasks,
// not extending this set at runtime.
type JobType string

const (
	JobSnapshot         JobType = "snapshot"
	JobRetentionCleanup JobType = "retention_cleanup"
	JobReplication      JobType = "replication"
	JobScrub            JobType = "scrub"
	JobResilver         JobType = "resilver"
	JobQuotaCheck       JobType = "quota_check"
	JobHealthCheck      JobType = "health_check"
	JobS3Cleanup        JobType = "s3_cleanup"
	JobSmartCheck       JobType = "smart_check"
	JobCustom           JobType = "custom"
)

// JobStatus is the outcome recorded for a single execution.
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusSuccess   JobStatus = "success"
	StatusFailed    JobStatus = "failed"
	StatusTimeout   JobStatus = "timeout"
	StatusCancelled JobStatus = "cancelled"
	StatusSkipped   JobStatus = "skipped"
)

// JobTrigger records why an execution happened.
type JobTrigger string

const (
	TriggerSchedule JobTrigger = "schedule"
	TriggerManual   JobTrigger = "manual"
	TriggerStartup  JobTrigger = "startup"
	TriggerRetry    JobTrigger = "retry"
)

// Job is a scheduled unit of work: what to run, on what cron schedule,
// against what target, with what parameters.
type Job struct {
	ID   string
	Name string
	Type JobType

	// Schedule is the parsed cron expression driving Schedule-triggered
	// executions. Startup catch-up runs and manual runs ignore it.
	Schedule *cronexpr.Schedule

	// Target names the dataset, share, pool, or host the job acts on; its
	// meaning is interpreted by the job's handler, not by the scheduler.
	Target string

	// Params carries handler-specific arguments. Use the ParamString/
	// ParamInt/ParamBool helpers to read typed values out of it with
	// defaults, mirroring how the original's serde_json::Value params
	// were read with .as_str()/.as_u64()/.as_bool().
	Params map[string]any

	Enabled      bool
	RunOnStartup bool

	// Priority breaks ties when more than one job is due in the same tick:
	// the lower Priority value runs first, then the lower ID (see
	// Store.DueJobs).
	Priority int

	TimeoutSecs int
	MaxRetries  int

	LastRun         *time.Time
	LastStatus      JobStatus
	LastDurationMs  int64
	LastError       string
	NextRun         *time.Time

	CreatedAt  time.Time
	ModifiedAt time.Time
}

// ParamString reads a string parameter, returning def if absent or of the
// wrong type.
func (j *Job) ParamString(key, def string) string {
	v, ok := j.Params[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}

// ParamInt reads an integer parameter, returning def if absent or of the
// wrong type. Numeric params decoded from JSON arrive as float64; both that
// and native int/int64 are accepted.
func (j *Job) ParamInt(key string, def int) int {
	v, ok := j.Params[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return def
	}
}

// ParamBool reads a boolean parameter, returning def if absent or of the
// wrong type.
func (j *Job) ParamBool(key string, def bool) bool {
	v, ok := j.Params[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// ParamStringSlice reads a []string parameter, returning def if absent or of
// the wrong type. JSON-decoded arrays arrive as []any of strings.
func (j *Job) ParamStringSlice(key string, def []string) []string {
	v, ok := j.Params[key]
	if !ok {
		return def
	}
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			str, ok := e.(string)
			if !ok {
				return def
			}
			out = append(out, str)
		}
		return out
	default:
		return def
	}
}

// Execution is a record of one run of a Job, successful or not. JobName and
// Target are denormalized snapshots of the Job at the moment the run
// started, so history stays meaningful even after the job itself is renamed
// or removed.
type Execution struct {
	ID           string
	JobID        string
	JobName      string
	JobType      JobType
	Target       string
	Trigger      JobTrigger
	Status       JobStatus
	StartedAt    time.Time
	FinishedAt   *time.Time
	DurationMs   int64
	Attempt      int
	Error        string
	Output       string
}
