package tasks

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/horcrux-nas/horcruxd/internal/horcruxerr"
	"github.com/horcrux-nas/horcruxd/internal/scheduler"
)

// handlerFunc is what each per-job-type file implements: read job.Params,
// do the work through deps, return a structured result (or nil for none).
type handlerFunc func(ctx context.Context, deps *Deps, job *scheduler.Job) (map[string]any, error)

// handlers is the closed dispatch table — one entry per scheduler.JobType.
// Adding a job type means adding both a scheduler.JobType constant and an
// entry here; there is no dynamic registration.
var handlers = map[scheduler.JobType]handlerFunc{
	scheduler.JobSnapshot:         runSnapshot,
	scheduler.JobRetentionCleanup: runRetention,
	scheduler.JobReplication:      runReplication,
	scheduler.JobScrub:            runScrub,
	scheduler.JobQuotaCheck:       runQuotaCheck,
	scheduler.JobHealthCheck:      runHealthCheck,
	scheduler.JobSmartCheck:       runSmartCheck,
	scheduler.JobCustom:           runCustom,
}

// JobResilver and JobS3Cleanup deliberately have no entry: there is no
// handler for either in the task-dispatch table they were ported from, which
// falls through to its unsupported-type warning-and-no-op path for both. Any
// job of either type dispatches through that same path below.

// Dispatch builds a scheduler.Handler that routes each job to its
// type-specific handler via the table above. A job type with no handler
// logs a warning and reports a Success execution with no output, per the
// scheduler's documented handling of unsupported types.
func Dispatch(deps *Deps, logger *slog.Logger) scheduler.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, job *scheduler.Job) (string, error) {
		h, ok := handlers[job.Type]
		if !ok {
			logger.Warn("no handler registered for job type", "job_type", job.Type, "job_id", job.ID)
			return "", nil
		}

		out, err := h(ctx, deps, job)
		if err != nil {
			return "", err
		}
		if out == nil {
			return "", nil
		}

		encoded, merr := json.Marshal(out)
		if merr != nil {
			return "", horcruxerr.InternalErr("encode output for job %q: %v", job.ID, merr)
		}
		return string(encoded), nil
	}
}
