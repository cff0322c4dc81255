package tasks

import (
	"context"

	"github.com/horcrux-nas/horcruxd/internal/horcruxerr"
	"github.com/horcrux-nas/horcruxd/internal/scheduler"
)

// runSmartCheck implements SmartCheck: runs a smartctl health probe against
// device job.Target; healthy iff the probe's output contains "PASSED" or
// "OK".
func runSmartCheck(ctx context.Context, deps *Deps, job *scheduler.Job) (map[string]any, error) {
	if deps.Smart == nil {
		return nil, horcruxerr.InternalErr("smart check job %q: no smart probe configured", job.ID)
	}

	result, err := deps.Smart.CheckHealth(ctx, job.Target)
	if err != nil {
		return nil, horcruxerr.InternalErr("smartctl probe of %s: %v", job.Target, err)
	}

	return map[string]any{
		"device":  job.Target,
		"healthy": result.Healthy,
		"output":  result.Output,
	}, nil
}
