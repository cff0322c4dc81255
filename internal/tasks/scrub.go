package tasks

import (
	"context"

	"github.com/horcrux-nas/horcruxd/internal/horcruxerr"
	"github.com/horcrux-nas/horcruxd/internal/scheduler"
)

// runScrub implements Scrub: invokes the pool-scrub administrative command for
// job.Target, surfacing a non-zero exit as Internal with captured stderr.
func runScrub(ctx context.Context, deps *Deps, job *scheduler.Job) (map[string]any, error) {
	if deps.Scrub == nil {
		return nil, horcruxerr.InternalErr("scrub job %q: no scrub service configured", job.ID)
	}

	if err := deps.Scrub.Scrub(ctx, job.Target); err != nil {
		return nil, horcruxerr.InternalErr("scrub %s: %v", job.Target, err)
	}

	return map[string]any{
		"pool":   job.Target,
		"status": "started",
	}, nil
}
