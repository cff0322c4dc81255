package tasks

import (
	"context"

	"github.com/horcrux-nas/horcruxd/internal/horcruxerr"
	"github.com/horcrux-nas/horcruxd/internal/scheduler"
)

// runCustom implements Custom: params script (required), executed via a
// POSIX shell with HORCRUX_JOB_ID/HORCRUX_JOB_NAME/HORCRUX_JOB_TARGET set
// in the child environment.
func runCustom(ctx context.Context, deps *Deps, job *scheduler.Job) (map[string]any, error) {
	if deps.Scripts == nil {
		return nil, horcruxerr.InternalErr("custom job %q: no script runner configured", job.ID)
	}

	script := job.ParamString("script", "")
	if script == "" {
		return nil, horcruxerr.ValidationErr("custom job %q requires a 'script' parameter", job.ID)
	}

	env := map[string]string{
		"HORCRUX_JOB_ID":     job.ID,
		"HORCRUX_JOB_NAME":   job.Name,
		"HORCRUX_JOB_TARGET": job.Target,
	}

	exitCode, stdout, stderr, err := deps.Scripts.Run(ctx, script, env)
	if err != nil {
		return nil, horcruxerr.InternalErr("run custom script for job %q: %v", job.ID, err)
	}
	if exitCode != 0 {
		return nil, horcruxerr.InternalErr("custom script for job %q exited %d: %s", job.ID, exitCode, stderr)
	}

	return map[string]any{
		"exit_code": exitCode,
		"stdout":    stdout,
	}, nil
}
