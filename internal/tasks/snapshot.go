package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/horcrux-nas/horcruxd/internal/horcruxerr"
	"github.com/horcrux-nas/horcruxd/internal/scheduler"
)

// runSnapshot implements the Snapshot job type: params prefix (default
// "auto") and recursive (default true). The snapshot name embeds the
// scheduler-start UTC timestamp, matching the target@prefix_timestamp
// convention the storage subsystem expects.
func runSnapshot(ctx context.Context, deps *Deps, job *scheduler.Job) (map[string]any, error) {
	if deps.Snapshots == nil {
		return nil, horcruxerr.InternalErr("snapshot job %q: no snapshot service configured", job.ID)
	}

	prefix := job.ParamString("prefix", "auto")
	recursive := job.ParamBool("recursive", true)
	stamp := time.Now().UTC().Format("2006-01-02_15-04-05")
	name := fmt.Sprintf("%s_%s", prefix, stamp)

	result, err := deps.Snapshots.CreateSnapshot(ctx, job.Target, name, recursive)
	if err != nil {
		return nil, horcruxerr.InternalErr("create snapshot %s@%s: %v", job.Target, name, err)
	}

	return map[string]any{
		"snapshot": fmt.Sprintf("%s@%s", job.Target, name),
		"created":  result.Created,
		"errors":   result.Errors,
	}, nil
}
