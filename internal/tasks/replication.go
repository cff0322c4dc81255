package tasks

import (
	"context"
	"fmt"

	"github.com/horcrux-nas/horcruxd/internal/horcruxerr"
	"github.com/horcrux-nas/horcruxd/internal/scheduler"
)

// runReplication implements Replication: builds a push/SSH replication
// task descriptor from params and hands it to the replication subsystem.
func runReplication(ctx context.Context, deps *Deps, job *scheduler.Job) (map[string]any, error) {
	if deps.Replication == nil {
		return nil, horcruxerr.InternalErr("replication job %q: no replication service configured", job.ID)
	}

	source := job.ParamString("source", job.Target)
	targetHost := job.ParamString("target_host", "localhost")
	targetDataset := job.ParamString("target_dataset", source)

	task := ReplicationTask{
		ID:             job.ID,
		Name:           job.Name,
		SourceDataset:  source,
		TargetHost:     targetHost,
		TargetDataset:  targetDataset,
		Recursive:      job.ParamBool("recursive", true),
		Compression:    job.ParamString("compression", ""),
		BandwidthLimit: job.ParamInt("bandwidth_limit", 0),
	}

	if err := deps.Replication.Run(ctx, task); err != nil {
		return nil, horcruxerr.InternalErr("replicate %s to %s:%s: %v", source, targetHost, targetDataset, err)
	}

	return map[string]any{
		"task_id": task.ID,
		"source":  source,
		"target":  fmt.Sprintf("%s:%s", targetHost, targetDataset),
	}, nil
}
