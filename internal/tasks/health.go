package tasks

import (
	"context"
	"fmt"

	"github.com/horcrux-nas/horcruxd/internal/scheduler"
)

// monitoredServices is the fixed set of daemons HealthCheck probes.
var monitoredServices = []string{"smb", "nfs", "ftp", "minio", "tgtd"}

// runHealthCheck implements HealthCheck: queries liveness of the monitored
// daemon set and, when a pool backend is configured, enumerates pools. It
// takes no params.
func runHealthCheck(ctx context.Context, deps *Deps, job *scheduler.Job) (map[string]any, error) {
	results := make(map[string]any, len(monitoredServices))

	if deps.Services != nil {
		for _, svc := range monitoredServices {
			results[svc] = map[string]any{"running": deps.Services.IsRunning(ctx, svc)}
		}
	}

	if deps.Pools != nil {
		pools, err := deps.Pools.ListPools(ctx)
		if err == nil {
			for _, p := range pools {
				results[fmt.Sprintf("pool_%s", p.Name)] = map[string]any{
					"status": p.Status,
					"health": p.Health,
				}
			}
		}
	}

	return results, nil
}
