package tasks

import (
	"context"

	"github.com/horcrux-nas/horcruxd/internal/horcruxerr"
	"github.com/horcrux-nas/horcruxd/internal/scheduler"
)

// runQuotaCheck implements QuotaCheck: params threshold (percent, default
// 90). Counts usages at or above the threshold.
func runQuotaCheck(ctx context.Context, deps *Deps, job *scheduler.Job) (map[string]any, error) {
	if deps.Quotas == nil {
		return nil, horcruxerr.InternalErr("quota check job %q: no quota service configured", job.ID)
	}

	threshold := job.ParamInt("threshold", 90)

	usages, err := deps.Quotas.ListQuotaUsage(ctx, job.Target)
	if err != nil {
		return nil, horcruxerr.InternalErr("list quota usage for %s: %v", job.Target, err)
	}

	violations := 0
	for _, u := range usages {
		if u.QuotaBytes <= 0 {
			continue
		}
		percent := float64(u.SpaceUsed) / float64(u.QuotaBytes) * 100
		if percent >= float64(threshold) {
			violations++
		}
	}

	return map[string]any{
		"checked":          len(usages),
		"violations":       violations,
		"threshold_percent": threshold,
	}, nil
}
