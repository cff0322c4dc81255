package storage

import (
	"context"
	"strconv"
	"strings"

	"github.com/horcrux-nas/horcruxd/internal/horcruxerr"
	"github.com/horcrux-nas/horcruxd/internal/tasks"
)

// CLIQuotaService reads per-dataset space usage and quota via zfs list.
type CLIQuotaService struct{}

// NewCLIQuotaService returns a CLIQuotaService.
func NewCLIQuotaService() *CLIQuotaService { return &CLIQuotaService{} }

// ListQuotaUsage runs `zfs list -Hp -o name,used,quota -r target` and
// parses the byte-exact (-p) tab-separated output. Datasets with no quota
// set report quota 0, which the QuotaCheck handler treats as "not
// applicable" rather than 0% usage.
func (q *CLIQuotaService) ListQuotaUsage(ctx context.Context, target string) ([]tasks.QuotaUsage, error) {
	stdout, stderr, err := runCommand(ctx, "zfs", "list", "-Hp", "-o", "name,used,quota", "-r", target)
	if err != nil {
		return nil, horcruxerr.InternalErr("zfs list usage under %s: %v: %s", target, err, stderr)
	}

	var usages []tasks.QuotaUsage
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			continue
		}
		used, uerr := strconv.ParseInt(fields[1], 10, 64)
		if uerr != nil {
			continue
		}
		quota, qerr := strconv.ParseInt(fields[2], 10, 64)
		if qerr != nil {
			quota = 0
		}
		usages = append(usages, tasks.QuotaUsage{Target: fields[0], SpaceUsed: used, QuotaBytes: quota})
	}
	return usages, nil
}
