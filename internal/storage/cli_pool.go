package storage

import (
	"context"
	"strings"

	"github.com/horcrux-nas/horcruxd/internal/horcruxerr"
	"github.com/horcrux-nas/horcruxd/internal/tasks"
)

// CLIPoolService enumerates ZFS pools via zpool list.
type CLIPoolService struct{}

// NewCLIPoolService returns a CLIPoolService.
func NewCLIPoolService() *CLIPoolService { return &CLIPoolService{} }

// ListPools runs `zpool list -H -o name,health` and parses the
// tab-separated output into PoolInfo entries. Status is reported equal to
// Health here since zpool list's "health" column is the only status the
// command surface this function relies on provides; a deployment wanting
// richer state (scan progress, error counts) should probe `zpool status`
// separately.
func (p *CLIPoolService) ListPools(ctx context.Context) ([]tasks.PoolInfo, error) {
	stdout, stderr, err := runCommand(ctx, "zpool", "list", "-H", "-o", "name,health")
	if err != nil {
		return nil, horcruxerr.InternalErr("zpool list: %v: %s", err, stderr)
	}

	var pools []tasks.PoolInfo
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}
		pools = append(pools, tasks.PoolInfo{Name: fields[0], Status: fields[1], Health: fields[1]})
	}
	return pools, nil
}
