package storage

import (
	"context"
	"strings"

	"github.com/horcrux-nas/horcruxd/internal/horcruxerr"
	"github.com/horcrux-nas/horcruxd/internal/tasks"
)

// CLISmartProbe runs smartctl health checks against block devices.
type CLISmartProbe struct{}

// NewCLISmartProbe returns a CLISmartProbe.
func NewCLISmartProbe() *CLISmartProbe { return &CLISmartProbe{} }

// CheckHealth runs `smartctl -H <device>`; the device is healthy iff the
// output contains "PASSED" or "OK". smartctl's own exit code is not
// trusted here (it encodes a bitmask of unrelated conditions), only the
// textual health verdict is.
func (p *CLISmartProbe) CheckHealth(ctx context.Context, device string) (tasks.SmartCheckResult, error) {
	stdout, stderr, err := runCommand(ctx, "smartctl", "-H", device)
	if err != nil && stdout == "" {
		return tasks.SmartCheckResult{}, horcruxerr.InternalErr("smartctl -H %s: %v: %s", device, err, stderr)
	}

	healthy := strings.Contains(stdout, "PASSED") || strings.Contains(stdout, "OK")
	return tasks.SmartCheckResult{Healthy: healthy, Output: stdout}, nil
}
