package storage

import "context"

// CLIServiceProbe checks daemon liveness by process name via pgrep.
type CLIServiceProbe struct{}

// NewCLIServiceProbe returns a CLIServiceProbe.
func NewCLIServiceProbe() *CLIServiceProbe { return &CLIServiceProbe{} }

// IsRunning reports whether at least one process named service is alive.
// pgrep's exit code alone distinguishes the cases: 0 means a match was
// found, 1 means none was, anything else means pgrep itself failed — in
// which case we conservatively report not running rather than erroring,
// since HealthCheck treats this as a best-effort probe.
func (p *CLIServiceProbe) IsRunning(ctx context.Context, service string) bool {
	_, _, err := runCommand(ctx, "pgrep", service)
	return err == nil
}
