// Package tasks implements the per-job-type handlers dispatched by the
// scheduler. Handlers never reach for globals: every external subsystem
// they touch arrives as a narrow interface injected at construction, so a
// handler can be tested against a fake without a real pool, quota store, or
// daemon running.
package tasks

import "context"

// SnapshotCreateResult reports the outcome of creating one or more
// snapshots (recursive creation may partially fail across child datasets).
type SnapshotCreateResult struct {
	Created int
	Errors  int
}

// SnapshotInfo describes one existing snapshot for retention evaluation.
type SnapshotInfo struct {
	Name      string
	Dataset   string
	CreatedAt string // RFC3339; string rather than time.Time to mirror what a CLI parser naturally produces
	Held      bool
	Manual    bool
}

// RetentionPolicy mirrors the scheduler's RetentionCleanup params.
type RetentionPolicy struct {
	KeepHourly  int
	KeepDaily   int
	KeepWeekly  int
	KeepMonthly int
	KeepYearly  int
	MaxAgeDays  int
}

// RetentionResult reports how many snapshots were removed.
type RetentionResult struct {
	Deleted int
	Errors  int
}

// SnapshotService is the narrow surface the Snapshot and RetentionCleanup
// handlers depend on.
type SnapshotService interface {
	CreateSnapshot(ctx context.Context, dataset, name string, recursive bool) (SnapshotCreateResult, error)
	ListSnapshots(ctx context.Context, dataset string) ([]SnapshotInfo, error)
	DeleteSnapshot(ctx context.Context, dataset, name string) error
}

// ReplicationTask describes one push-replication run.
type ReplicationTask struct {
	ID             string
	Name           string
	SourceDataset  string
	TargetHost     string
	TargetDataset  string
	Recursive      bool
	Compression    string
	BandwidthLimit int
}

// ReplicationService is the narrow surface the Replication handler depends
// on.
type ReplicationService interface {
	Run(ctx context.Context, task ReplicationTask) error
}

// QuotaUsage describes one quota-tracked object's consumption.
type QuotaUsage struct {
	Target     string
	SpaceUsed  int64
	QuotaBytes int64
}

// QuotaService is the narrow surface the QuotaCheck handler depends on.
type QuotaService interface {
	ListQuotaUsage(ctx context.Context, target string) ([]QuotaUsage, error)
}

// ServiceProbe is the narrow surface the HealthCheck handler depends on for
// daemon liveness.
type ServiceProbe interface {
	IsRunning(ctx context.Context, service string) bool
}

// PoolInfo describes one storage pool's reported state.
type PoolInfo struct {
	Name   string
	Status string
	Health string
}

// PoolService is the narrow surface the HealthCheck handler depends on for
// pool enumeration. A nil PoolService means pool reporting is disabled
// (e.g. a backend with no pool concept); HealthCheck skips it rather than
// failing.
type PoolService interface {
	ListPools(ctx context.Context) ([]PoolInfo, error)
}

// ScrubService is the narrow surface the Scrub handler depends on.
type ScrubService interface {
	Scrub(ctx context.Context, pool string) error
}

// SmartCheckResult is the outcome of a device health probe.
type SmartCheckResult struct {
	Healthy bool
	Output  string
}

// SmartProbe is the narrow surface the SmartCheck handler depends on.
type SmartProbe interface {
	CheckHealth(ctx context.Context, device string) (SmartCheckResult, error)
}

// ScriptRunner is the narrow surface the Custom handler depends on for
// shelling out.
type ScriptRunner interface {
	Run(ctx context.Context, script string, env map[string]string) (exitCode int, stdout string, stderr string, err error)
}

// Deps bundles every dependency the handler set needs. Any field may be nil
// if the corresponding job type is never scheduled on a given deployment —
// the handler for that type returns an Internal error explaining which
// service is missing rather than panicking on a nil interface. HealthCheck
// is the exception: it skips a nil Services or Pools without an error.
type Deps struct {
	Snapshots    SnapshotService
	Replication  ReplicationService
	Quotas       QuotaService
	Services     ServiceProbe
	Pools        PoolService
	Scrub        ScrubService
	Smart        SmartProbe
	Scripts      ScriptRunner
}
