package tasks

import (
	"context"
	"testing"

	"github.com/horcrux-nas/horcruxd/internal/scheduler"
)

type fakeSnapshotService struct {
	snapshots []SnapshotInfo
	deleted   []string
}

func (f *fakeSnapshotService) CreateSnapshot(ctx context.Context, dataset, name string, recursive bool) (SnapshotCreateResult, error) {
	return SnapshotCreateResult{Created: 1}, nil
}

func (f *fakeSnapshotService) ListSnapshots(ctx context.Context, dataset string) ([]SnapshotInfo, error) {
	return f.snapshots, nil
}

func (f *fakeSnapshotService) DeleteSnapshot(ctx context.Context, dataset, name string) error {
	f.deleted = append(f.deleted, name)
	return nil
}

// TestRetentionDeletesOldest covers S2: four hourly snapshots, keep_hourly=2
// -> the two oldest are deleted, output reports deleted:2, errors:0.
func TestRetentionDeletesOldest(t *testing.T) {
	fake := &fakeSnapshotService{
		snapshots: []SnapshotInfo{
			{Name: "hourly_2024-01-01_00-00-00", Dataset: "tank", CreatedAt: "2024-01-01T00:00:00Z"},
			{Name: "hourly_2024-01-01_01-00-00", Dataset: "tank", CreatedAt: "2024-01-01T01:00:00Z"},
			{Name: "hourly_2024-01-01_02-00-00", Dataset: "tank", CreatedAt: "2024-01-01T02:00:00Z"},
			{Name: "hourly_2024-01-01_03-00-00", Dataset: "tank", CreatedAt: "2024-01-01T03:00:00Z"},
		},
	}
	deps := &Deps{Snapshots: fake}
	job := &scheduler.Job{
		ID:     "retention-job",
		Type:   scheduler.JobRetentionCleanup,
		Target: "tank",
		Params: map[string]any{"keep_hourly": 2},
	}

	out, err := runRetention(context.Background(), deps, job)
	if err != nil {
		t.Fatalf("runRetention: %v", err)
	}
	if out["deleted"] != 2 {
		t.Errorf("deleted = %v, want 2", out["deleted"])
	}
	if out["errors"] != 0 {
		t.Errorf("errors = %v, want 0", out["errors"])
	}
	if len(fake.deleted) != 2 {
		t.Fatalf("expected 2 snapshots deleted, got %v", fake.deleted)
	}
	for _, name := range fake.deleted {
		if name != "hourly_2024-01-01_00-00-00" && name != "hourly_2024-01-01_01-00-00" {
			t.Errorf("unexpected snapshot deleted: %s", name)
		}
	}
}

func TestRetentionProtectsHeldAndManual(t *testing.T) {
	fake := &fakeSnapshotService{
		snapshots: []SnapshotInfo{
			{Name: "old_held", Dataset: "tank", CreatedAt: "2020-01-01T00:00:00Z", Held: true},
			{Name: "old_manual", Dataset: "tank", CreatedAt: "2020-01-01T00:00:00Z", Manual: true},
			{Name: "old_plain", Dataset: "tank", CreatedAt: "2020-01-01T00:00:00Z"},
		},
	}
	deps := &Deps{Snapshots: fake}
	job := &scheduler.Job{
		ID:     "retention-job",
		Type:   scheduler.JobRetentionCleanup,
		Target: "tank",
		Params: map[string]any{"keep_hourly": 0},
	}

	out, err := runRetention(context.Background(), deps, job)
	if err != nil {
		t.Fatalf("runRetention: %v", err)
	}
	if out["deleted"] != 1 {
		t.Fatalf("deleted = %v, want 1 (only old_plain)", out["deleted"])
	}
	if len(fake.deleted) != 1 || fake.deleted[0] != "old_plain" {
		t.Fatalf("expected only old_plain deleted, got %v", fake.deleted)
	}
}

func TestRetentionNoSnapshotService(t *testing.T) {
	job := &scheduler.Job{ID: "j", Type: scheduler.JobRetentionCleanup, Target: "tank"}
	if _, err := runRetention(context.Background(), &Deps{}, job); err == nil {
		t.Fatal("expected error when no snapshot service is configured")
	}
}
