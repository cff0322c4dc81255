package container

import (
	"context"
	"testing"

	"github.com/horcrux-nas/horcruxd/internal/horcruxerr"
)

type fakeBackend struct {
	startCalls, stopCalls, deleteCalls int
	refreshStatus                     Status
}

func (f *fakeBackend) Create(ctx context.Context, c *Container) error { return nil }
func (f *fakeBackend) Start(ctx context.Context, c *Container) error  { f.startCalls++; return nil }
func (f *fakeBackend) Stop(ctx context.Context, c *Container) error   { f.stopCalls++; return nil }
func (f *fakeBackend) Delete(ctx context.Context, c *Container) error { f.deleteCalls++; return nil }
func (f *fakeBackend) Refresh(ctx context.Context, c *Container) (Status, error) {
	return f.refreshStatus, nil
}

func TestCreateRejectsDuplicateID(t *testing.T) {
	m := NewManager()
	fb := &fakeBackend{}
	m.RegisterBackend(RuntimeDocker, fb)

	ctx := context.Background()
	if _, err := m.Create(ctx, Container{ID: "c1", Name: "c1", Runtime: RuntimeDocker}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := m.Create(ctx, Container{ID: "c1", Name: "c1", Runtime: RuntimeDocker})
	if kind, ok := horcruxerr.KindOf(err); !ok || kind != horcruxerr.Validation {
		t.Fatalf("expected Validation error on duplicate id, got %v", err)
	}
}

func TestOperationsOnUnknownIDAreNotFound(t *testing.T) {
	m := NewManager()
	m.RegisterBackend(RuntimeDocker, &fakeBackend{})
	ctx := context.Background()

	if _, err := m.Start(ctx, "missing"); !horcruxerr.Is(err, horcruxerr.NotFound) {
		t.Errorf("Start: expected NotFound, got %v", err)
	}
	if _, err := m.Stop(ctx, "missing"); !horcruxerr.Is(err, horcruxerr.NotFound) {
		t.Errorf("Stop: expected NotFound, got %v", err)
	}
	if err := m.Delete(ctx, "missing"); !horcruxerr.Is(err, horcruxerr.NotFound) {
		t.Errorf("Delete: expected NotFound, got %v", err)
	}
}

func TestStartStopDispatchToBackendAndUpdateStatus(t *testing.T) {
	m := NewManager()
	fb := &fakeBackend{}
	m.RegisterBackend(RuntimeLXC, fb)
	ctx := context.Background()

	c, err := m.Create(ctx, Container{ID: "c1", Name: "c1", Runtime: RuntimeLXC})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Status != StatusCreated {
		t.Fatalf("status after create = %v, want Created", c.Status)
	}

	started, err := m.Start(ctx, "c1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if fb.startCalls != 1 {
		t.Errorf("backend Start calls = %d, want 1", fb.startCalls)
	}
	if started.Status != StatusRunning {
		t.Errorf("status after start = %v, want Running", started.Status)
	}

	stopped, err := m.Stop(ctx, "c1")
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if fb.stopCalls != 1 {
		t.Errorf("backend Stop calls = %d, want 1", fb.stopCalls)
	}
	if stopped.Status != StatusStopped {
		t.Errorf("status after stop = %v, want Stopped", stopped.Status)
	}
}

func TestDeleteRemovesFromRegistry(t *testing.T) {
	m := NewManager()
	fb := &fakeBackend{}
	m.RegisterBackend(RuntimeIncus, fb)
	ctx := context.Background()

	if _, err := m.Create(ctx, Container{ID: "c1", Name: "c1", Runtime: RuntimeIncus}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := m.Delete(ctx, "c1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if fb.deleteCalls != 1 {
		t.Errorf("backend Delete calls = %d, want 1", fb.deleteCalls)
	}
	if _, err := m.Get("c1"); !horcruxerr.Is(err, horcruxerr.NotFound) {
		t.Errorf("expected NotFound after delete, got %v", err)
	}
}

func TestCreateUnknownRuntimeIsValidation(t *testing.T) {
	m := NewManager()
	ctx := context.Background()
	_, err := m.Create(ctx, Container{ID: "c1", Name: "c1", Runtime: RuntimePodman})
	if !horcruxerr.Is(err, horcruxerr.Validation) {
		t.Fatalf("expected Validation for unregistered runtime, got %v", err)
	}
}
