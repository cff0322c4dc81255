// Package container is a runtime-agnostic façade over LXC, LXD, Incus,
// Docker, and Podman: Manager keeps an id→Container registry and
// dispatches every lifecycle call to the Backend registered for the
// container's runtime.
package container

import (
	"context"
)

// Runtime identifies which backend owns a container.
type Runtime string

const (
	RuntimeLXC    Runtime = "lxc"
	RuntimeLXD    Runtime = "lxd"
	RuntimeIncus  Runtime = "incus"
	RuntimeDocker Runtime = "docker"
	RuntimePodman Runtime = "podman"
)

// Status is a coarse lifecycle state, read through from the backend.
type Status string

const (
	StatusUnknown Status = "unknown"
	StatusCreated Status = "created"
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
)

// Container is the runtime-agnostic view of one managed container. The
// Runtime field is immutable once created — it determines which Backend
// handles every subsequent lifecycle call.
type Container struct {
	ID      string
	Name    string
	Runtime Runtime
	Memory  uint64 // bytes
	CPUs    uint32
	Rootfs  string
	Status  Status
}

// Backend is the per-runtime implementation Manager dispatches to.
type Backend interface {
	Create(ctx context.Context, c *Container) error
	Start(ctx context.Context, c *Container) error
	Stop(ctx context.Context, c *Container) error
	Delete(ctx context.Context, c *Container) error
	// Refresh reads the container's live status through to the backend.
	Refresh(ctx context.Context, c *Container) (Status, error)
}
