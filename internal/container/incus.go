package container

import (
	"context"
	"strconv"
	"strings"

	"github.com/horcrux-nas/horcruxd/internal/horcruxerr"
)

// IncusBackend drives Incus containers through the `incus` CLI client —
// a fork of LXD with the same command surface.
type IncusBackend struct{}

// NewIncusBackend returns an IncusBackend.
func NewIncusBackend() *IncusBackend { return &IncusBackend{} }

func (b *IncusBackend) Create(ctx context.Context, c *Container) error {
	image := c.Rootfs
	if image == "" {
		image = "images:alpine/edge"
	}
	_, stderr, err := run(ctx, "incus", "init", image, c.Name)
	if err != nil {
		return horcruxerr.InternalErr("incus init %s: %v: %s", c.Name, err, stderr)
	}
	if c.Memory > 0 {
		_, _, _ = run(ctx, "incus", "config", "set", c.Name, "limits.memory", strconv.FormatUint(c.Memory, 10))
	}
	if c.CPUs > 0 {
		_, _, _ = run(ctx, "incus", "config", "set", c.Name, "limits.cpu", strconv.FormatUint(uint64(c.CPUs), 10))
	}
	return nil
}

func (b *IncusBackend) Start(ctx context.Context, c *Container) error {
	_, stderr, err := run(ctx, "incus", "start", c.Name)
	if err != nil {
		return horcruxerr.InternalErr("incus start %s: %v: %s", c.Name, err, stderr)
	}
	return nil
}

func (b *IncusBackend) Stop(ctx context.Context, c *Container) error {
	_, stderr, err := run(ctx, "incus", "stop", c.Name)
	if err != nil {
		return horcruxerr.InternalErr("incus stop %s: %v: %s", c.Name, err, stderr)
	}
	return nil
}

func (b *IncusBackend) Delete(ctx context.Context, c *Container) error {
	_, stderr, err := run(ctx, "incus", "delete", "--force", c.Name)
	if err != nil {
		return horcruxerr.InternalErr("incus delete %s: %v: %s", c.Name, err, stderr)
	}
	return nil
}

func (b *IncusBackend) Refresh(ctx context.Context, c *Container) (Status, error) {
	stdout, _, err := run(ctx, "incus", "list", c.Name, "--format", "csv", "-c", "s")
	if err != nil {
		return StatusUnknown, nil
	}
	switch strings.ToUpper(strings.TrimSpace(stdout)) {
	case "RUNNING":
		return StatusRunning, nil
	case "STOPPED":
		return StatusStopped, nil
	default:
		return StatusUnknown, nil
	}
}
