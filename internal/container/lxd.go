package container

import (
	"context"
	"strconv"
	"strings"

	"github.com/horcrux-nas/horcruxd/internal/horcruxerr"
)

// LXDBackend drives LXD containers through the `lxc` CLI client.
type LXDBackend struct{}

// NewLXDBackend returns an LXDBackend.
func NewLXDBackend() *LXDBackend { return &LXDBackend{} }

func (b *LXDBackend) Create(ctx context.Context, c *Container) error {
	image := c.Rootfs
	if image == "" {
		image = "images:alpine/edge"
	}
	_, stderr, err := run(ctx, "lxc", "init", image, c.Name)
	if err != nil {
		return horcruxerr.InternalErr("lxc init %s: %v: %s", c.Name, err, stderr)
	}
	if c.Memory > 0 {
		_, _, _ = run(ctx, "lxc", "config", "set", c.Name, "limits.memory", strconv.FormatUint(c.Memory, 10))
	}
	if c.CPUs > 0 {
		_, _, _ = run(ctx, "lxc", "config", "set", c.Name, "limits.cpu", strconv.FormatUint(uint64(c.CPUs), 10))
	}
	return nil
}

func (b *LXDBackend) Start(ctx context.Context, c *Container) error {
	_, stderr, err := run(ctx, "lxc", "start", c.Name)
	if err != nil {
		return horcruxerr.InternalErr("lxc start %s: %v: %s", c.Name, err, stderr)
	}
	return nil
}

func (b *LXDBackend) Stop(ctx context.Context, c *Container) error {
	_, stderr, err := run(ctx, "lxc", "stop", c.Name)
	if err != nil {
		return horcruxerr.InternalErr("lxc stop %s: %v: %s", c.Name, err, stderr)
	}
	return nil
}

func (b *LXDBackend) Delete(ctx context.Context, c *Container) error {
	_, stderr, err := run(ctx, "lxc", "delete", "--force", c.Name)
	if err != nil {
		return horcruxerr.InternalErr("lxc delete %s: %v: %s", c.Name, err, stderr)
	}
	return nil
}

func (b *LXDBackend) Refresh(ctx context.Context, c *Container) (Status, error) {
	stdout, _, err := run(ctx, "lxc", "list", c.Name, "--format", "csv", "-c", "s")
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
