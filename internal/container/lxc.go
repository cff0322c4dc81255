package container

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/horcrux-nas/horcruxd/internal/horcruxerr"
)

// LXCBackend drives classic LXC containers through the lxc-* CLI tools.
type LXCBackend struct{}

// NewLXCBackend returns an LXCBackend.
func NewLXCBackend() *LXCBackend { return &LXCBackend{} }

func (b *LXCBackend) Create(ctx context.Context, c *Container) error {
	args := []string{"-n", c.Name}
	if c.Rootfs != "" {
		args = append(args, "-t", "download", "--", "--dir", c.Rootfs)
	}
	_, stderr, err := run(ctx, "lxc-create", args...)
	if err != nil {
		return horcruxerr.InternalErr("lxc-create %s: %v: %s", c.Name, err, stderr)
	}
	if c.Memory > 0 {
		_, _, _ = run(ctx, "lxc-config", "-n", c.Name, "lxc.cgroup2.memory.max", strconv.FormatUint(c.Memory, 10))
	}
	if c.CPUs > 0 {
		_, _, _ = run(ctx, "lxc-config", "-n", c.Name, "lxc.cgroup2.cpu.max", fmt.Sprintf("%d00000 100000", c.CPUs))
	}
	return nil
}

func (b *LXCBackend) Start(ctx context.Context, c *Container) error {
	_, stderr, err := run(ctx, "lxc-start", "-n", c.Name, "-d")
	if err != nil {
		return horcruxerr.InternalErr("lxc-start %s: %v: %s", c.Name, err, stderr)
	}
	return nil
}

func (b *LXCBackend) Stop(ctx context.Context, c *Container) error {
	_, stderr, err := run(ctx, "lxc-stop", "-n", c.Name)
	if err != nil {
		return horcruxerr.InternalErr("lxc-stop %s: %v: %s", c.Name, err, stderr)
	}
	return nil
}

func (b *LXCBackend) Delete(ctx context.Context, c *Container) error {
	_, stderr, err := run(ctx, "lxc-destroy", "-n", c.Name)
	if err != nil {
		return horcruxerr.InternalErr("lxc-destroy %s: %v: %s", c.Name, err, stderr)
	}
	return nil
}

func (b *LXCBackend) Refresh(ctx context.Context, c *Container) (Status, error) {
	stdout, _, err := run(ctx, "lxc-info", "-n", c.Name, "-s")
	if err != nil {
		return StatusUnknown, nil
	}
	return lxcParseState(stdout), nil
}

func lxcParseState(stdout string) Status {
	line := strings.TrimSpace(stdout)
	switch {
	case strings.Contains(line, "RUNNING"):
		return StatusRunning
	case strings.Contains(line, "STOPPED"):
		return StatusStopped
	default:
		return StatusUnknown
	}
}
