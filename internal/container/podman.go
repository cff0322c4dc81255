package container

import (
	"context"
	"strconv"
	"strings"

	"github.com/horcrux-nas/horcruxd/internal/horcruxerr"
)

// PodmanBackend drives Podman containers through the `podman` CLI client
// — a near drop-in for Docker's command surface.
type PodmanBackend struct{}

// NewPodmanBackend returns a PodmanBackend.
func NewPodmanBackend() *PodmanBackend { return &PodmanBackend{} }

func (b *PodmanBackend) Create(ctx context.Context, c *Container) error {
	image := c.Rootfs
	if image == "" {
		image = "alpine:latest"
	}
	args := []string{"create", "--name", c.Name}
	if c.Memory > 0 {
		args = append(args, "--memory", strconv.FormatUint(c.Memory, 10))
	}
	if c.CPUs > 0 {
		args = append(args, "--cpus", strconv.FormatUint(uint64(c.CPUs), 10))
	}
	args = append(args, image)

	_, stderr, err := run(ctx, "podman", args...)
	if err != nil {
		return horcruxerr.InternalErr("podman create %s: %v: %s", c.Name, err, stderr)
	}
	return nil
}

func (b *PodmanBackend) Start(ctx context.Context, c *Container) error {
	_, stderr, err := run(ctx, "podman", "start", c.Name)
	if err != nil {
		return horcruxerr.InternalErr("podman start %s: %v: %s", c.Name, err, stderr)
	}
	return nil
}

func (b *PodmanBackend) Stop(ctx context.Context, c *Container) error {
	_, stderr, err := run(ctx, "podman", "stop", c.Name)
	if err != nil {
		return horcruxerr.InternalErr("podman stop %s: %v: %s", c.Name, err, stderr)
	}
	return nil
}

func (b *PodmanBackend) Delete(ctx context.Context, c *Container) error {
	_, stderr, err := run(ctx, "podman", "rm", "-f", c.Name)
	if err != nil {
		return horcruxerr.InternalErr("podman rm %s: %v: %s", c.Name, err, stderr)
	}
	return nil
}

func (b *PodmanBackend) Refresh(ctx context.Context, c *Container) (Status, error) {
	stdout, _, err := run(ctx, "podman", "inspect", "-f", "{{.State.Status}}", c.Name)
	if err != nil {
		return StatusUnknown, nil
	}
	switch strings.TrimSpace(stdout) {
	case "running":
		return StatusRunning, nil
	case "exited", "created", "stopped":
		return StatusStopped, nil
	default:
		return StatusUnknown, nil
	}
}
