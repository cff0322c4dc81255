package container

import (
	"context"
	"strconv"
	"strings"

	"github.com/horcrux-nas/horcruxd/internal/horcruxerr"
)

// DockerBackend drives Docker containers through the `docker` CLI client.
type DockerBackend struct{}

// NewDockerBackend returns a DockerBackend.
func NewDockerBackend() *DockerBackend { return &DockerBackend{} }

func (b *DockerBackend) Create(ctx context.Context, c *Container) error {
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

	_, stderr, err := run(ctx, "docker", args...)
	if err != nil {
		return horcruxerr.InternalErr("docker create %s: %v: %s", c.Name, err, stderr)
	}
	return nil
}

func (b *DockerBackend) Start(ctx context.Context, c *Container) error {
	_, stderr, err := run(ctx, "docker", "start", c.Name)
	if err != nil {
		return horcruxerr.InternalErr("docker start %s: %v: %s", c.Name, err, stderr)
	}
	return nil
}

func (b *DockerBackend) Stop(ctx context.Context, c *Container) error {
	_, stderr, err := run(ctx, "docker", "stop", c.Name)
	if err != nil {
		return horcruxerr.InternalErr("docker stop %s: %v: %s", c.Name, err, stderr)
	}
	return nil
}

func (b *DockerBackend) Delete(ctx context.Context, c *Container) error {
	_, stderr, err := run(ctx, "docker", "rm", "-f", c.Name)
	if err != nil {
		return horcruxerr.InternalErr("docker rm %s: %v: %s", c.Name, err, stderr)
	}
	return nil
}

func (b *DockerBackend) Refresh(ctx context.Context, c *Container) (Status, error) {
	stdout, _, err := run(ctx, "docker", "inspect", "-f", "{{.State.Status}}", c.Name)
	if err != nil {
		return StatusUnknown, nil
	}
	switch strings.TrimSpace(stdout) {
	case "running":
		return StatusRunning, nil
	case "exited", "created":
		return StatusStopped, nil
	default:
		return StatusUnknown, nil
	}
}
