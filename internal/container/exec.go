//go:build !windows

package container

import (
	"bytes"
	"context"
	"os/exec"
	"syscall"
)

// run executes name with args under ctx in its own process group, so a
// context cancellation kills the whole group rather than leaving orphaned
// children — the same discipline internal/storage and internal/smb use for
// every external command this daemon shells out to.
func run(ctx context.Context, name string, args ...string) (stdout, stderr string, err error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	err = cmd.Run()
	return out.String(), errBuf.String(), err
}
