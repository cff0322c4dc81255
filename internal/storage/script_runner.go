//go:build !windows

package storage

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"syscall"

	"github.com/horcrux-nas/horcruxd/internal/horcruxerr"
)

// ShellScriptRunner runs a Custom job's script through /bin/sh, putting the
// child in its own process group so a context timeout kills the whole
// group rather than leaving orphaned grandchildren behind.
type ShellScriptRunner struct{}

// NewShellScriptRunner returns a ShellScriptRunner.
func NewShellScriptRunner() *ShellScriptRunner { return &ShellScriptRunner{} }

// Run executes script via `sh -c`, with env merged on top of the current
// process environment, and returns the exit code, captured stdout, and
// captured stderr.
func (r *ShellScriptRunner) Run(ctx context.Context, script string, env map[string]string) (int, string, string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", script)
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if ok := asExitError(err, &exitErr); ok {
			exitCode = exitErr.ExitCode()
			err = nil
		} else {
			return 0, stdout.String(), stderr.String(), horcruxerr.InternalErr("start script: %v", err)
		}
	}

	return exitCode, stdout.String(), stderr.String(), err
}

func asExitError(err error, target **exec.ExitError) bool {
	ee, ok := err.(*exec.ExitError)
	if ok {
		*target = ee
	}
	return ok
}
