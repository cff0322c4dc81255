package smb

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/horcrux-nas/horcruxd/internal/horcruxerr"
)

// run executes name with args under ctx in its own process group, so a
// context cancellation kills the whole group rather than leaving orphaned
// children.
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

// TestConfig runs `testparm -s --suppress-prompt` against the config file
// at a.ConfigPath and reports whether smbd considers it syntactically valid.
func (a *Admin) TestConfig(ctx context.Context) (bool, error) {
	_, _, err := a.runner(ctx, "testparm", "-s", "--suppress-prompt", a.ConfigPath)
	if err == nil {
		return true, nil
	}
	if _, ok := err.(*exec.ExitError); ok {
		return false, nil
	}
	return false, horcruxerr.InternalErr("testparm: %v", err)
}

// Reload sends smbd a reload-config signal via smbcontrol.
func (a *Admin) Reload(ctx context.Context) error {
	_, stderr, err := a.runner(ctx, "smbcontrol", "all", "reload-config")
	if err != nil {
		return horcruxerr.InternalErr("reload samba: %v: %s", err, stderr)
	}
	return nil
}

// Start brings up smbd/nmbd, trying systemd, then OpenRC, then a direct
// daemon invocation, stopping at the first one that succeeds.
func (a *Admin) Start(ctx context.Context) error {
	if _, _, err := a.runner(ctx, "systemctl", "start", "smb", "nmb"); err == nil {
		return nil
	}
	if _, _, err := a.runner(ctx, "rc-service", "samba", "start"); err == nil {
		return nil
	}
	_, _, _ = a.runner(ctx, "smbd", "-D")
	_, _, _ = a.runner(ctx, "nmbd", "-D")
	return nil
}

// Stop tears down smbd/nmbd through every known path — systemd, OpenRC,
// and a direct pkill — without stopping early, since more than one may be
// partially responsible for a running daemon.
func (a *Admin) Stop(ctx context.Context) error {
	_, _, _ = a.runner(ctx, "systemctl", "stop", "smb", "nmb")
	_, _, _ = a.runner(ctx, "rc-service", "samba", "stop")
	_, _, _ = a.runner(ctx, "pkill", "smbd")
	_, _, _ = a.runner(ctx, "pkill", "nmbd")
	return nil
}

// Restart stops, waits briefly for the daemons to exit, then starts again.
func (a *Admin) Restart(ctx context.Context) error {
	if err := a.Stop(ctx); err != nil {
		return err
	}
	select {
	case <-time.After(500 * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}
	return a.Start(ctx)
}

// GetStatus reports whether the daemons are alive, the installed version,
// and current connection/lock counts.
func (a *Admin) GetStatus(ctx context.Context) (ServiceStatus, error) {
	status := ServiceStatus{
		SmbdRunning:     a.checkProcess(ctx, "smbd"),
		NmbdRunning:     a.checkProcess(ctx, "nmbd"),
		WinbinddRunning: a.checkProcess(ctx, "winbindd"),
		Version:         "unknown",
	}

	if stdout, _, err := a.runner(ctx, "smbd", "--version"); err == nil {
		status.Version = strings.TrimSpace(stdout)
	}

	if conns, err := a.GetConnections(ctx); err == nil {
		status.ActiveConnections = len(conns)
	}
	if locks, err := a.GetLocks(ctx); err == nil {
		status.OpenFiles = len(locks)
	}
	return status, nil
}

func (a *Admin) checkProcess(ctx context.Context, name string) bool {
	_, _, err := a.runner(ctx, "pgrep", name)
	return err == nil
}
