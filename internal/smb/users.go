package smb

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	"github.com/horcrux-nas/horcruxd/internal/horcruxerr"
)

// runWithStdin is like run, but feeds data to the child's stdin — used for
// smbpasswd, which reads the new password from stdin rather than argv so
// it never shows up in a process listing.
func runWithStdin(ctx context.Context, stdin string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.Stdin = strings.NewReader(stdin)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return horcruxerr.InternalErr("%s: %v: %s", name, err, stderr.String())
	}
	return nil
}

// AddUser creates a new SMB passdb entry for username with password,
// confirming the password twice on stdin the way smbpasswd's interactive
// prompt expects.
func (a *Admin) AddUser(ctx context.Context, username, password string) error {
	return runWithStdin(ctx, password+"\n"+password+"\n", "smbpasswd", "-a", "-s", username)
}

// SetUserPassword changes the password of an existing user.
func (a *Admin) SetUserPassword(ctx context.Context, username, password string) error {
	return runWithStdin(ctx, password+"\n"+password+"\n", "smbpasswd", "-s", username)
}

// EnableUser re-enables a disabled SMB account.
func (a *Admin) EnableUser(ctx context.Context, username string) error {
	_, stderr, err := a.runner(ctx, "smbpasswd", "-e", username)
	if err != nil {
		return horcruxerr.InternalErr("enable user %s: %v: %s", username, err, stderr)
	}
	return nil
}

// DisableUser disables an SMB account without deleting it.
func (a *Admin) DisableUser(ctx context.Context, username string) error {
	_, stderr, err := a.runner(ctx, "smbpasswd", "-d", username)
	if err != nil {
		return horcruxerr.InternalErr("disable user %s: %v: %s", username, err, stderr)
	}
	return nil
}

// DeleteUser removes a user's passdb entry entirely.
func (a *Admin) DeleteUser(ctx context.Context, username string) error {
	_, stderr, err := a.runner(ctx, "smbpasswd", "-x", username)
	if err != nil {
		return horcruxerr.InternalErr("delete user %s: %v: %s", username, err, stderr)
	}
	return nil
}

// ListUsers parses `pdbedit -L -v`'s labeled-block output into User
// records.
func (a *Admin) ListUsers(ctx context.Context) ([]User, error) {
	stdout, _, err := a.runner(ctx, "pdbedit", "-L", "-v")
	if err != nil {
		// pdbedit exits non-zero when the passdb is empty; treat that as
		// zero users rather than a hard failure.
		return nil, nil
	}

	var users []User
	var current *User

	flush := func() {
		if current != nil {
			users = append(users, *current)
			current = nil
		}
	}

	for _, line := range strings.Split(stdout, "\n") {
		switch {
		case strings.HasPrefix(line, "Unix username:"):
			flush()
			current = &User{Username: strings.TrimSpace(strings.TrimPrefix(line, "Unix username:"))}
		case current == nil:
			continue
		case strings.HasPrefix(line, "Unix user ID:"):
			uid, _ := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Unix user ID:")))
			current.UID = uid
		case strings.HasPrefix(line, "Full Name:"):
			name := strings.TrimSpace(strings.TrimPrefix(line, "Full Name:"))
			if name != "" {
				current.FullName = name
			}
		case strings.HasPrefix(line, "Account Flags:"):
			flags := strings.TrimSpace(strings.TrimPrefix(line, "Account Flags:"))
			flags = strings.Trim(flags, "[]")
			for _, f := range strings.Split(flags, "") {
				if f != "" {
					current.Flags = append(current.Flags, f)
				}
			}
		case strings.HasPrefix(line, "Password last set:"):
			current.PasswordLastSet = strings.TrimSpace(strings.TrimPrefix(line, "Password last set:"))
		}
	}
	flush()

	return users, nil
}
