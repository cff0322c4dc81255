package smb

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/horcrux-nas/horcruxd/internal/horcruxerr"
)

// smbstatusJSON mirrors the subset of `smbstatus --json` this package
// reads. Samba's JSON schema nests sessions and their tree-connects as
// objects keyed by an opaque ID rather than arrays, which is why these are
// maps rather than slices.
type smbstatusJSON struct {
	Sessions map[string]struct {
		SessionID     json.Number `json:"session_id"`
		Username      string      `json:"username"`
		RemoteMachine string      `json:"remote_machine"`
		Signing       string      `json:"signing"`
		Tcons         map[string]struct {
			Service string `json:"service"`
		} `json:"tcons"`
	} `json:"sessions"`
	LockedFiles []struct {
		PID         json.Number `json:"pid"`
		Username    string      `json:"username"`
		ServicePath string      `json:"service_path"`
		Filename    string      `json:"filename"`
		LockType    string      `json:"lock_type"`
	} `json:"locked_files"`
}

// GetConnections lists active SMB sessions, preferring smbstatus's JSON
// output (Samba 4.x) and falling back to its backslash-delimited
// --parseable format when JSON output isn't available or doesn't parse.
func (a *Admin) GetConnections(ctx context.Context) ([]Connection, error) {
	if stdout, _, err := a.runner(ctx, "smbstatus", "--shares", "--json"); err == nil {
		var doc smbstatusJSON
		if jerr := json.Unmarshal([]byte(stdout), &doc); jerr == nil {
			return parseConnectionsJSON(doc), nil
		}
	}

	stdout, _, err := a.runner(ctx, "smbstatus", "--shares", "--parseable")
	if err != nil {
		return nil, horcruxerr.InternalErr("smbstatus: %v", err)
	}
	return parseConnectionsParseable(stdout), nil
}

func parseConnectionsJSON(doc smbstatusJSON) []Connection {
	var conns []Connection
	now := time.Now().Unix()
	for _, session := range doc.Sessions {
		pid, _ := strconv.Atoi(session.SessionID.String())
		protocol := session.Signing
		if protocol == "" {
			protocol = "SMB3"
		}
		for _, tcon := range session.Tcons {
			conns = append(conns, Connection{
				PID:         pid,
				Username:    session.Username,
				Share:       tcon.Service,
				Machine:     session.RemoteMachine,
				Protocol:    protocol,
				ConnectedAt: now,
			})
		}
	}
	return conns
}

func parseConnectionsParseable(output string) []Connection {
	var conns []Connection
	now := time.Now().Unix()
	lines := strings.Split(output, "\n")
	if len(lines) > 0 {
		lines = lines[1:] // header row
	}
	for _, line := range lines {
		if line == "" {
			continue
		}
		parts := strings.Split(line, "\\")
		if len(parts) < 4 {
			continue
		}
		pid, _ := strconv.Atoi(parts[0])
		conns = append(conns, Connection{
			PID:         pid,
			Username:    parts[1],
			Share:       parts[2],
			Machine:     parts[3],
			Protocol:    "SMB",
			ConnectedAt: now,
		})
	}
	return conns
}

// GetLocks lists open file/byte-range locks, with the same JSON-then-
// parseable fallback as GetConnections.
func (a *Admin) GetLocks(ctx context.Context) ([]Lock, error) {
	if stdout, _, err := a.runner(ctx, "smbstatus", "--locks", "--json"); err == nil {
		var doc smbstatusJSON
		if jerr := json.Unmarshal([]byte(stdout), &doc); jerr == nil {
			return parseLocksJSON(doc), nil
		}
	}

	stdout, _, err := a.runner(ctx, "smbstatus", "--locks", "--parseable")
	if err != nil {
		return nil, horcruxerr.InternalErr("smbstatus: %v", err)
	}
	return parseLocksParseable(stdout), nil
}

func parseLocksJSON(doc smbstatusJSON) []Lock {
	var locks []Lock
	for _, file := range doc.LockedFiles {
		pid, _ := strconv.Atoi(file.PID.String())
		lockType := file.LockType
		if lockType == "" {
			lockType = "RW"
		}
		locks = append(locks, Lock{
			PID:      pid,
			Username: file.Username,
			Share:    file.ServicePath,
			Path:     file.Filename,
			LockType: lockType,
		})
	}
	return locks
}

func parseLocksParseable(output string) []Lock {
	var locks []Lock
	lines := strings.Split(output, "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}
	for _, line := range lines {
		if line == "" {
			continue
		}
		parts := strings.Split(line, "\\")
		if len(parts) < 5 {
			continue
		}
		pid, _ := strconv.Atoi(parts[0])
		locks = append(locks, Lock{
			PID:      pid,
			Username: parts[1],
			Share:    parts[2],
			Path:     parts[3],
			LockType: parts[4],
		})
	}
	return locks
}

// DisconnectSession forcibly closes every share tree-connect held by pid.
func (a *Admin) DisconnectSession(ctx context.Context, pid int) error {
	_, stderr, err := a.runner(ctx, "smbcontrol", strconv.Itoa(pid), "close-share", "*")
	if err != nil {
		return horcruxerr.InternalErr("disconnect session %d: %v: %s", pid, err, stderr)
	}
	return nil
}

// BreakLock closes one share's tree-connect held by pid, without touching
// the session's other shares.
func (a *Admin) BreakLock(ctx context.Context, pid int, share string) error {
	_, stderr, err := a.runner(ctx, "smbcontrol", strconv.Itoa(pid), "close-share", share)
	if err != nil {
		return horcruxerr.InternalErr("break lock pid=%d share=%s: %v: %s", pid, share, err, stderr)
	}
	return nil
}
