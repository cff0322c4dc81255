package smb

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/horcrux-nas/horcruxd/internal/horcruxerr"
)

// fakeRunner records every invocation and answers according to a
// per-command-name script, so tests never shell out to real Samba tools.
type fakeRunner struct {
	calls   []string
	results map[string]struct {
		stdout, stderr string
		err            error
	}
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{results: make(map[string]struct {
		stdout, stderr string
		err            error
	})}
}

func (f *fakeRunner) run(ctx context.Context, name string, args ...string) (string, string, error) {
	f.calls = append(f.calls, strings.Join(append([]string{name}, args...), " "))
	r := f.results[name]
	return r.stdout, r.stderr, r.err
}

func (f *fakeRunner) calledWith(substr string) bool {
	for _, c := range f.calls {
		if strings.Contains(c, substr) {
			return true
		}
	}
	return false
}

func newTestAdmin(t *testing.T, fake *fakeRunner) *Admin {
	t.Helper()
	dir := t.TempDir()
	a := NewAdmin(filepath.Join(dir, "smb.conf"))
	a.runner = fake.run
	return a
}

// TestWriteFullConfigRejectsInvalidAndRestoresBackup covers the scenario
// where a generated config fails testparm: the prior config must survive
// untouched and the call must report a Validation error, never reaching
// reload.
func TestWriteFullConfigRejectsInvalidAndRestoresBackup(t *testing.T) {
	fake := newFakeRunner()
	a := newTestAdmin(t, fake)

	original := "[global]\n   workgroup = ORIGINAL\n\n"
	if err := os.WriteFile(a.ConfigPath, []byte(original), 0o644); err != nil {
		t.Fatalf("seed config: %v", err)
	}

	fake.results["testparm"] = struct {
		stdout, stderr string
		err            error
	}{err: realExitError(t)}

	global := DefaultGlobalConfig()
	global.Workgroup = "REJECTED"
	err := a.WriteFullConfig(context.Background(), global, nil)

	if kind, ok := horcruxerr.KindOf(err); !ok || kind != horcruxerr.Validation {
		t.Fatalf("expected Validation error, got %v", err)
	}

	restored, rerr := os.ReadFile(a.ConfigPath)
	if rerr != nil {
		t.Fatalf("read config after failed apply: %v", rerr)
	}
	if string(restored) != original {
		t.Fatalf("config = %q, want original %q restored after failed validation", restored, original)
	}
	if fake.calledWith("smbcontrol") {
		t.Error("reload must not run when testparm rejects the config")
	}
}

// TestWriteFullConfigReloadsOnValidConfig covers the success path: config
// is written, testparm passes, and smbd is told to reload.
func TestWriteFullConfigReloadsOnValidConfig(t *testing.T) {
	fake := newFakeRunner()
	a := newTestAdmin(t, fake)

	err := a.WriteFullConfig(context.Background(), DefaultGlobalConfig(), []Share{
		{Name: "data", Path: "/tank/data", Enabled: true},
	})
	if err != nil {
		t.Fatalf("WriteFullConfig: %v", err)
	}
	if !fake.calledWith("smbcontrol all reload-config") {
		t.Error("expected a reload-config call on success")
	}

	written, rerr := os.ReadFile(a.ConfigPath)
	if rerr != nil {
		t.Fatalf("read written config: %v", rerr)
	}
	if !strings.Contains(string(written), "[data]") {
		t.Errorf("written config missing [data] share:\n%s", written)
	}
}

// TestDisconnectSessionCallsSmbcontrol covers forcibly closing a session.
func TestDisconnectSessionCallsSmbcontrol(t *testing.T) {
	fake := newFakeRunner()
	a := newTestAdmin(t, fake)

	if err := a.DisconnectSession(context.Background(), 4242); err != nil {
		t.Fatalf("DisconnectSession: %v", err)
	}
	if !fake.calledWith("smbcontrol 4242 close-share *") {
		t.Errorf("calls = %v, want a close-share call for pid 4242", fake.calls)
	}
}

func TestListSharesExcludesSpecialSections(t *testing.T) {
	fake := newFakeRunner()
	a := newTestAdmin(t, fake)
	config := "[global]\n   workgroup = WORKGROUP\n\n[printers]\n   path = /var/spool\n\n[data]\n   path = /tank/data\n\n[print$]\n   path = /var/lib/samba\n\n"
	if err := os.WriteFile(a.ConfigPath, []byte(config), 0o644); err != nil {
		t.Fatalf("seed config: %v", err)
	}

	shares, err := a.ListShares()
	if err != nil {
		t.Fatalf("ListShares: %v", err)
	}
	if len(shares) != 1 || shares[0] != "data" {
		t.Fatalf("shares = %v, want [data]", shares)
	}
}

func TestUpdateShareParamRoundTrip(t *testing.T) {
	fake := newFakeRunner()
	a := newTestAdmin(t, fake)
	config := "[global]\n   workgroup = WORKGROUP\n\n[data]\n   path = /tank/data\n   read only = no\n\n"
	if err := os.WriteFile(a.ConfigPath, []byte(config), 0o644); err != nil {
		t.Fatalf("seed config: %v", err)
	}

	if err := a.UpdateShareParam(context.Background(), "data", "read only", "yes"); err != nil {
		t.Fatalf("UpdateShareParam: %v", err)
	}

	params, err := a.GetShareConfig("data")
	if err != nil {
		t.Fatalf("GetShareConfig: %v", err)
	}
	if params["read only"] != "yes" {
		t.Fatalf("read only = %q, want yes", params["read only"])
	}
}

func TestGetShareConfigNotFound(t *testing.T) {
	fake := newFakeRunner()
	a := newTestAdmin(t, fake)
	if err := os.WriteFile(a.ConfigPath, []byte("[global]\n   workgroup = WORKGROUP\n\n"), 0o644); err != nil {
		t.Fatalf("seed config: %v", err)
	}

	_, err := a.GetShareConfig("missing")
	if kind, ok := horcruxerr.KindOf(err); !ok || kind != horcruxerr.NotFound {
		t.Fatalf("expected NotFound error, got %v", err)
	}
}

// realExitError runs a command guaranteed to exit non-zero, to obtain a
// genuine *exec.ExitError the way TestConfig expects from a failing
// testparm invocation.
func realExitError(t *testing.T) error {
	t.Helper()
	err := exec.Command("sh", "-c", "exit 1").Run()
	if err == nil {
		t.Fatal("expected sh -c 'exit 1' to fail")
	}
	return err
}
