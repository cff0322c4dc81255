package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseOverlaysDefaults(t *testing.T) {
	yamlDoc := []byte("database:\n  path: /data/custom.db\n")
	cfg, err := Parse(yamlDoc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Database.Path != "/data/custom.db" {
		t.Errorf("Database.Path = %q, want /data/custom.db", cfg.Database.Path)
	}
	if cfg.Scheduler.MaxHistory != 10000 {
		t.Errorf("Scheduler.MaxHistory = %d, want default 10000 to survive an unrelated override", cfg.Scheduler.MaxHistory)
	}
}

func TestExpandEnvVarsSubstitutesBothForms(t *testing.T) {
	t.Setenv("HORCRUX_TEST_VAR", "resolved")
	in := "path: ${HORCRUX_TEST_VAR}/data\nother: $HORCRUX_TEST_VAR\n"
	out := expandEnvVars(in)
	want := "path: resolved/data\nother: resolved\n"
	if out != want {
		t.Fatalf("expandEnvVars = %q, want %q", out, want)
	}
}

func TestExpandEnvVarsLeavesUnsetReferenceIntact(t *testing.T) {
	in := "key: ${HORCRUX_DEFINITELY_UNSET_VAR}\n"
	out := expandEnvVars(in)
	if out != in {
		t.Fatalf("expandEnvVars = %q, want unchanged %q", out, in)
	}
}

func TestLoadFromFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "horcruxd.yaml")
	if err := os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.SMB.ConfigPath != "/etc/samba/smb.conf" {
		t.Errorf("SMB.ConfigPath = %q, want default preserved", cfg.SMB.ConfigPath)
	}
}
