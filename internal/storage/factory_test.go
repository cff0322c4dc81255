package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/horcrux-nas/horcruxd/internal/config"
)

func TestSQLiteFactory_Open(t *testing.T) {
	tmpDir, _ := os.MkdirTemp("", "horcruxd-test-*")
	defer os.RemoveAll(tmpDir)

	factory := &SQLiteFactory{}
	cfg := config.DatabaseConfig{Path: filepath.Join(tmpDir, "test.db")}

	db, err := factory.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}

func TestSQLiteFactory_Supports(t *testing.T) {
	factory := &SQLiteFactory{}

	if !factory.Supports("sqlite") {
		t.Error("expected to support sqlite")
	}
	if !factory.Supports("") {
		t.Error("expected to support empty backend (default)")
	}
	if factory.Supports("postgres") {
		t.Error("expected NOT to support postgres")
	}
}

func TestPostgreSQLFactory_Supports(t *testing.T) {
	factory := &PostgreSQLFactory{}

	if !factory.Supports("postgres") {
		t.Error("expected to support postgres")
	}
	if factory.Supports("sqlite") {
		t.Error("expected NOT to support sqlite")
	}
	if factory.Supports("") {
		t.Error("expected NOT to support empty backend")
	}
}

func TestOpenDatabaseWithConfig_DefaultsToSQLite(t *testing.T) {
	tmpDir, _ := os.MkdirTemp("", "horcruxd-test-*")
	defer os.RemoveAll(tmpDir)

	db, err := OpenDatabaseWithConfig(config.DatabaseConfig{Path: filepath.Join(tmpDir, "default.db")})
	if err != nil {
		t.Fatalf("OpenDatabaseWithConfig failed: %v", err)
	}
	defer db.Close()
}

func TestOpenDatabaseWithConfig_UnsupportedBackend(t *testing.T) {
	_, err := OpenDatabaseWithConfig(config.DatabaseConfig{Backend: "mysql"})
	if err == nil {
		t.Fatal("expected error for unsupported backend")
	}
}
