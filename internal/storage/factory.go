package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/horcrux-nas/horcruxd/internal/config"
)

// BackendFactory opens the shared job/container store for one backend kind
// and makes sure its schema exists. Mirrors the teacher's database.Factory
// split (one Factory type per backend, selected by config) trimmed to just
// the two backends this appliance actually ships.
type BackendFactory interface {
	Open(cfg config.DatabaseConfig) (*sql.DB, error)
	Supports(backend string) bool
}

// SQLiteFactory opens the appliance's local SQLite file.
type SQLiteFactory struct{}

func (f *SQLiteFactory) Supports(backend string) bool {
	return backend == "" || backend == "sqlite"
}

func (f *SQLiteFactory) Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	path := cfg.Path
	if path == "" {
		path = "./data/horcrux.db"
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create database directory %q: %w", dir, err)
	}

	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return db, nil
}

// PostgreSQLFactory opens a shared Postgres instance for appliances that
// point their job/container store at a central database instead of a local
// file — e.g. an HA pair that must agree on scheduler state without
// replicating a SQLite file between them.
type PostgreSQLFactory struct{}

func (f *PostgreSQLFactory) Supports(backend string) bool {
	return backend == "postgres"
}

func (f *PostgreSQLFactory) Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	pg := cfg.Postgres
	if pg.Host == "" {
		pg.Host = "localhost"
	}
	if pg.Port == 0 {
		pg.Port = 5432
	}
	if pg.SSLMode == "" {
		pg.SSLMode = "disable"
	}
	if pg.Database == "" {
		pg.Database = "horcrux"
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		pg.Host, pg.Port, pg.User, pg.Password, pg.Database, pg.SSLMode)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return db, nil
}

var factories = []BackendFactory{
	&SQLiteFactory{},
	&PostgreSQLFactory{},
}

// OpenDatabaseWithConfig opens the job/container store for cfg.Backend,
// defaulting to SQLite when Backend is unset.
func OpenDatabaseWithConfig(cfg config.DatabaseConfig) (*sql.DB, error) {
	for _, f := range factories {
		if f.Supports(cfg.Backend) {
			return f.Open(cfg)
		}
	}
	return nil, fmt.Errorf("unsupported database backend %q", cfg.Backend)
}

// OpenDatabase opens (or creates) the SQLite database at path. It is a
// convenience wrapper around SQLiteFactory for callers (and tests) that only
// ever deal with the local file and don't carry a full config.DatabaseConfig.
func OpenDatabase(path string) (*sql.DB, error) {
	return (&SQLiteFactory{}).Open(config.DatabaseConfig{Path: path})
}
