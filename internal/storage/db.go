// Package storage provides the shared database that backs scheduler and
// container persistence (SQLite by default, Postgres via BackendFactory),
// and the CLI-shelling implementations of the narrow service interfaces the
// task handlers depend on (snapshot, retention, quota, pool, service-probe).
package storage

// commonSchema is executed on every startup against either backend;
// CREATE TABLE IF NOT EXISTS makes it idempotent, and every column type used
// here (TEXT, INTEGER) is valid in both SQLite and Postgres.
const commonSchema = `
CREATE TABLE IF NOT EXISTS jobs (
    id             TEXT PRIMARY KEY,
    name           TEXT NOT NULL,
    type           TEXT NOT NULL,
    schedule       TEXT NOT NULL,
    target         TEXT DEFAULT '',
    params         TEXT DEFAULT '{}',
    enabled        INTEGER DEFAULT 1,
    run_on_startup INTEGER DEFAULT 0,
    priority       INTEGER DEFAULT 0,
    timeout_secs   INTEGER DEFAULT 0,
    max_retries    INTEGER DEFAULT 0,
    last_run       TEXT,
    last_status    TEXT DEFAULT '',
    last_duration_ms INTEGER DEFAULT 0,
    last_error     TEXT DEFAULT '',
    next_run       TEXT,
    created_at     TEXT NOT NULL,
    modified_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS job_executions (
    id           TEXT PRIMARY KEY,
    job_id       TEXT NOT NULL,
    job_type     TEXT NOT NULL,
    trigger      TEXT NOT NULL,
    status       TEXT NOT NULL,
    started_at   TEXT NOT NULL,
    finished_at  TEXT,
    duration_ms  INTEGER DEFAULT 0,
    attempt      INTEGER DEFAULT 1,
    error        TEXT DEFAULT '',
    output       TEXT DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_job_executions_job_id ON job_executions(job_id);

CREATE TABLE IF NOT EXISTS containers (
    id       TEXT PRIMARY KEY,
    name     TEXT NOT NULL,
    runtime  TEXT NOT NULL,
    memory   INTEGER DEFAULT 0,
    cpus     INTEGER DEFAULT 0,
    rootfs   TEXT DEFAULT '',
    status   TEXT DEFAULT ''
);
`

// sqliteSchema and postgresSchema are both commonSchema: every table here
// uses only TEXT/INTEGER columns and IF NOT EXISTS guards, which both
// backends accept identically. Kept as separate names so a backend-specific
// addition later (e.g. a Postgres-only index type) has an obvious home.
const sqliteSchema = commonSchema
const postgresSchema = commonSchema
