package scheduler

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/horcrux-nas/horcruxd/internal/cronexpr"
)

// SQLitePersister saves and loads jobs against the shared jobs table
// (storage.OpenDatabase creates it). It is a drop-in persistence layer for
// Store: nothing in Store or Scheduler depends on it directly, so a caller
// that doesn't need persistence across restarts can simply not use one.
type SQLitePersister struct {
	db *sql.DB
}

// NewSQLitePersister wraps an already-opened database handle. The jobs
// table must already exist (storage.OpenDatabase creates it).
func NewSQLitePersister(db *sql.DB) *SQLitePersister {
	return &SQLitePersister{db: db}
}

// Save persists a job (insert or update).
func (p *SQLitePersister) Save(j *Job) error {
	paramsJSON, err := json.Marshal(j.Params)
	if err != nil {
		return fmt.Errorf("marshal params for job %q: %w", j.ID, err)
	}

	var lastRun, nextRun sql.NullString
	if j.LastRun != nil {
		lastRun = sql.NullString{String: j.LastRun.UTC().Format(time.RFC3339), Valid: true}
	}
	if j.NextRun != nil {
		nextRun = sql.NullString{String: j.NextRun.UTC().Format(time.RFC3339), Valid: true}
	}

	schedule := ""
	if j.Schedule != nil {
		schedule = j.Schedule.String()
	}

	_, err = p.db.Exec(`
		INSERT INTO jobs
			(id, name, type, schedule, target, params, enabled, run_on_startup,
			 priority, timeout_secs, max_retries, last_run, last_status,
			 last_duration_ms, last_error, next_run, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			schedule = excluded.schedule,
			target = excluded.target,
			params = excluded.params,
			enabled = excluded.enabled,
			run_on_startup = excluded.run_on_startup,
			priority = excluded.priority,
			timeout_secs = excluded.timeout_secs,
			max_retries = excluded.max_retries,
			last_run = excluded.last_run,
			last_status = excluded.last_status,
			last_duration_ms = excluded.last_duration_ms,
			last_error = excluded.last_error,
			next_run = excluded.next_run,
			modified_at = excluded.modified_at`,
		j.ID, j.Name, string(j.Type), schedule, j.Target, string(paramsJSON),
		boolToInt(j.Enabled), boolToInt(j.RunOnStartup),
		j.Priority, j.TimeoutSecs, j.MaxRetries,
		lastRun, string(j.LastStatus), j.LastDurationMs, j.LastError, nextRun,
		j.CreatedAt.UTC().Format(time.RFC3339), j.ModifiedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save job %q: %w", j.ID, err)
	}
	return nil
}

// Delete removes a job by ID.
func (p *SQLitePersister) Delete(id string) error {
	if _, err := p.db.Exec("DELETE FROM jobs WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete job %q: %w", id, err)
	}
	return nil
}

// LoadAll reads every persisted job, reconstructing its parsed Schedule.
// A job whose stored schedule string no longer parses is skipped silently
// rather than aborting the whole load; its ID is not reported.
func (p *SQLitePersister) LoadAll() ([]*Job, error) {
	rows, err := p.db.Query(`
		SELECT id, name, type, schedule, target, params, enabled, run_on_startup,
		       priority, timeout_secs, max_retries, last_run, last_status,
		       last_duration_ms, last_error, next_run, created_at, modified_at
		FROM jobs`)
	if err != nil {
		return nil, fmt.Errorf("load jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		var (
			j                                   Job
			jobType, schedule, paramsJSON       string
			enabled, runOnStartup               int
			lastRun, nextRun                     sql.NullString
			createdAt, modifiedAt               string
		)
		if err := rows.Scan(
			&j.ID, &j.Name, &jobType, &schedule, &j.Target, &paramsJSON,
			&enabled, &runOnStartup, &j.Priority, &j.TimeoutSecs, &j.MaxRetries,
			&lastRun, &j.LastStatus, &j.LastDurationMs, &j.LastError, &nextRun,
			&createdAt, &modifiedAt,
		); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}

		j.Type = JobType(jobType)
		j.Enabled = enabled != 0
		j.RunOnStartup = runOnStartup != 0

		if schedule != "" {
			sched, perr := cronexpr.Parse(schedule)
			if perr != nil {
				continue
			}
			j.Schedule = sched
		}

		if err := json.Unmarshal([]byte(paramsJSON), &j.Params); err != nil {
			j.Params = map[string]any{}
		}

		if lastRun.Valid {
			t, _ := time.Parse(time.RFC3339, lastRun.String)
			j.LastRun = &t
		}
		if nextRun.Valid {
			t, _ := time.Parse(time.RFC3339, nextRun.String)
			j.NextRun = &t
		}
		j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		j.ModifiedAt, _ = time.Parse(time.RFC3339, modifiedAt)

		jobs = append(jobs, &j)
	}

	return jobs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
