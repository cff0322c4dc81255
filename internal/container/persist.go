package container

import (
	"database/sql"
	"fmt"
)

// Persister saves and loads the container registry across restarts,
// mirroring the original's optional database-backed ContainerManager
// (`with_database`) — a Manager with no Persister attached simply tracks
// containers in memory for the lifetime of the process.
type Persister interface {
	Save(c *Container) error
	Delete(id string) error
	LoadAll() ([]*Container, error)
}

// SQLitePersister is the default Persister, backed by the same database
// the scheduler uses.
type SQLitePersister struct {
	db *sql.DB
}

// NewSQLitePersister wraps an already-opened database handle. The
// containers table must already exist (storage.OpenDatabase creates it).
func NewSQLitePersister(db *sql.DB) *SQLitePersister {
	return &SQLitePersister{db: db}
}

// Save persists a container (insert or update).
func (p *SQLitePersister) Save(c *Container) error {
	_, err := p.db.Exec(`
		INSERT INTO containers (id, name, runtime, memory, cpus, rootfs, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			runtime = excluded.runtime,
			memory = excluded.memory,
			cpus = excluded.cpus,
			rootfs = excluded.rootfs,
			status = excluded.status`,
		c.ID, c.Name, string(c.Runtime), c.Memory, c.CPUs, c.Rootfs, string(c.Status),
	)
	if err != nil {
		return fmt.Errorf("save container %q: %w", c.ID, err)
	}
	return nil
}

// Delete removes a container by id.
func (p *SQLitePersister) Delete(id string) error {
	if _, err := p.db.Exec("DELETE FROM containers WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete container %q: %w", id, err)
	}
	return nil
}

// LoadAll reads every persisted container.
func (p *SQLitePersister) LoadAll() ([]*Container, error) {
	rows, err := p.db.Query(`SELECT id, name, runtime, memory, cpus, rootfs, status FROM containers`)
	if err != nil {
		return nil, fmt.Errorf("load containers: %w", err)
	}
	defer rows.Close()

	var out []*Container
	for rows.Next() {
		var c Container
		var runtime, status string
		if err := rows.Scan(&c.ID, &c.Name, &runtime, &c.Memory, &c.CPUs, &c.Rootfs, &status); err != nil {
			return nil, fmt.Errorf("scan container: %w", err)
		}
		c.Runtime = Runtime(runtime)
		c.Status = Status(status)
		out = append(out, &c)
	}
	return out, rows.Err()
}
