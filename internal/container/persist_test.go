package container

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/horcrux-nas/horcruxd/internal/storage"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.OpenDatabase(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("OpenDatabase: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLitePersisterRoundTrip(t *testing.T) {
	db := openTestDB(t)
	p := NewSQLitePersister(db)

	c := &Container{ID: "c1", Name: "c1", Runtime: RuntimeDocker, Memory: 512, CPUs: 2, Rootfs: "alpine:latest", Status: StatusCreated}
	if err := p.Save(c); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := p.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("len(loaded) = %d, want 1", len(loaded))
	}
	if loaded[0].ID != "c1" || loaded[0].Runtime != RuntimeDocker || loaded[0].Memory != 512 {
		t.Errorf("loaded = %+v, want match for c1", loaded[0])
	}

	if err := p.Delete("c1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	loaded, err = p.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll after delete: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("len(loaded) after delete = %d, want 0", len(loaded))
	}
}

func TestManagerPersistsAcrossLoad(t *testing.T) {
	db := openTestDB(t)
	p := NewSQLitePersister(db)

	m1 := NewManager()
	fb := &fakeBackend{}
	m1.RegisterBackend(RuntimeLXC, fb)
	m1.SetPersister(p)

	ctx := context.Background()
	if _, err := m1.Create(ctx, Container{ID: "c1", Name: "c1", Runtime: RuntimeLXC}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := m1.Start(ctx, "c1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	m2 := NewManager()
	m2.RegisterBackend(RuntimeLXC, fb)
	m2.SetPersister(p)
	loaded, err := p.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	m2.LoadPersisted(loaded)

	c, err := m2.Get("c1")
	if err != nil {
		t.Fatalf("Get after reload: %v", err)
	}
	if c.Status != StatusRunning {
		t.Errorf("status after reload = %v, want Running (persisted from m1)", c.Status)
	}
}
