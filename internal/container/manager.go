package container

import (
	"context"
	"sync"

	"github.com/horcrux-nas/horcruxd/internal/horcruxerr"
)

// Manager holds the id→Container registry and one Backend per runtime.
type Manager struct {
	mu         sync.RWMutex
	containers map[string]*Container
	backends   map[Runtime]Backend
	persister  Persister
}

// NewManager returns a Manager with no containers and no backends
// registered; call RegisterBackend for each runtime it should support.
func NewManager() *Manager {
	return &Manager{
		containers: make(map[string]*Container),
		backends:   make(map[Runtime]Backend),
	}
}

// SetPersister attaches a Persister that every subsequent Create/Start/
// Stop/Refresh/Delete mutation is saved through, mirroring
// scheduler.Scheduler.SetPersister. Call LoadPersisted to seed the
// in-memory registry from it first.
func (m *Manager) SetPersister(p Persister) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.persister = p
}

// LoadPersisted replaces the registry's contents with containers loaded
// from persistence, e.g. at the start of a CLI invocation so it sees
// containers created by a previous one.
func (m *Manager) LoadPersisted(containers []*Container) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.containers = make(map[string]*Container, len(containers))
	for _, c := range containers {
		m.containers[c.ID] = c
	}
}

// RegisterBackend wires a Backend for one runtime. Calling it twice for the
// same runtime replaces the previous backend.
func (m *Manager) RegisterBackend(runtime Runtime, backend Backend) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backends[runtime] = backend
}

// save persists c if a Persister is attached, logging nothing and
// returning the error to the caller to handle (wrapped as Internal, since
// a persistence failure after a successful backend operation is an
// infrastructure problem, not a validation one).
func (m *Manager) save(c *Container) error {
	m.mu.RLock()
	p := m.persister
	m.mu.RUnlock()
	if p == nil {
		return nil
	}
	if err := p.Save(c); err != nil {
		return horcruxerr.InternalErr("persist container %s: %v", c.ID, err)
	}
	return nil
}

func (m *Manager) backendFor(runtime Runtime) (Backend, error) {
	b, ok := m.backends[runtime]
	if !ok {
		return nil, horcruxerr.ValidationErr("no backend registered for runtime %q", runtime)
	}
	return b, nil
}

// List returns every known container, in no particular order.
func (m *Manager) List() []*Container {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Container, 0, len(m.containers))
	for _, c := range m.containers {
		out = append(out, c)
	}
	return out
}

// Get returns the container with the given id, or NotFound.
func (m *Manager) Get(id string) (*Container, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.containers[id]
	if !ok {
		return nil, horcruxerr.NotFoundErr("container %q not found", id)
	}
	return c, nil
}

// Create registers a new container and delegates provisioning to its
// runtime's backend. A duplicate id is rejected with Validation before any
// backend is touched.
func (m *Manager) Create(ctx context.Context, c Container) (*Container, error) {
	m.mu.Lock()
	if _, exists := m.containers[c.ID]; exists {
		m.mu.Unlock()
		return nil, horcruxerr.ValidationErr("container %q already exists", c.ID)
	}
	backend, err := m.backendFor(c.Runtime)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.mu.Unlock()

	created := c
	if err := backend.Create(ctx, &created); err != nil {
		return nil, horcruxerr.InternalErr("create container %s: %v", c.ID, err)
	}
	created.Status = StatusCreated

	m.mu.Lock()
	m.containers[created.ID] = &created
	m.mu.Unlock()

	if err := m.save(&created); err != nil {
		return &created, err
	}
	return &created, nil
}

// Start starts an existing container.
func (m *Manager) Start(ctx context.Context, id string) (*Container, error) {
	return m.dispatch(ctx, id, func(backend Backend, c *Container) error {
		return backend.Start(ctx, c)
	}, StatusRunning)
}

// Stop stops an existing container.
func (m *Manager) Stop(ctx context.Context, id string) (*Container, error) {
	return m.dispatch(ctx, id, func(backend Backend, c *Container) error {
		return backend.Stop(ctx, c)
	}, StatusStopped)
}

func (m *Manager) dispatch(ctx context.Context, id string, op func(Backend, *Container) error, onSuccess Status) (*Container, error) {
	m.mu.RLock()
	c, ok := m.containers[id]
	if !ok {
		m.mu.RUnlock()
		return nil, horcruxerr.NotFoundErr("container %q not found", id)
	}
	backend, err := m.backendFor(c.Runtime)
	m.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	if err := op(backend, c); err != nil {
		return nil, horcruxerr.InternalErr("container %s: %v", id, err)
	}

	m.mu.Lock()
	c.Status = onSuccess
	m.mu.Unlock()
	if err := m.save(c); err != nil {
		return c, err
	}
	return c, nil
}

// Delete stops tracking a container and asks its backend to tear it down.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	c, ok := m.containers[id]
	if !ok {
		m.mu.Unlock()
		return horcruxerr.NotFoundErr("container %q not found", id)
	}
	backend, err := m.backendFor(c.Runtime)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	delete(m.containers, id)
	m.mu.Unlock()

	if err := backend.Delete(ctx, c); err != nil {
		return horcruxerr.InternalErr("delete container %s: %v", id, err)
	}

	m.mu.RLock()
	p := m.persister
	m.mu.RUnlock()
	if p != nil {
		if err := p.Delete(id); err != nil {
			return horcruxerr.InternalErr("delete persisted container %s: %v", id, err)
		}
	}
	return nil
}

// Refresh re-reads a container's status through to its backend and updates
// the registry entry.
func (m *Manager) Refresh(ctx context.Context, id string) (*Container, error) {
	m.mu.RLock()
	c, ok := m.containers[id]
	if !ok {
		m.mu.RUnlock()
		return nil, horcruxerr.NotFoundErr("container %q not found", id)
	}
	backend, err := m.backendFor(c.Runtime)
	m.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	status, err := backend.Refresh(ctx, c)
	if err != nil {
		return nil, horcruxerr.InternalErr("refresh container %s: %v", id, err)
	}

	m.mu.Lock()
	c.Status = status
	m.mu.Unlock()
	if err := m.save(c); err != nil {
		return c, err
	}
	return c, nil
}
