package commands

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/horcrux-nas/horcruxd/internal/config"
	"github.com/horcrux-nas/horcruxd/internal/container"
	"github.com/horcrux-nas/horcruxd/internal/scheduler"
	"github.com/horcrux-nas/horcruxd/internal/smb"
	"github.com/horcrux-nas/horcruxd/internal/storage"
	"github.com/horcrux-nas/horcruxd/internal/tasks"
)

// appContext bundles everything a subcommand needs: the resolved config, a
// handle on the shared database, and constructors for the scheduler/SMB/
// container surfaces. It owns the database connection, so callers must
// call Close when done.
type appContext struct {
	Config *config.Config
	DB     *sql.DB
	Logger *slog.Logger
}

// newAppContext loads configuration (from --config, or the standard search
// path, or defaults) and opens the shared database. It does not start the
// scheduler's ticking loop — horcruxctl issues one-shot operations against
// the store and lets horcruxd own the schedule.
func newAppContext(configPath string, verbose bool) (*appContext, error) {
	var cfg *config.Config
	if configPath == "" {
		configPath = config.FindConfigFile()
	}
	if configPath != "" {
		loaded, err := config.LoadFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config %q: %w", configPath, err)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	db, err := storage.OpenDatabaseWithConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", cfg.Database.Path, err)
	}

	return &appContext{Config: cfg, DB: db, Logger: logger}, nil
}

func (a *appContext) Close() error {
	return a.DB.Close()
}

// scheduler builds a Scheduler wired to the shared store and the same task
// handlers horcruxd dispatches through, with every persisted job loaded,
// but never Start()s its ticking loop — horcruxctl mutates jobs and runs
// them on demand (run-now), leaving periodic dispatch to horcruxd.
func (a *appContext) scheduler() (*scheduler.Scheduler, error) {
	deps := &tasks.Deps{
		Snapshots:   storage.NewCLISnapshotService(),
		Replication: storage.NewCLIReplicationService(a.Config.Replication.SSHUser, nil),
		Quotas:      storage.NewCLIQuotaService(),
		Services:    storage.NewCLIServiceProbe(),
		Pools:       storage.NewCLIPoolService(),
		Scrub:       storage.NewCLIScrubService(),
		Smart:       storage.NewCLISmartProbe(),
		Scripts:     storage.NewShellScriptRunner(),
	}
	sched := scheduler.New(tasks.Dispatch(deps, a.Logger), a.Config.Scheduler.MaxHistory, a.Logger)
	persister := scheduler.NewSQLitePersister(a.DB)
	sched.SetPersister(persister)

	jobs, err := persister.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("loading jobs: %w", err)
	}
	sched.LoadPersisted(jobs, time.Now().UTC())
	return sched, nil
}

// smbAdmin builds an Admin against the configured smb.conf path.
func (a *appContext) smbAdmin() *smb.Admin {
	return smb.NewAdmin(a.Config.SMB.ConfigPath)
}

// containers builds a container Manager with every known runtime backend
// registered and its registry loaded from the shared database, so a
// container created by a previous horcruxctl invocation (or by horcruxd)
// is visible here too.
func (a *appContext) containers() (*container.Manager, error) {
	m := container.NewManager()
	m.RegisterBackend(container.RuntimeLXC, container.NewLXCBackend())
	m.RegisterBackend(container.RuntimeLXD, container.NewLXDBackend())
	m.RegisterBackend(container.RuntimeIncus, container.NewIncusBackend())
	m.RegisterBackend(container.RuntimeDocker, container.NewDockerBackend())
	m.RegisterBackend(container.RuntimePodman, container.NewPodmanBackend())

	persister := container.NewSQLitePersister(a.DB)
	m.SetPersister(persister)

	existing, err := persister.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("loading containers: %w", err)
	}
	m.LoadPersisted(existing)
	return m, nil
}
