// Command horcruxd is the control-plane daemon: it loads configuration,
// opens the shared SQLite job store, and runs the scheduler loop that
// dispatches due jobs to their task handlers until it receives a shutdown
// signal. SMB and container administration are driven out-of-process by
// horcruxctl against the same smb.conf and runtime CLI tools, rather than
// through this daemon.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/horcrux-nas/horcruxd/internal/config"
	"github.com/horcrux-nas/horcruxd/internal/scheduler"
	"github.com/horcrux-nas/horcruxd/internal/storage"
	"github.com/horcrux-nas/horcruxd/internal/tasks"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "horcruxd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := config.FindConfigFile()
	var cfg *config.Config
	if configPath != "" {
		loaded, err := config.LoadFromFile(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	logLevel := slog.LevelInfo
	if cfg.Logging.Level == "debug" {
		logLevel = slog.LevelDebug
	}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	}
	logger := slog.New(handler)

	db, err := storage.OpenDatabaseWithConfig(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	deps := &tasks.Deps{
		Snapshots:   storage.NewCLISnapshotService(),
		Replication: storage.NewCLIReplicationService(cfg.Replication.SSHUser, nil),
		Quotas:      storage.NewCLIQuotaService(),
		Services:    storage.NewCLIServiceProbe(),
		Pools:       storage.NewCLIPoolService(),
		Scrub:       storage.NewCLIScrubService(),
		Smart:       storage.NewCLISmartProbe(),
		Scripts:     storage.NewShellScriptRunner(),
	}

	sched := scheduler.New(tasks.Dispatch(deps, logger), cfg.Scheduler.MaxHistory, logger)
	persister := scheduler.NewSQLitePersister(db)
	sched.SetPersister(persister)

	if err := loadPersistedJobs(sched, persister, logger); err != nil {
		logger.Warn("failed to load persisted jobs", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}

	logger.Info("horcruxd running", "version", version, "config", configPath)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received, stopping scheduler")
	stopTimeout := time.Duration(cfg.Scheduler.StopTimeoutSeconds) * time.Second
	if err := sched.Stop(stopTimeout); err != nil {
		logger.Warn("scheduler stop reported an error", "error", err)
	}

	return nil
}

// loadPersistedJobs restores jobs saved by a prior run into the scheduler's
// store, recomputing next-fire times against the current time rather than
// trusting whatever was last persisted — the appliance may have been
// powered off past several scheduled fire times.
func loadPersistedJobs(sched *scheduler.Scheduler, persister *scheduler.SQLitePersister, logger *slog.Logger) error {
	jobs, err := persister.LoadAll()
	if err != nil {
		return err
	}
	sched.LoadPersisted(jobs, time.Now().UTC())
	logger.Info("loaded persisted jobs", "count", len(jobs))
	return nil
}
