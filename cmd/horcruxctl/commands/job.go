package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/horcrux-nas/horcruxd/internal/cronexpr"
	"github.com/horcrux-nas/horcruxd/internal/scheduler"
)

func newJobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Manage scheduled jobs",
	}
	cmd.AddCommand(newJobListCmd())
	cmd.AddCommand(newJobAddCmd())
	cmd.AddCommand(newJobRemoveCmd())
	cmd.AddCommand(newJobRunNowCmd())
	cmd.AddCommand(newJobHistoryCmd())
	return cmd
}

func newJobListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List scheduled jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(configPath, verbose)
			if err != nil {
				return err
			}
			defer app.Close()

			sched, err := app.scheduler()
			if err != nil {
				return err
			}

			jobs := sched.Store.List()
			if len(jobs) == 0 {
				fmt.Println("no scheduled jobs")
				return nil
			}
			for _, j := range jobs {
				status := "enabled"
				if !j.Enabled {
					status = "disabled"
				}
				next := "-"
				if j.NextRun != nil {
					next = j.NextRun.Format("2006-01-02 15:04:05")
				}
				fmt.Printf("%s  %-10s  %-20s  %-8s  next=%s  last=%s\n",
					j.ID, j.Type, j.Name, status, next, j.LastStatus)
			}
			return nil
		},
	}
}

func newJobAddCmd() *cobra.Command {
	var (
		name      string
		jobType   string
		schedule  string
		target    string
		priority  int
		startup   bool
		interactive bool
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a scheduled job",
		RunE: func(cmd *cobra.Command, args []string) error {
			if interactive || (name == "" && jobType == "") {
				if err := promptJobForm(&name, &jobType, &schedule, &target, &priority, &startup); err != nil {
					return err
				}
			}

			parsedSchedule, err := cronexpr.Parse(schedule)
			if err != nil {
				return fmt.Errorf("invalid schedule %q: %w", schedule, err)
			}

			app, err := newAppContext(configPath, verbose)
			if err != nil {
				return err
			}
			defer app.Close()

			sched, err := app.scheduler()
			if err != nil {
				return err
			}

			job := &scheduler.Job{
				Name:         name,
				Type:         scheduler.JobType(jobType),
				Schedule:     parsedSchedule,
				Target:       target,
				Enabled:      true,
				RunOnStartup: startup,
				Priority:     priority,
			}
			added, err := sched.AddJob(job)
			if err != nil {
				return err
			}
			fmt.Printf("added job %s (%s)\n", added.ID, added.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "job name")
	cmd.Flags().StringVar(&jobType, "type", "", "job type (snapshot, retention_cleanup, replication, scrub, resilver, quota_check, health_check, s3_cleanup, smart_check, custom)")
	cmd.Flags().StringVar(&schedule, "schedule", "", "cron expression")
	cmd.Flags().StringVar(&target, "target", "", "dataset/share/pool/host the job acts on")
	cmd.Flags().IntVar(&priority, "priority", 0, "tie-breaking priority, lower value runs first")
	cmd.Flags().BoolVar(&startup, "run-on-startup", false, "also run once when horcruxd starts")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "prompt for fields instead of using flags")
	return cmd
}

// promptJobForm collects job fields through an interactive form, used when
// add is invoked with no flags or --interactive.
func promptJobForm(name, jobType, schedule, target *string, priority *int, startup *bool) error {
	var priorityStr string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Job name").Value(name),
			huh.NewSelect[string]().
				Title("Job type").
				Options(
					huh.NewOption("snapshot", "snapshot"),
					huh.NewOption("retention_cleanup", "retention_cleanup"),
					huh.NewOption("replication", "replication"),
					huh.NewOption("scrub", "scrub"),
					huh.NewOption("resilver", "resilver"),
					huh.NewOption("quota_check", "quota_check"),
					huh.NewOption("health_check", "health_check"),
					huh.NewOption("s3_cleanup", "s3_cleanup"),
					huh.NewOption("smart_check", "smart_check"),
					huh.NewOption("custom", "custom"),
				).
				Value(jobType),
			huh.NewInput().Title("Cron schedule").Placeholder("0 2 * * *").Value(schedule),
			huh.NewInput().Title("Target (dataset/share/pool/host)").Value(target),
			huh.NewInput().Title("Priority").Placeholder("0").Value(&priorityStr),
			huh.NewConfirm().Title("Run once on daemon startup?").Value(startup),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("job form: %w", err)
	}

	priorityStr = strings.TrimSpace(priorityStr)
	if priorityStr != "" {
		p, err := strconv.Atoi(priorityStr)
		if err != nil {
			return fmt.Errorf("invalid priority %q: %w", priorityStr, err)
		}
		*priority = p
	}
	return nil
}

func newJobRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <job-id>",
		Short: "Remove a scheduled job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(configPath, verbose)
			if err != nil {
				return err
			}
			defer app.Close()

			sched, err := app.scheduler()
			if err != nil {
				return err
			}
			if err := sched.RemoveJob(args[0]); err != nil {
				return err
			}
			fmt.Printf("removed job %s\n", args[0])
			return nil
		},
	}
}

func newJobRunNowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run-now <job-id>",
		Short: "Run a scheduled job immediately, outside its schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(configPath, verbose)
			if err != nil {
				return err
			}
			defer app.Close()

			sched, err := app.scheduler()
			if err != nil {
				return err
			}
			ctx := context.Background()
			if err := sched.RunNow(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("job %s completed\n", args[0])
			return nil
		},
	}
}

// newJobHistoryCmd reports a job's last-run summary from the persisted
// store. Full per-execution history lives only in horcruxd's in-memory
// ring buffer (see internal/scheduler.History) and isn't durable across
// processes, so a freshly-started horcruxctl has nothing to read for it;
// the durable summary fields (LastRun/LastStatus/LastDurationMs/LastError)
// are what survive a restart and are what this command reports.
func newJobHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <job-id>",
		Short: "Show a job's last recorded execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(configPath, verbose)
			if err != nil {
				return err
			}
			defer app.Close()

			sched, err := app.scheduler()
			if err != nil {
				return err
			}
			j, err := sched.Store.Get(args[0])
			if err != nil {
				return err
			}
			if j.LastRun == nil {
				fmt.Printf("%s (%s): never run\n", j.ID, j.Name)
				return nil
			}
			fmt.Printf("%s (%s): status=%s started=%s duration=%dms\n",
				j.ID, j.Name, j.LastStatus, j.LastRun.Format("2006-01-02 15:04:05"), j.LastDurationMs)
			if j.LastError != "" {
				fmt.Printf("    error: %s\n", j.LastError)
			}
			return nil
		},
	}
}
