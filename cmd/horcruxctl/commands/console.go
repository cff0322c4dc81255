package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

func newConsoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Interactive admin console (list jobs, run-now, smb status)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole()
		},
	}
}

// runConsole is a small REPL over the same operations the job/smb/container
// subcommands expose, for an admin who wants to poke around without typing
// a full command line each time.
func runConsole() error {
	app, err := newAppContext(configPath, verbose)
	if err != nil {
		return err
	}
	defer app.Close()

	rl, err := readline.New("horcruxctl> ")
	if err != nil {
		return fmt.Errorf("starting console: %w", err)
	}
	defer rl.Close()

	fmt.Println("horcruxctl console — type 'help' for commands, 'exit' to quit")
	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
				return nil
			}
			return err
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		if err := dispatchConsoleCommand(app, fields); err != nil {
			if err == errExitConsole {
				return nil
			}
			fmt.Printf("error: %v\n", err)
		}
	}
}

var errExitConsole = errors.New("exit console")

func dispatchConsoleCommand(app *appContext, fields []string) error {
	ctx := context.Background()

	switch fields[0] {
	case "exit", "quit":
		return errExitConsole

	case "help":
		fmt.Println(`commands:
  jobs                     list scheduled jobs
  run-now <job-id>         run a job immediately
  smb-status               show smbd/nmbd/winbindd status
  connections              list active SMB connections
  containers               list containers
  exit                     quit the console`)
		return nil

	case "jobs":
		sched, err := app.scheduler()
		if err != nil {
			return err
		}
		for _, j := range sched.Store.List() {
			fmt.Printf("%s  %-10s  %-20s  enabled=%v\n", j.ID, j.Type, j.Name, j.Enabled)
		}
		return nil

	case "run-now":
		if len(fields) != 2 {
			return fmt.Errorf("usage: run-now <job-id>")
		}
		sched, err := app.scheduler()
		if err != nil {
			return err
		}
		if err := sched.RunNow(ctx, fields[1]); err != nil {
			return err
		}
		fmt.Println("done")
		return nil

	case "smb-status":
		st, err := app.smbAdmin().GetStatus(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("smbd=%v nmbd=%v winbindd=%v connections=%d\n",
			st.SmbdRunning, st.NmbdRunning, st.WinbinddRunning, st.ActiveConnections)
		return nil

	case "connections":
		conns, err := app.smbAdmin().GetConnections(ctx)
		if err != nil {
			return err
		}
		for _, c := range conns {
			fmt.Printf("pid=%-8d user=%-12s share=%s\n", c.PID, c.Username, c.Share)
		}
		return nil

	case "containers":
		mgr, err := app.containers()
		if err != nil {
			return err
		}
		for _, c := range mgr.List() {
			fmt.Printf("%-16s runtime=%-8s status=%s\n", c.ID, c.Runtime, c.Status)
		}
		return nil

	default:
		return fmt.Errorf("unknown command %q (try 'help')", fields[0])
	}
}
