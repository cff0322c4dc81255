package commands

import (
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

// NewRootCmd builds the horcruxctl command tree.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:     "horcruxctl",
		Short:   "Administrative CLI for the horcruxd NAS control plane",
		Version: version,
		Long: `horcruxctl manages scheduled jobs, SMB shares and sessions, and
containers on a Horcrux NAS appliance.

It operates directly on the shared SQLite job store, smb.conf, and
container runtime CLI tools — the same state horcruxd itself reads and
writes — so commands take effect immediately, whether or not horcruxd
is running.

Examples:
  horcruxctl job list
  horcruxctl job run-now <job-id>
  horcruxctl smb shares
  horcruxctl container list`,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the daemon config file (default: search standard locations)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newJobCmd())
	root.AddCommand(newSMBCmd())
	root.AddCommand(newContainerCmd())
	root.AddCommand(newConsoleCmd())

	return root
}
