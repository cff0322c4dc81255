// Command horcruxctl is the administrative CLI for horcruxd: it manages
// scheduled jobs, SMB shares and sessions, and containers by operating
// directly on the shared SQLite job store, smb.conf, and runtime CLI
// tools — the same files and commands horcruxd itself uses, rather than
// talking to a running daemon over a network API.
package main

import (
	"fmt"
	"os"

	"github.com/horcrux-nas/horcruxd/cmd/horcruxctl/commands"
)

var version = "dev"

func main() {
	rootCmd := commands.NewRootCmd(version)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "horcruxctl: %v\n", err)
		os.Exit(1)
	}
}
