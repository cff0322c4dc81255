package commands

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/horcrux-nas/horcruxd/internal/smb"
)

func newSMBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "smb",
		Short: "Manage the Samba control plane",
	}
	cmd.AddCommand(newSMBSharesCmd())
	cmd.AddCommand(newSMBShareShowCmd())
	cmd.AddCommand(newSMBShareSetCmd())
	cmd.AddCommand(newSMBShareRemoveCmd())
	cmd.AddCommand(newSMBConnectionsCmd())
	cmd.AddCommand(newSMBDisconnectCmd())
	cmd.AddCommand(newSMBStatusCmd())
	cmd.AddCommand(newSMBServiceCmd())
	cmd.AddCommand(newSMBUserCmd())
	return cmd
}

func newSMBSharesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shares",
		Short: "List configured shares",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(configPath, verbose)
			if err != nil {
				return err
			}
			defer app.Close()

			shares, err := app.smbAdmin().ListShares()
			if err != nil {
				return err
			}
			for _, s := range shares {
				fmt.Println(s)
			}
			return nil
		},
	}
}

func newSMBShareShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "share-show <name>",
		Short: "Show a share's raw smb.conf parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(configPath, verbose)
			if err != nil {
				return err
			}
			defer app.Close()

			params, err := app.smbAdmin().GetShareConfig(args[0])
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(params))
			for k := range params {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("%s = %s\n", k, params[k])
			}
			return nil
		},
	}
}

func newSMBShareSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "share-set <name> <key> <value>",
		Short: "Set one smb.conf parameter on a share and reload",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(configPath, verbose)
			if err != nil {
				return err
			}
			defer app.Close()

			return app.smbAdmin().UpdateShareParam(context.Background(), args[0], args[1], args[2])
		},
	}
}

func newSMBShareRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "share-remove <name>",
		Short: "Remove a share's section from smb.conf",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(configPath, verbose)
			if err != nil {
				return err
			}
			defer app.Close()

			return app.smbAdmin().RemoveShareSection(args[0])
		},
	}
}

func newSMBConnectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connections",
		Short: "List active SMB connections",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(configPath, verbose)
			if err != nil {
				return err
			}
			defer app.Close()

			conns, err := app.smbAdmin().GetConnections(context.Background())
			if err != nil {
				return err
			}
			for _, c := range conns {
				fmt.Printf("pid=%-8d user=%-12s share=%-12s machine=%-15s protocol=%s\n",
					c.PID, c.Username, c.Share, c.Machine, c.Protocol)
			}
			return nil
		},
	}
}

func newSMBDisconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect <pid>",
		Short: "Force-disconnect a session by PID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid pid %q: %w", args[0], err)
			}
			app, err := newAppContext(configPath, verbose)
			if err != nil {
				return err
			}
			defer app.Close()

			return app.smbAdmin().DisconnectSession(context.Background(), pid)
		},
	}
}

func newSMBStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show smbd/nmbd/winbindd status and connection counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(configPath, verbose)
			if err != nil {
				return err
			}
			defer app.Close()

			st, err := app.smbAdmin().GetStatus(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("smbd=%v nmbd=%v winbindd=%v version=%s connections=%d open_files=%d\n",
				st.SmbdRunning, st.NmbdRunning, st.WinbinddRunning, st.Version, st.ActiveConnections, st.OpenFiles)
			return nil
		},
	}
}

func newSMBServiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service <start|stop|restart|reload|test>",
		Short: "Control the Samba service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(configPath, verbose)
			if err != nil {
				return err
			}
			defer app.Close()

			admin := app.smbAdmin()
			ctx := context.Background()
			switch args[0] {
			case "start":
				return admin.Start(ctx)
			case "stop":
				return admin.Stop(ctx)
			case "restart":
				return admin.Restart(ctx)
			case "reload":
				return admin.Reload(ctx)
			case "test":
				ok, err := admin.TestConfig(ctx)
				if err != nil {
					return err
				}
				if ok {
					fmt.Println("smb.conf is valid")
				} else {
					fmt.Println("smb.conf is invalid")
				}
				return nil
			default:
				return fmt.Errorf("unknown service action %q (want start|stop|restart|reload|test)", args[0])
			}
		},
	}
	return cmd
}

func newSMBUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage Samba users",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List Samba users",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(configPath, verbose)
			if err != nil {
				return err
			}
			defer app.Close()

			users, err := app.smbAdmin().ListUsers(context.Background())
			if err != nil {
				return err
			}
			for _, u := range users {
				fmt.Printf("%-16s uid=%-8d flags=%-8s name=%s\n", u.Username, u.UID, u.Flags, u.FullName)
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add <username>",
		Short: "Add a Samba user, prompting for a password twice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(configPath, verbose)
			if err != nil {
				return err
			}
			defer app.Close()

			password, err := promptAndConfirmPassword(args[0])
			if err != nil {
				return err
			}
			return app.smbAdmin().AddUser(context.Background(), args[0], password)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "passwd <username>",
		Short: "Change a Samba user's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(configPath, verbose)
			if err != nil {
				return err
			}
			defer app.Close()

			password, err := promptAndConfirmPassword(args[0])
			if err != nil {
				return err
			}
			return app.smbAdmin().SetUserPassword(context.Background(), args[0], password)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "enable <username>",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(configPath, verbose)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.smbAdmin().EnableUser(context.Background(), args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "disable <username>",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(configPath, verbose)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.smbAdmin().DisableUser(context.Background(), args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <username>",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(configPath, verbose)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.smbAdmin().DeleteUser(context.Background(), args[0])
		},
	})
	return cmd
}

// promptAndConfirmPassword reads a password for username twice and returns
// an error unless both entries match, mirroring smbpasswd's own interactive
// double-prompt.
func promptAndConfirmPassword(username string) (string, error) {
	first, err := smb.PromptPassword(fmt.Sprintf("New password for %s: ", username))
	if err != nil {
		return "", err
	}
	second, err := smb.PromptPassword(fmt.Sprintf("Retype password for %s: ", username))
	if err != nil {
		return "", err
	}
	if first != second {
		return "", fmt.Errorf("passwords do not match")
	}
	return first, nil
}
