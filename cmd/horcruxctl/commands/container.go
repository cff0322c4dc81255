package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/horcrux-nas/horcruxd/internal/container"
)

func newContainerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "container",
		Short: "Manage containers across LXC, LXD, Incus, Docker, and Podman",
	}
	cmd.AddCommand(newContainerListCmd())
	cmd.AddCommand(newContainerCreateCmd())
	cmd.AddCommand(newContainerStartCmd())
	cmd.AddCommand(newContainerStopCmd())
	cmd.AddCommand(newContainerDeleteCmd())
	cmd.AddCommand(newContainerRefreshCmd())
	return cmd
}

func newContainerListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List containers",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(configPath, verbose)
			if err != nil {
				return err
			}
			defer app.Close()

			mgr, err := app.containers()
			if err != nil {
				return err
			}
			for _, c := range mgr.List() {
				fmt.Printf("%-16s %-10s runtime=%-8s status=%-8s memory=%d cpus=%d\n",
					c.ID, c.Name, c.Runtime, c.Status, c.Memory, c.CPUs)
			}
			return nil
		},
	}
}

func newContainerCreateCmd() *cobra.Command {
	var (
		runtime string
		image   string
		memory  uint64
		cpus    uint32
	)
	cmd := &cobra.Command{
		Use:   "create <id> <name>",
		Short: "Create a container",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(configPath, verbose)
			if err != nil {
				return err
			}
			defer app.Close()

			mgr, err := app.containers()
			if err != nil {
				return err
			}
			c, err := mgr.Create(context.Background(), container.Container{
				ID:      args[0],
				Name:    args[1],
				Runtime: container.Runtime(runtime),
				Memory:  memory,
				CPUs:    cpus,
				Rootfs:  image,
			})
			if err != nil {
				return err
			}
			fmt.Printf("created %s (%s) status=%s\n", c.ID, c.Runtime, c.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&runtime, "runtime", "", "lxc|lxd|incus|docker|podman")
	cmd.Flags().StringVar(&image, "image", "", "image reference or rootfs template")
	cmd.Flags().Uint64Var(&memory, "memory", 0, "memory limit in bytes (0 = unset)")
	cmd.Flags().Uint32Var(&cpus, "cpus", 0, "CPU limit (0 = unset)")
	cmd.MarkFlagRequired("runtime")
	return cmd
}

func newContainerStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <id>",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(configPath, verbose)
			if err != nil {
				return err
			}
			defer app.Close()

			mgr, err := app.containers()
			if err != nil {
				return err
			}
			_, err = mgr.Start(context.Background(), args[0])
			return err
		},
	}
}

func newContainerStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <id>",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(configPath, verbose)
			if err != nil {
				return err
			}
			defer app.Close()

			mgr, err := app.containers()
			if err != nil {
				return err
			}
			_, err = mgr.Stop(context.Background(), args[0])
			return err
		},
	}
}

func newContainerDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(configPath, verbose)
			if err != nil {
				return err
			}
			defer app.Close()

			mgr, err := app.containers()
			if err != nil {
				return err
			}
			return mgr.Delete(context.Background(), args[0])
		},
	}
}

func newContainerRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh <id>",
		Short: "Read the container's live status from its runtime backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(configPath, verbose)
			if err != nil {
				return err
			}
			defer app.Close()

			mgr, err := app.containers()
			if err != nil {
				return err
			}
			c, err := mgr.Refresh(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s status=%s\n", c.ID, c.Status)
			return nil
		},
	}
}
