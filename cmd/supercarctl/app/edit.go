package app

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"cloupeer.io/supercar/internal/supercar/form"
	"cloupeer.io/supercar/internal/supercar/route"
	"cloupeer.io/supercar/internal/tui"
	"cloupeer.io/supercar/pkg/log"
)

func (c *cli) newEditCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit a configuration in an interactive form",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "main",
		Short: "Edit the vehicle configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runForm(cmd.Context(), route.Main, "")
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "motor [propulsion|steering]",
		Short: "Edit a motor configuration",
		Long: `Edit the configuration of a motor. Without an argument the form starts
empty; press ctrl+t to pick the motor.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: route.Targets(),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := ""
			if len(args) == 1 {
				target = args[0]
				if _, err := route.Resolve(route.Motor, target); err != nil {
					return err
				}
			}
			return c.runForm(cmd.Context(), route.Motor, target)
		},
	})

	return cmd
}

func (c *cli) runForm(ctx context.Context, r route.Route, target string) error {
	rc, err := c.opts.Config().NewRemoteClient()
	if err != nil {
		return err
	}

	// The form owns the terminal.
	if c.opts.Log.WritesToTerminal() {
		lo := *c.opts.Log
		lo.OutputPaths = []string{filepath.Join(os.TempDir(), commandName+".log")}
		lo.EnableColor = false
		log.Init(&lo)
	}
	defer func() { _ = log.Sync() }()

	return tui.RunForm(ctx, form.NewController(r, rc), r, target)
}
