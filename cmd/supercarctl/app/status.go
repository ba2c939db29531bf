package app

import (
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	genericapiserver "k8s.io/apiserver/pkg/server"

	"cloupeer.io/supercar/internal/supercar/status"
	"cloupeer.io/supercar/pkg/log"
)

func (c *cli) newStatusCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the power and motion status of the vehicle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(output); err != nil {
				return err
			}

			view, err := c.opts.Config().NewStatusView()
			if err != nil {
				return err
			}

			s, err := view.Poll(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to read status: %w", err)
			}
			return printStatus(cmd.OutOrStdout(), s, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", formatTable, "Output format. One of: table, json, yaml.")

	cmd.AddCommand(c.newStatusWatchCommand())
	return cmd
}

func (c *cli) newStatusWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Poll the status until interrupted",
		Long: `Poll the status at --device.poll-interval and print every change of the
power state. With --http.addr the latest status is served on /status and
/metrics; with --mqtt.broker it is relayed to the broker.

When a configuration file is given, edits to it are picked up without a
restart; the poll interval follows the file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := genericapiserver.SetupSignalContext()

			watcher, err := c.opts.Config().NewWatcher()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			last := ""
			watcher.View().Subscribe(func(s status.Status) {
				if d := s.Display(); d != last {
					last = d
					fmt.Fprintf(out, "%s\t%s\n", time.Now().Format(time.RFC3339), d)
				}
			})

			if c.app.WatchConfig(func(fsnotify.Event) {
				watcher.SetInterval(c.opts.Device.PollInterval)
			}) {
				log.Info("Watching configuration file for changes")
			}

			return watcher.Run(ctx)
		},
	}
}
