package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cloupeer.io/supercar/internal/supercar/form"
	"cloupeer.io/supercar/internal/supercar/route"
	"cloupeer.io/supercar/internal/supercar/schema"
)

func (c *cli) newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read or replace a configuration of the vehicle",
	}
	cmd.AddCommand(c.newConfigGetCommand(), c.newConfigSetCommand())
	return cmd
}

func kindNames() []string {
	var names []string
	for _, k := range schema.Kinds() {
		names = append(names, string(k))
	}
	return names
}

func (c *cli) newConfigGetCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:       "get KIND",
		Short:     "Print a configuration (main, propulsion or steering)",
		Args:      cobra.ExactArgs(1),
		ValidArgs: kindNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(output); err != nil {
				return err
			}

			kind, err := schema.ParseKind(args[0])
			if err != nil {
				return err
			}
			b, err := bindingFor(kind)
			if err != nil {
				return err
			}

			rc, err := c.opts.Config().NewRemoteClient()
			if err != nil {
				return err
			}
			record, err := rc.FetchResource(cmd.Context(), b.Path)
			if err != nil {
				return fmt.Errorf("failed to load %s configuration: %w", kind, err)
			}

			s, _ := schema.Lookup(kind)
			return printConfig(cmd.OutOrStdout(), s, record, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", formatTable, "Output format. One of: table, json, yaml.")
	return cmd
}

func (c *cli) newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KIND FIELD=VALUE...",
		Short: "Change configuration fields and replace the configuration on the device",
		Long: `Load the configuration of KIND, apply the given assignments and send the
full configuration back. Nothing is sent when a field is invalid.`,
		Example: `  supercarctl config set main max_speed=60 delta_speed=5
  supercarctl config set steering pwm_freq=2000`,
		Args:      cobra.MinimumNArgs(2),
		ValidArgs: kindNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := schema.ParseKind(args[0])
			if err != nil {
				return err
			}
			assignments, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}

			r, target, err := route.ForKind(kind)
			if err != nil {
				return err
			}
			rc, err := c.opts.Config().NewRemoteClient()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			ctrl := form.NewController(r, rc)
			if err := ctrl.Activate(ctx, target); err != nil {
				return fmt.Errorf("failed to load %s configuration: %w", kind, err)
			}
			for _, a := range assignments {
				if err := ctrl.Edit(a.field, a.value); err != nil {
					return err
				}
			}

			if err := ctrl.Submit(ctx); err != nil {
				var verr *form.ValidationError
				if errors.As(err, &verr) {
					printInvalid(cmd.ErrOrStderr(), ctrl.Snapshot())
				}
				return err
			}

			s, _ := schema.Lookup(kind)
			fmt.Fprintf(cmd.OutOrStdout(), "%s configuration saved\n", s.Title)
			return nil
		},
	}
}

func bindingFor(kind schema.Kind) (route.Binding, error) {
	r, target, err := route.ForKind(kind)
	if err != nil {
		return route.Binding{}, err
	}
	return route.Resolve(r, target)
}

type assignment struct {
	field string
	value string
}

// parseAssignments splits FIELD=VALUE arguments. Later assignments of a field
// override earlier ones when applied in order.
func parseAssignments(args []string) ([]assignment, error) {
	out := make([]assignment, 0, len(args))
	for _, arg := range args {
		field, value, ok := strings.Cut(arg, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid assignment %q, expected FIELD=VALUE", arg)
		}
		out = append(out, assignment{field: field, value: value})
	}
	return out, nil
}
