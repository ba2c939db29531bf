package app

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	cliflag "k8s.io/component-base/cli/flag"

	"cloupeer.io/supercar/pkg/log"
)

const configFlagName = "config"

// RunFunc is the entry point of the application once options are complete and valid.
type RunFunc func() error

// Option configures an App.
type Option func(*App)

// App is the main structure of a command-line application.
type App struct {
	name        string
	shortDesc   string
	description string
	options     NamedFlagSetOptions
	runFunc     RunFunc
	args        cobra.PositionalArgs
	commands    []*cobra.Command

	cmd   *cobra.Command
	viper *viper.Viper
}

// WithOptions opens the application's function to read from the command line
// or read parameters from the configuration file.
func WithOptions(opts NamedFlagSetOptions) Option {
	return func(a *App) {
		a.options = opts
	}
}

// WithRunFunc is used to set the application startup callback function option.
func WithRunFunc(run RunFunc) Option {
	return func(a *App) {
		a.runFunc = run
	}
}

// WithDescription is used to set the description of the application.
func WithDescription(desc string) Option {
	return func(a *App) {
		a.description = desc
	}
}

// WithDefaultValidArgs rejects any positional argument on the root command.
func WithDefaultValidArgs() Option {
	return func(a *App) {
		a.args = func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				if len(arg) > 0 {
					return fmt.Errorf("%q does not take any arguments, got %q", cmd.CommandPath(), args)
				}
			}
			return nil
		}
	}
}

// WithSubCommands registers child commands. They share the root's persistent flags.
func WithSubCommands(cmds ...*cobra.Command) Option {
	return func(a *App) {
		a.commands = append(a.commands, cmds...)
	}
}

// NewApp creates a new application instance based on the given application name
// and other options.
func NewApp(name string, shortDesc string, opts ...Option) *App {
	a := &App{
		name:      name,
		shortDesc: shortDesc,
		viper:     viper.New(),
	}

	for _, o := range opts {
		o(a)
	}

	a.buildCommand()

	return a
}

// Command returns the cobra command of the application.
func (a *App) Command() *cobra.Command {
	return a.cmd
}

// Viper returns the configuration store the options were loaded from.
func (a *App) Viper() *viper.Viper {
	return a.viper
}

// Run executes the application and exits the process on failure.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:           a.name,
		Short:         a.shortDesc,
		Long:          a.description,
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          a.args,
	}
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)
	cmd.Flags().SortFlags = true

	cmd.PersistentFlags().StringP(configFlagName, "c", "", "Read configuration from the specified file, support JSON, TOML, YAML, HCL, or Java properties formats.")

	if a.options != nil {
		namedFlagSets := a.options.Flags()
		fs := cmd.PersistentFlags()
		for _, f := range namedFlagSets.FlagSets {
			fs.AddFlagSet(f)
		}

		cols, _, _ := terminalSize(cmd.OutOrStdout())
		cmd.SetUsageFunc(func(cmd *cobra.Command) error {
			fmt.Fprintf(cmd.OutOrStderr(), "Usage:\n  %s\n", cmd.UseLine())
			if cmd.HasAvailableSubCommands() {
				fmt.Fprintf(cmd.OutOrStderr(), "\nAvailable Commands:\n")
				for _, c := range cmd.Commands() {
					if c.IsAvailableCommand() {
						fmt.Fprintf(cmd.OutOrStderr(), "  %-12s %s\n", c.Name(), c.Short)
					}
				}
			}
			cliflag.PrintSections(cmd.OutOrStderr(), namedFlagSets, cols)
			return nil
		})
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.loadOptions(cmd.Root().PersistentFlags())
	}

	if a.runFunc != nil {
		cmd.RunE = func(cmd *cobra.Command, args []string) error {
			return a.runFunc()
		}
	}

	cmd.AddCommand(a.commands...)
	a.cmd = cmd
}

// loadOptions merges flags, environment and the optional config file into the
// options, then completes and validates them.
func (a *App) loadOptions(fs *pflag.FlagSet) error {
	v := a.viper
	if err := v.BindPFlags(fs); err != nil {
		return err
	}

	v.SetEnvPrefix(strings.ToUpper(strings.ReplaceAll(a.envPrefix(), "-", "_")))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if file, _ := fs.GetString(configFlagName); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read configuration file %q: %w", file, err)
		}
	}

	if a.options == nil {
		return nil
	}

	if err := a.unmarshal(); err != nil {
		return err
	}

	if err := a.options.Complete(); err != nil {
		return err
	}

	if err := a.options.Validate(); err != nil {
		return err
	}

	if l, ok := a.options.(Logger); ok {
		l.InitLog()
	}

	return nil
}

func (a *App) unmarshal() error {
	if err := a.viper.Unmarshal(a.options); err != nil {
		return fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return nil
}

// envPrefix derives the environment prefix from the binary name, e.g.
// "supercarctl" -> "SUPERCAR", "supercar-sim" -> "SUPERCAR_SIM".
func (a *App) envPrefix() string {
	return strings.TrimSuffix(a.name, "ctl")
}

// WatchConfig reloads the options whenever the configuration file changes and
// hands the event to onChange once the reloaded options validated. It is a no-op
// when no configuration file was given.
func (a *App) WatchConfig(onChange func(fsnotify.Event)) bool {
	if a.viper.ConfigFileUsed() == "" {
		return false
	}

	a.viper.OnConfigChange(func(e fsnotify.Event) {
		if err := a.reload(); err != nil {
			log.Error(err, "Ignoring reloaded configuration", "file", e.Name)
			return
		}
		log.Info("Configuration reloaded", "file", e.Name, "op", e.Op.String())
		if onChange != nil {
			onChange(e)
		}
	})
	a.viper.WatchConfig()

	return true
}

// reload decodes the configuration into fresh options and adopts them only
// once they completed and validated. A rejected file leaves the live options
// untouched. The options must be a pointer to a struct.
func (a *App) reload() error {
	live := reflect.ValueOf(a.options).Elem()
	fresh := reflect.New(live.Type())
	opts := fresh.Interface().(NamedFlagSetOptions)

	if err := a.viper.Unmarshal(opts); err != nil {
		return fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := opts.Complete(); err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	live.Set(fresh.Elem())
	return nil
}
