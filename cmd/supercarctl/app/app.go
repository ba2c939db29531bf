package app

import (
	"cloupeer.io/supercar/cmd/supercarctl/app/options"
	"cloupeer.io/supercar/pkg/app"
)

const (
	commandName = "supercarctl"
	commandDesc = `supercarctl talks to the supercar vehicle controller over its HTTP API.

It shows the power and motion status of the vehicle, reads and replaces the
vehicle and motor configurations, and edits them in an interactive form. The
status can also be watched continuously, exposed on /metrics and relayed to an
MQTT broker.`
)

// cli carries what every subcommand needs.
type cli struct {
	opts *options.Options
	app  *app.App
}

func NewApp() *app.App {
	c := &cli{opts: options.NewOptions()}
	c.app = app.NewApp(
		commandName,
		"Inspect and configure a supercar vehicle controller",
		app.WithDescription(commandDesc),
		app.WithOptions(c.opts),
		app.WithSubCommands(
			c.newStatusCommand(),
			c.newConfigCommand(),
			c.newEditCommand(),
		),
	)
	return c.app
}
