package app

import (
	"fmt"

	genericapiserver "k8s.io/apiserver/pkg/server"

	"cloupeer.io/supercar/cmd/supercar-sim/app/options"
	"cloupeer.io/supercar/pkg/app"
	"cloupeer.io/supercar/pkg/log"
)

const (
	commandName = "supercar-sim"
	commandDesc = `supercar-sim serves the HTTP API of a supercar vehicle controller from
memory. Configurations accept the same fields as the firmware, the status
reports the simulated power state, and /sim lets tests switch the power or
inject failures.`
)

func NewApp() *app.App {
	opts := options.NewOptions()
	application := app.NewApp(
		commandName,
		"Launch a simulated supercar vehicle controller",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts)),
	)
	return application
}

func run(opts *options.Options) app.RunFunc {
	return func() error {
		ctx := genericapiserver.SetupSignalContext()

		sim, err := opts.Config().NewSimulator()
		if err != nil {
			return fmt.Errorf("failed to create simulator: %w", err)
		}

		log.Info("Starting simulator", "addr", opts.Http.Addr, "power", opts.Sim.PowerOn, "latency", opts.Sim.Latency)
		return sim.Run(ctx)
	}
}
