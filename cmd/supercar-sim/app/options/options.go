package options

import (
	"errors"
	"time"

	"github.com/spf13/pflag"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"cloupeer.io/supercar/internal/simulator"
	"cloupeer.io/supercar/pkg/app"
	"cloupeer.io/supercar/pkg/log"
	"cloupeer.io/supercar/pkg/options"
)

// SimOptions shape the simulated device.
type SimOptions struct {
	PowerOn bool          `json:"power-on" mapstructure:"power-on"`
	Latency time.Duration `json:"latency" mapstructure:"latency"`
}

func (o *SimOptions) Validate() []error {
	if o.Latency < 0 {
		return []error{errors.New("--sim.latency must not be negative")}
	}
	return nil
}

func (o *SimOptions) AddFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.PowerOn, "sim.power-on", o.PowerOn, "Start with the vehicle powered on.")
	fs.DurationVar(&o.Latency, "sim.latency", o.Latency, "Delay added to every device API request.")
}

type Options struct {
	Http *options.HttpOptions `json:"http" mapstructure:"http"`
	Sim  *SimOptions          `json:"sim" mapstructure:"sim"`
	Log  *log.Options         `json:"log" mapstructure:"log"`
}

var (
	_ app.NamedFlagSetOptions = (*Options)(nil)
	_ app.Logger              = (*Options)(nil)
)

func NewOptions() *Options {
	o := &Options{
		Http: options.NewHttpOptions(),
		Sim:  &SimOptions{},
		Log:  log.NewOptions(),
	}
	o.Http.Addr = "127.0.0.1:8080"
	o.Log.Level = "info"
	return o
}

func (o *Options) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.Http.AddFlags(fss.FlagSet("http"))
	o.Sim.AddFlags(fss.FlagSet("sim"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *Options) Complete() error {
	return nil
}

func (o *Options) Validate() error {
	errs := []error{}
	if !o.Http.Enabled() {
		errs = append(errs, errors.New("--http.addr must not be empty"))
	}
	errs = append(errs, o.Http.Validate()...)
	errs = append(errs, o.Sim.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *Options) InitLog() {
	log.Init(o.Log)
}

func (o *Options) Config() *simulator.Config {
	return &simulator.Config{
		HttpOptions: o.Http,
		PowerOn:     o.Sim.PowerOn,
		Latency:     o.Sim.Latency,
	}
}
