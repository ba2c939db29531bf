package options

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"cloupeer.io/supercar/internal/console"
	"cloupeer.io/supercar/pkg/app"
	"cloupeer.io/supercar/pkg/log"
	"cloupeer.io/supercar/pkg/options"
)

type Options struct {
	Device *options.DeviceOptions `json:"device" mapstructure:"device"`
	Http   *options.HttpOptions   `json:"http" mapstructure:"http"`
	Mqtt   *options.MqttOptions   `json:"mqtt" mapstructure:"mqtt"`
	Log    *log.Options           `json:"log" mapstructure:"log"`
}

var (
	_ app.NamedFlagSetOptions = (*Options)(nil)
	_ app.Logger              = (*Options)(nil)
)

func NewOptions() *Options {
	return &Options{
		Device: options.NewDeviceOptions(),
		Http:   options.NewHttpOptions(),
		Mqtt:   options.NewMqttOptions(),
		Log:    log.NewOptions(),
	}
}

func (o *Options) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.Device.AddFlags(fss.FlagSet("device"))
	o.Http.AddFlags(fss.FlagSet("http"))
	o.Mqtt.AddFlags(fss.FlagSet("mqtt"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *Options) Complete() error {
	return nil
}

func (o *Options) Validate() error {
	errs := []error{}
	errs = append(errs, o.Device.Validate()...)
	errs = append(errs, o.Http.Validate()...)
	errs = append(errs, o.Mqtt.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *Options) InitLog() {
	log.Init(o.Log)
}

func (o *Options) Config() *console.Config {
	return &console.Config{
		DeviceOptions: o.Device,
		HttpOptions:   o.Http,
		MqttOptions:   o.Mqtt,
	}
}
