package console

import (
	"fmt"
	"os"

	"cloupeer.io/supercar/internal/supercar/remote"
	"cloupeer.io/supercar/internal/supercar/status"
	"cloupeer.io/supercar/pkg/log"
	"cloupeer.io/supercar/pkg/mqtt"
	"cloupeer.io/supercar/pkg/options"
)

// Config is the runtime configuration of the console commands.
type Config struct {
	DeviceOptions *options.DeviceOptions
	HttpOptions   *options.HttpOptions
	MqttOptions   *options.MqttOptions
}

// NewRemoteClient returns the device client described by the device options.
func (cfg *Config) NewRemoteClient() (*remote.Client, error) {
	return remote.NewClient(cfg.DeviceOptions.URL, remote.WithTimeout(cfg.DeviceOptions.Timeout))
}

// NewStatusView returns a status view polling at the configured interval.
func (cfg *Config) NewStatusView() (*status.View, error) {
	rc, err := cfg.NewRemoteClient()
	if err != nil {
		return nil, err
	}
	return status.NewView(rc,
		status.WithInterval(cfg.DeviceOptions.PollInterval),
		status.WithDeviceID(cfg.DeviceOptions.ID),
	), nil
}

// NewWatcher assembles the poller with the optional HTTP server and relay.
func (cfg *Config) NewWatcher() (*Watcher, error) {
	view, err := cfg.NewStatusView()
	if err != nil {
		return nil, fmt.Errorf("failed to create status view: %w", err)
	}

	var servers []Server
	if cfg.HttpOptions.Enabled() {
		servers = append(servers, NewHTTPServer(cfg.HttpOptions, view))
	}

	if cfg.MqttOptions.Enabled() {
		client, err := cfg.newMQTTClient()
		if err != nil {
			return nil, err
		}
		relay := NewRelay(client, cfg.MqttOptions, cfg.DeviceOptions.ID)
		view.Subscribe(relay.Observe)
		servers = append(servers, relay)
	}

	return NewWatcher(view, servers...), nil
}

func (cfg *Config) newMQTTClient() (mqtt.Client, error) {
	mcfg := cfg.MqttOptions.ToClientConfig()

	if mcfg.ClientID == "" {
		hostname, _ := os.Hostname()
		mcfg.ClientID = fmt.Sprintf("supercarctl-%s-%s", cfg.DeviceOptions.ID, hostname)
	}

	client, err := mqtt.NewClient(mcfg)
	if err != nil {
		log.Error(err, "failed to new mqtt client")
		return nil, err
	}
	return client, nil
}
