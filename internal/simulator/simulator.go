package simulator

import (
	"context"
	"errors"
	"net/http"
	"time"

	"cloupeer.io/supercar/pkg/log"
	"cloupeer.io/supercar/pkg/options"
)

// Config is the runtime configuration of the simulator.
type Config struct {
	HttpOptions *options.HttpOptions
	PowerOn     bool
	Latency     time.Duration
}

// Simulator serves a Device over HTTP.
type Simulator struct {
	device  *Device
	server  *http.Server
	timeout time.Duration
}

// NewSimulator builds the device and its HTTP server.
func (cfg *Config) NewSimulator() (*Simulator, error) {
	if !cfg.HttpOptions.Enabled() {
		return nil, errors.New("the simulator needs a listen address")
	}

	d := NewDevice()
	d.SetPower(cfg.PowerOn)

	return &Simulator{
		device: d,
		server: &http.Server{
			Addr:              cfg.HttpOptions.Addr,
			Handler:           NewRouter(d, cfg.Latency),
			ReadHeaderTimeout: 5 * time.Second,
		},
		timeout: cfg.HttpOptions.ShutdownTimeout,
	}, nil
}

// Device returns the simulated device.
func (s *Simulator) Device() *Device {
	return s.device
}

// Run serves until ctx is done, then shuts the server down gracefully.
func (s *Simulator) Run(ctx context.Context) error {
	log.Info("Starting device simulator", "addr", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		log.Info("Shutting down device simulator")
		return s.server.Shutdown(shutdownCtx)
	}
}
