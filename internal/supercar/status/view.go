// Package status polls the vehicle controller for its status snapshot.
package status

import (
	"context"
	"sync"
	"time"

	"cloupeer.io/supercar/internal/pkg/metrics"
	"cloupeer.io/supercar/internal/supercar/remote"
	"cloupeer.io/supercar/internal/supercar/route"
	"cloupeer.io/supercar/pkg/log"
)

// DefaultInterval is the poll period when none is configured.
const DefaultInterval = 2 * time.Second

// Fetcher reads a resource from the device.
type Fetcher interface {
	FetchResource(ctx context.Context, path string) (remote.Record, error)
}

// Observer is notified with every successfully polled status.
type Observer func(Status)

// Option configures a View.
type Option func(*View)

// WithInterval sets the poll period used by Run.
func WithInterval(d time.Duration) Option {
	return func(v *View) {
		if d > 0 {
			v.interval = d
		}
	}
}

// WithDeviceID labels the metrics of the view.
func WithDeviceID(id string) Option {
	return func(v *View) {
		v.deviceID = id
	}
}

// View keeps the last status read from the device. A failed poll keeps the
// previous status.
type View struct {
	fetcher  Fetcher
	deviceID string

	mu        sync.RWMutex
	status    Status
	hasStatus bool
	updated   time.Time
	lastErr   error
	interval  time.Duration
	observers []Observer

	reset chan struct{}
}

// NewView returns a View reading through f.
func NewView(f Fetcher, opts ...Option) *View {
	v := &View{
		fetcher:  f,
		deviceID: "supercar",
		interval: DefaultInterval,
		reset:    make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Subscribe registers o for every successful poll.
func (v *View) Subscribe(o Observer) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.observers = append(v.observers, o)
}

// Poll reads the status once. On success the displayed status is replaced
// wholesale; on failure it is kept and the error returned.
func (v *View) Poll(ctx context.Context) (Status, error) {
	record, err := v.fetcher.FetchResource(ctx, route.StatusPath)
	if err == nil {
		var s Status
		if s, err = Decode(record); err == nil {
			return v.update(s), nil
		}
		err = &remote.Error{Op: remote.OpFetch, Kind: remote.ErrDecodeFailure, Path: route.StatusPath, Err: err}
	}

	metrics.StatusPollsTotal.WithLabelValues("failed").Inc()

	v.mu.Lock()
	v.lastErr = err
	last := v.status
	v.mu.Unlock()

	return last, err
}

func (v *View) update(s Status) Status {
	metrics.StatusPollsTotal.WithLabelValues("success").Inc()
	metrics.StatusPower.WithLabelValues(v.deviceID).Set(metrics.BoolGauge(s.Power))

	v.mu.Lock()
	v.status = s
	v.hasStatus = true
	v.updated = time.Now()
	v.lastErr = nil
	observers := append([]Observer(nil), v.observers...)
	v.mu.Unlock()

	for _, o := range observers {
		o(s)
	}
	return s
}

// Status returns the last polled status and whether any poll succeeded yet.
func (v *View) Status() (Status, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.status, v.hasStatus
}

// Display is "ON" when the last polled status reports power, "OFF" otherwise,
// including before the first successful poll.
func (v *View) Display() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.status.Display()
}

// Err returns the error of the last poll, nil if it succeeded.
func (v *View) Err() error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.lastErr
}

// Updated returns the time of the last successful poll.
func (v *View) Updated() time.Time {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.updated
}

// Interval returns the current poll period.
func (v *View) Interval() time.Duration {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.interval
}

// SetInterval changes the poll period. A running loop picks it up at once.
func (v *View) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	v.mu.Lock()
	v.interval = d
	v.mu.Unlock()

	select {
	case v.reset <- struct{}{}:
	default:
	}
}

// Run polls immediately and then on every tick until ctx is done.
func (v *View) Run(ctx context.Context) error {
	log.Info("Starting status poller", "interval", v.Interval())
	v.poll(ctx)

	ticker := time.NewTicker(v.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Status poller stopped")
			return nil
		case <-v.reset:
			d := v.Interval()
			log.Info("Status poll interval changed", "interval", d)
			ticker.Reset(d)
		case <-ticker.C:
			v.poll(ctx)
		}
	}
}

func (v *View) poll(ctx context.Context) {
	if _, err := v.Poll(ctx); err != nil && ctx.Err() == nil {
		log.Warn("Failed to poll status", "error", err)
	}
}
