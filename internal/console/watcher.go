package console

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"cloupeer.io/supercar/internal/supercar/status"
	"cloupeer.io/supercar/pkg/log"
)

// Server is a component running next to the poller until its context ends.
type Server interface {
	Start(ctx context.Context) error
}

// Watcher polls the device status and runs the attached servers.
type Watcher struct {
	view    *status.View
	servers []Server
}

// NewWatcher returns a watcher for view.
func NewWatcher(view *status.View, servers ...Server) *Watcher {
	return &Watcher{view: view, servers: servers}
}

// View returns the status view the watcher drives.
func (w *Watcher) View() *status.View {
	return w.view
}

// SetInterval changes the poll period of the running watcher.
func (w *Watcher) SetInterval(d time.Duration) {
	if d != w.view.Interval() {
		w.view.SetInterval(d)
	}
}

// Run starts the poller and every server, and waits for all of them. The
// first failing component stops the others.
func (w *Watcher) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return w.view.Run(ctx)
	})
	for _, s := range w.servers {
		g.Go(func() error {
			return s.Start(ctx)
		})
	}

	log.Info("Watcher started", "servers", len(w.servers))
	return g.Wait()
}
