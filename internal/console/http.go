package console

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"cloupeer.io/supercar/internal/pkg/metrics"
	"cloupeer.io/supercar/internal/supercar/status"
	"cloupeer.io/supercar/pkg/log"
	"cloupeer.io/supercar/pkg/options"
)

// HTTPServer exposes the health of the watcher and its metrics.
type HTTPServer struct {
	server  *http.Server
	view    *status.View
	timeout time.Duration
}

// NewHTTPServer serves /healthz, /readyz, /status and /metrics.
func NewHTTPServer(opts *options.HttpOptions, view *status.View) *HTTPServer {
	s := &HTTPServer{view: view, timeout: opts.ShutdownTimeout}

	mux := http.NewServeMux()

	// Basic Liveness Probe
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Ready once the device answered the last poll.
	mux.HandleFunc("/readyz", s.readyz)
	mux.HandleFunc("/status", s.status)
	mux.Handle("/metrics", metrics.Handler())

	s.server = &http.Server{
		Addr:              opts.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler of the server.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) readyz(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.view.Status(); !ok || s.view.Err() != nil {
		http.Error(w, "device not reachable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *HTTPServer) status(w http.ResponseWriter, r *http.Request) {
	st, ok := s.view.Status()
	if !ok {
		http.Error(w, "no status polled yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(newStatusMessage("", st, s.view.Updated()))
}

// Start serves until ctx is done.
func (s *HTTPServer) Start(ctx context.Context) error {
	log.Info("Starting HTTP Server", "addr", s.server.Addr)

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
		return s.server.Shutdown(shutdownCtx)
	}
}
