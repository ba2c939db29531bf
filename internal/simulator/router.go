package simulator

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"cloupeer.io/supercar/internal/pkg/metrics"
	"cloupeer.io/supercar/internal/supercar/schema"
	"cloupeer.io/supercar/pkg/log"
)

const (
	apiPrefix   = "/api"
	maxBodySize = 4 << 10
)

type handler struct {
	device  *Device
	latency time.Duration
}

// NewRouter serves the device API of d below /api, plus the simulator
// controls below /sim, /healthz and /metrics.
func NewRouter(d *Device, latency time.Duration) *mux.Router {
	h := &handler{device: d, latency: latency}

	r := mux.NewRouter()
	r.Use(instrument)

	api := r.PathPrefix(apiPrefix).Subrouter()
	api.Use(h.inject)
	api.HandleFunc("/supercar", h.getStatus).Methods(http.MethodGet)
	api.HandleFunc("/supercar/config", h.getConfig).Methods(http.MethodGet)
	api.HandleFunc("/supercar/config", h.putConfig).Methods(http.MethodPut)
	api.HandleFunc("/supercar/{motor:propulsion|steering}/config", h.getConfig).Methods(http.MethodGet)
	api.HandleFunc("/supercar/{motor:propulsion|steering}/config", h.putConfig).Methods(http.MethodPut)

	sim := r.PathPrefix("/sim").Subrouter()
	sim.HandleFunc("/power", h.setPower).Methods(http.MethodPut)
	sim.HandleFunc("/faults", h.setFault).Methods(http.MethodPut)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	return r
}

func kindOf(r *http.Request) schema.Kind {
	if motor, ok := mux.Vars(r)["motor"]; ok {
		return schema.Kind(motor)
	}
	return schema.KindMain
}

func (h *handler) getStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.device.Status())
}

func (h *handler) getConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.device.Config(kindOf(r)))
}

// putConfig applies the known fields of the body and echoes the body back.
func (h *handler) putConfig(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := decodeBody(r, &body); err != nil || body == nil {
		http.Error(w, "Could not parse the request", http.StatusBadRequest)
		return
	}

	kind := kindOf(r)
	h.device.Apply(kind, body)
	log.Info("Configuration updated", "kind", kind)
	writeJSON(w, http.StatusOK, body)
}

type powerRequest struct {
	Power bool `json:"power"`
}

func (h *handler) setPower(w http.ResponseWriter, r *http.Request) {
	var req powerRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.device.SetPower(req.Power)
	log.Info("Power switched", "power", req.Power)
	w.WriteHeader(http.StatusNoContent)
}

type faultRequest struct {
	// Path is relative to the API root, e.g. "supercar/propulsion/config".
	Path string `json:"path"`
	// Code is the status to answer with; 0 clears the fault.
	Code int `json:"code"`
}

func (h *handler) setFault(w http.ResponseWriter, r *http.Request) {
	var req faultRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Path == "" || (req.Code != 0 && (req.Code < 400 || req.Code > 599)) {
		http.Error(w, "path is required and code must be 0 or 4xx/5xx", http.StatusBadRequest)
		return
	}
	h.device.SetFault(strings.Trim(req.Path, "/"), req.Code)
	log.Info("Fault configured", "path", req.Path, "code", req.Code)
	w.WriteHeader(http.StatusNoContent)
}

// inject delays device requests and answers them with the configured fault.
func (h *handler) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.latency > 0 {
			select {
			case <-time.After(h.latency):
			case <-r.Context().Done():
				return
			}
		}

		path := strings.Trim(strings.TrimPrefix(r.URL.Path, apiPrefix), "/")
		if code := h.device.Fault(path); code != 0 {
			http.Error(w, http.StatusText(code), code)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

// instrument counts and logs every request by route template.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		tmpl := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if t, err := route.GetPathTemplate(); err == nil {
				tmpl = t
			}
		}
		metrics.SimulatorRequestsTotal.WithLabelValues(r.Method, tmpl, strconv.Itoa(rec.code)).Inc()
		log.Debug("Served request", "method", r.Method, "path", r.URL.Path, "code", rec.code, "duration", time.Since(start))
	})
}

func decodeBody(r *http.Request, v any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error(err, "Failed to write response")
	}
}
