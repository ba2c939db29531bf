package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every supercar metric. It is exposed on /metrics by the watcher.
var Registry = prometheus.NewRegistry()

var (
	// RemoteRequestsTotal counts requests to the device API.
	// op: fetch/replace, outcome: success/transport/rejected/decode
	RemoteRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supercar_remote_requests_total",
			Help: "Total number of requests sent to the vehicle controller API.",
		},
		[]string{"op", "outcome"},
	)

	// RemoteRequestLatency records the round trip of a device API request.
	RemoteRequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "supercar_remote_request_duration_seconds",
			Help:    "Latency of requests sent to the vehicle controller API.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	// FormSubmissionsTotal counts submit attempts per configuration kind.
	// result: success/invalid/failed
	FormSubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supercar_form_submissions_total",
			Help: "Total number of configuration form submissions.",
		},
		[]string{"kind", "result"},
	)

	// StatusPower is the last power state reported by the device (1=ON, 0=OFF).
	StatusPower = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "supercar_status_power",
			Help: "Power state of the vehicle controller (1=ON, 0=OFF).",
		},
		[]string{"device"},
	)

	// StatusPollsTotal counts status polls. result: success/failed
	StatusPollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supercar_status_polls_total",
			Help: "Total number of status polls.",
		},
		[]string{"result"},
	)

	// RelayPublishedTotal counts status snapshots relayed to MQTT. result: success/failed
	RelayPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supercar_relay_published_total",
			Help: "Total number of status snapshots published to the MQTT broker.",
		},
		[]string{"result"},
	)

	// SimulatorRequestsTotal counts requests served by the device simulator.
	SimulatorRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supercar_simulator_requests_total",
			Help: "Total number of requests served by the device simulator.",
		},
		[]string{"method", "route", "code"},
	)
)

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	Registry.MustRegister(RemoteRequestsTotal)
	Registry.MustRegister(RemoteRequestLatency)
	Registry.MustRegister(FormSubmissionsTotal)
	Registry.MustRegister(StatusPower)
	Registry.MustRegister(StatusPollsTotal)
	Registry.MustRegister(RelayPublishedTotal)
	Registry.MustRegister(SimulatorRequestsTotal)
}

// Handler serves the metrics of Registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// BoolGauge converts b to the 1/0 convention of the gauges above.
func BoolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
