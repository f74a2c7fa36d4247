package selector

import "github.com/prometheus/client_golang/prometheus"

var (
	configureTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runloop_configure_total",
			Help: "Total number of successful backend configurations.",
		},
		[]string{"backend"},
	)

	selectedBackend = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "runloop_selected_backend",
			Help: "The backend chosen at detection, labeled by platform and kind.",
		},
		[]string{"platform", "backend"},
	)

	optionalAvailable = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "runloop_optional_backend_available",
			Help: "Whether the optional high-performance backend is currently available (live probe).",
		},
	)
)

func init() {
	prometheus.MustRegister(configureTotal)
	prometheus.MustRegister(selectedBackend)
	prometheus.MustRegister(optionalAvailable)
}
