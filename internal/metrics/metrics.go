// Package metrics exports eyedropper session counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ironsheep/eyedropper-mcp/internal/eyedropper"
)

// Collector implements eyedropper.Observer.
type Collector struct {
	registry    *prometheus.Registry
	transitions *prometheus.CounterVec
	outcomes    *prometheus.CounterVec
	duration    prometheus.Histogram
	active      prometheus.Gauge
}

var _ eyedropper.Observer = (*Collector)(nil)

// New creates a collector with its own registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eyedropper",
			Name:      "transitions_total",
			Help:      "Session state transitions.",
		}, []string{"from", "to"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eyedropper",
			Name:      "sessions_total",
			Help:      "Sessions by final outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "eyedropper",
			Name:      "session_duration_seconds",
			Help:      "Time from open to settlement.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "eyedropper",
			Name:      "session_active",
			Help:      "1 while a session is capturing or armed.",
		}),
	}
	c.registry.MustRegister(c.transitions, c.outcomes, c.duration, c.active)
	return c
}

// Transition implements eyedropper.Observer.
func (c *Collector) Transition(_ string, from, to eyedropper.Status) {
	c.transitions.WithLabelValues(from.String(), to.String()).Inc()
	if to.Active() {
		c.active.Set(1)
	} else {
		c.active.Set(0)
	}
}

// Settled implements eyedropper.Observer.
func (c *Collector) Settled(_ string, outcome eyedropper.Outcome, elapsed time.Duration) {
	c.outcomes.WithLabelValues(string(outcome)).Inc()
	c.duration.Observe(elapsed.Seconds())
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Router mounts the metrics handler at /metrics and a liveness check at
// /healthz.
func (c *Collector) Router() http.Handler {
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/metrics", c.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return r
}
