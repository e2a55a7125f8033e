package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result labels.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultStale   = "stale"
)

// Collector holds the engine's Prometheus collectors on a private
// registry. A nil *Collector is valid and records nothing.
type Collector struct {
	registry   *prometheus.Registry
	pollCycles *prometheus.CounterVec
	mutations  *prometheus.CounterVec
	unread     prometheus.Gauge
}

// New registers the collectors on a fresh registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		pollCycles: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifysync_poll_cycles_total",
				Help: "Total number of notification refresh cycles by result",
			},
			[]string{"result"},
		),
		mutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifysync_mutations_total",
				Help: "Total number of mark-read mutations by operation and result",
			},
			[]string{"op", "result"},
		),
		unread: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "notifysync_unread",
				Help: "Unread notifications in the local store",
			},
		),
	}
}

// ObservePoll counts one refresh cycle.
func (c *Collector) ObservePoll(result string) {
	if c == nil {
		return
	}
	c.pollCycles.WithLabelValues(result).Inc()
}

// ObserveMutation counts one mark-read call. op is "one" or "all".
func (c *Collector) ObserveMutation(op, result string) {
	if c == nil {
		return
	}
	c.mutations.WithLabelValues(op, result).Inc()
}

// SetUnread records the current unread count.
func (c *Collector) SetUnread(n int) {
	if c == nil {
		return
	}
	c.unread.Set(float64(n))
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collectors in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
