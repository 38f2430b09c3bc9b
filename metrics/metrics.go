// Package metrics exposes container resolutions and view model state
// transitions as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/junioryono/graphdi"
	"github.com/junioryono/graphdi/users"
)

// Collector holds the Prometheus metrics of one process. Each Collector owns
// its registry, so tests can create as many as they need.
type Collector struct {
	registry *prometheus.Registry

	Resolutions        *prometheus.CounterVec
	ResolutionFailures *prometheus.CounterVec
	ResolutionDuration *prometheus.HistogramVec
	StateTransitions   *prometheus.CounterVec
}

// NewCollector creates a Collector whose metric names start with namespace.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	resolutions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Total number of successful container resolutions",
		},
		[]string{"type"},
	)

	failures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolution_failures_total",
			Help:      "Total number of failed container resolutions",
		},
		[]string{"type"},
	)

	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolution_duration_seconds",
			Help:      "Container resolution duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.000001, 4, 10),
		},
		[]string{"type"},
	)

	transitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Total number of view model state transitions",
		},
		[]string{"status"},
	)

	registry.MustRegister(resolutions, failures, duration, transitions)

	return &Collector{
		registry:           registry,
		Resolutions:        resolutions,
		ResolutionFailures: failures,
		ResolutionDuration: duration,
		StateTransitions:   transitions,
	}
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// OnResolved records a successful resolution. It matches
// graphdi.Options.OnResolved.
func (c *Collector) OnResolved(id graphdi.TypeID, _ any, d time.Duration) {
	label := id.String()
	c.Resolutions.WithLabelValues(label).Inc()
	c.ResolutionDuration.WithLabelValues(label).Observe(d.Seconds())
}

// OnError records a failed resolution. It matches graphdi.Options.OnError.
func (c *Collector) OnError(id graphdi.TypeID, _ error) {
	c.ResolutionFailures.WithLabelValues(id.String()).Inc()
}

// Apply installs the collector's hooks on options, chaining any hooks
// already set.
func (c *Collector) Apply(options *graphdi.Options) {
	prevResolved, prevError := options.OnResolved, options.OnError

	options.OnResolved = func(id graphdi.TypeID, instance any, d time.Duration) {
		c.OnResolved(id, instance, d)
		if prevResolved != nil {
			prevResolved(id, instance, d)
		}
	}
	options.OnError = func(id graphdi.TypeID, err error) {
		c.OnError(id, err)
		if prevError != nil {
			prevError(id, err)
		}
	}
}

// Observe counts every state transition of vm until vm is closed. The
// state replayed on subscription is not counted.
func (c *Collector) Observe(vm *users.ViewModel) {
	replayed := false
	vm.Subscribe(func(s users.UsersState) {
		if !replayed {
			replayed = true
			return
		}
		c.StateTransitions.WithLabelValues(s.Status.String()).Inc()
	})
}
