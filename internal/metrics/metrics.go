// Package metrics provides Prometheus metrics for template resolution and
// rendering.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/goliatone/go-viewkit/pkg/resolver"
)

// Failure reasons reported on viewkit_resolver_failures_total.
const (
	ReasonNotFound           = "not_found"
	ReasonBrokenRegistration = "broken_registration"
	ReasonOther              = "other"
)

// Collector holds the viewkit metrics. It implements resolver.Observer and
// render.RenderObserver.
type Collector struct {
	// Resolver metrics
	Resolutions      *prometheus.CounterVec
	ResolverFailures *prometheus.CounterVec

	// Render metrics
	RenderDuration *prometheus.HistogramVec
	RenderErrors   *prometheus.CounterVec
}

// New creates a collector registered with the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a collector registered with reg. Tests use a
// fresh registry to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		Resolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "viewkit",
				Subsystem: "resolver",
				Name:      "resolutions_total",
				Help:      "Total number of resolved templates by strategy",
			},
			[]string{"source"},
		),
		ResolverFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "viewkit",
				Subsystem: "resolver",
				Name:      "failures_total",
				Help:      "Total number of failed template resolutions",
			},
			[]string{"reason"},
		),
		RenderDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "viewkit",
				Subsystem: "render",
				Name:      "duration_seconds",
				Help:      "Engine render duration in seconds",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"engine"},
		),
		RenderErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "viewkit",
				Subsystem: "render",
				Name:      "errors_total",
				Help:      "Total number of failed engine renders",
			},
			[]string{"engine"},
		),
	}
}

// Resolved records a successful resolution.
func (c *Collector) Resolved(source resolver.Source) {
	c.Resolutions.WithLabelValues(string(source)).Inc()
}

// Failed records a failed resolution.
func (c *Collector) Failed(err error) {
	c.ResolverFailures.WithLabelValues(failureReason(err)).Inc()
}

// Rendered records an engine call.
func (c *Collector) Rendered(engine string, d time.Duration, err error) {
	c.RenderDuration.WithLabelValues(engine).Observe(d.Seconds())
	if err != nil {
		c.RenderErrors.WithLabelValues(engine).Inc()
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, resolver.ErrTemplateNotFound):
		return ReasonNotFound
	case errors.Is(err, resolver.ErrBrokenRegistration):
		return ReasonBrokenRegistration
	default:
		return ReasonOther
	}
}
