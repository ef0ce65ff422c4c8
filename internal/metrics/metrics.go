// Package metrics records plugin resolutions and input filter builds as
// Prometheus metrics on a private registry.
package metrics

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/hupe1980/inputfilter/internal/inputfilter"
	"github.com/hupe1980/inputfilter/internal/plugin"
)

// Resolution outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Metrics holds the collectors. It implements plugin.Observer and
// inputfilter.BuildObserver.
type Metrics struct {
	resolutions   *prometheus.CounterVec
	buildDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inputfilter_plugin_resolutions_total",
				Help: "Plugin resolutions by registry, resolution source and outcome",
			},
			[]string{"registry", "source", "outcome"},
		),

		buildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "inputfilter_build_duration_seconds",
				Help:    "Time spent building input filters from configuration",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"service"},
		),

		registry: registry,
	}

	registry.MustRegister(m.resolutions, m.buildDuration)

	return m
}

// Registry returns the Prometheus registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveResolution implements plugin.Observer.
func (m *Metrics) ObserveResolution(registry, _ string, source plugin.Source, err error) {
	m.resolutions.WithLabelValues(registry, string(source), outcome(err)).Inc()
}

// ObserveBuild implements inputfilter.BuildObserver.
func (m *Metrics) ObserveBuild(service string, duration time.Duration, _ error) {
	m.buildDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// WriteText writes all metric families in the Prometheus text exposition
// format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}

	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("encoding metric %s: %w", mf.GetName(), err)
		}
	}

	return nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, plugin.ErrPluginNotFound):
		return OutcomeNotFound
	default:
		return OutcomeError
	}
}

// Compile-time interface checks.
var (
	_ plugin.Observer           = (*Metrics)(nil)
	_ inputfilter.BuildObserver = (*Metrics)(nil)
)
