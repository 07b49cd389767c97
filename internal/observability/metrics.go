// Package observability holds the Prometheus metrics of the tracker.
package observability

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the poll-loop metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	Polls          *prometheus.CounterVec
	FetchErrors    *prometheus.CounterVec
	FetchDurations *prometheus.HistogramVec
	Progress       *prometheus.GaugeVec
	TrackedBuses   prometheus.Gauge
	ShellCache     *prometheus.CounterVec
}

// NewCollector registers the metrics against reg, defaulting to the global
// registry when nil. Registering twice against the same registry reuses the
// existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	polls, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bus_tracker_polls_total",
		Help: "Bus observations processed, labeled by source and outcome.",
	}, []string{"source", "outcome"}))
	if err != nil {
		return nil, err
	}
	fetchErrors, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bus_tracker_fetch_errors_total",
		Help: "Failed feed fetches, labeled by source.",
	}, []string{"source"}))
	if err != nil {
		return nil, err
	}
	durations, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bus_tracker_fetch_duration_seconds",
		Help:    "Feed fetch latency in seconds.",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"source"}))
	if err != nil {
		return nil, err
	}
	progress, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bus_tracker_route_progress_ratio",
		Help: "Last computed progress ratio per bus.",
	}, []string{"bus"}))
	if err != nil {
		return nil, err
	}
	tracked, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bus_tracker_tracked_buses",
		Help: "Number of buses currently tracked.",
	}))
	if err != nil {
		return nil, err
	}
	shell, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bus_tracker_shell_cache_requests_total",
		Help: "Web shell requests, labeled by result (hit, miss, fallback, error).",
	}, []string{"result"}))
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:       gatherer,
		Polls:          polls,
		FetchErrors:    fetchErrors,
		FetchDurations: durations,
		Progress:       progress,
		TrackedBuses:   tracked,
		ShellCache:     shell,
	}, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		var zero T
		return zero, err
	}
	return c, nil
}

// ObserveFetch records one fetch against source.
func (c *Collector) ObserveFetch(source string, d time.Duration, err error) {
	if c == nil {
		return
	}
	c.FetchDurations.WithLabelValues(source).Observe(d.Seconds())
	if err != nil {
		c.FetchErrors.WithLabelValues(source).Inc()
	}
}

// ObservePoll records one processed observation.
func (c *Collector) ObservePoll(source, outcome string) {
	if c == nil {
		return
	}
	c.Polls.WithLabelValues(source, outcome).Inc()
}

// SetProgress publishes the current ratio of a bus.
func (c *Collector) SetProgress(bus string, ratio float64) {
	if c == nil {
		return
	}
	c.Progress.WithLabelValues(bus).Set(ratio)
}

// ForgetBus drops the per-bus series.
func (c *Collector) ForgetBus(bus string) {
	if c == nil {
		return
	}
	c.Progress.DeleteLabelValues(bus)
}

// SetTracked publishes the tracked-bus count.
func (c *Collector) SetTracked(n int) {
	if c == nil {
		return
	}
	c.TrackedBuses.Set(float64(n))
}

// ObserveShell records one web shell request.
func (c *Collector) ObserveShell(result string) {
	if c == nil {
		return
	}
	c.ShellCache.WithLabelValues(result).Inc()
}

// Handler exposes the registry over HTTP.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
