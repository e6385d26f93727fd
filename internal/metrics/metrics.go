// Package metrics holds the Prometheus collectors for fetches and analysis runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all MarketLens metrics. A nil *Registry is a valid no-op.
type Registry struct {
	reg *prometheus.Registry

	FetchTotal    *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	FetchRetries  *prometheus.CounterVec
	BreakerState  *prometheus.GaugeVec

	SymbolOutcomes *prometheus.CounterVec
	RunDuration    *prometheus.HistogramVec
	RefreshRuns    *prometheus.CounterVec
}

// NewRegistry creates a registry with every collector registered.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		FetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketlens_fetch_total",
				Help: "Provider fetches by outcome",
			},
			[]string{"provider", "outcome"},
		),
		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketlens_fetch_duration_seconds",
				Help:    "Duration of provider fetches in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"provider"},
		),
		FetchRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketlens_fetch_retries_total",
				Help: "Provider fetch retries",
			},
			[]string{"provider"},
		),
		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marketlens_breaker_state",
				Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
			},
			[]string{"provider"},
		),
		SymbolOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketlens_symbol_outcomes_total",
				Help: "Per-symbol analysis outcomes by final stage and error kind",
			},
			[]string{"stage", "kind"},
		),
		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketlens_run_duration_seconds",
				Help:    "Duration of analysis runs in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		RefreshRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketlens_refresh_runs_total",
				Help: "Scheduled refresh runs by outcome",
			},
			[]string{"outcome"},
		),
	}
	r.reg.MustRegister(
		r.FetchTotal, r.FetchDuration, r.FetchRetries, r.BreakerState,
		r.SymbolOutcomes, r.RunDuration, r.RefreshRuns,
	)
	return r
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveFetch records one provider call.
func (r *Registry) ObserveFetch(provider string, took time.Duration, err error) {
	if r == nil {
		return
	}
	r.FetchTotal.WithLabelValues(provider, outcome(err)).Inc()
	r.FetchDuration.WithLabelValues(provider).Observe(took.Seconds())
}

// IncRetry counts a retried provider call.
func (r *Registry) IncRetry(provider string) {
	if r == nil {
		return
	}
	r.FetchRetries.WithLabelValues(provider).Inc()
}

// SetBreakerState records the breaker state as its numeric value.
func (r *Registry) SetBreakerState(provider string, state int) {
	if r == nil {
		return
	}
	r.BreakerState.WithLabelValues(provider).Set(float64(state))
}

// ObserveSymbol counts one symbol outcome. kind is empty for a success.
func (r *Registry) ObserveSymbol(stage, kind string) {
	if r == nil {
		return
	}
	if kind == "" {
		kind = "none"
	}
	r.SymbolOutcomes.WithLabelValues(stage, kind).Inc()
}

// ObserveRun records the duration of an analysis operation.
func (r *Registry) ObserveRun(operation string, took time.Duration) {
	if r == nil {
		return
	}
	r.RunDuration.WithLabelValues(operation).Observe(took.Seconds())
}

// ObserveRefresh counts a scheduled refresh.
func (r *Registry) ObserveRefresh(err error) {
	if r == nil {
		return
	}
	r.RefreshRuns.WithLabelValues(outcome(err)).Inc()
}
