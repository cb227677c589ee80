// Package metrics exposes monitor activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/Veraticus/intel-sieve/internal/dedup"
	"github.com/Veraticus/intel-sieve/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sieve"

// Metrics holds the monitor collectors.
type Metrics struct {
	registry *prometheus.Registry

	ItemsTotal     *prometheus.CounterVec
	ItemScore      *prometheus.HistogramVec
	ContentTypes   *prometheus.CounterVec
	Runs           *prometheus.CounterVec
	RunItems       *prometheus.CounterVec
	RunDuration    *prometheus.HistogramVec
	LastRunSuccess *prometheus.GaugeVec
}

// New registers the monitor metrics on a fresh registry together with the
// Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ItemsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_total",
			Help:      "Items offered to the dedup gate, by monitor and decision",
		}, []string{"monitor", "decision"}),
		ItemScore: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "item_score",
			Help:      "Relevance score of admitted items",
			Buckets:   []float64{0, 1, 2, 5, 10, 15, 20, 30, 50},
		}, []string{"monitor"}),
		ContentTypes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "content_type_total",
			Help:      "Admitted items by content type",
		}, []string{"monitor", "content_type"}),
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Monitor cycles, by outcome",
		}, []string{"monitor", "status"}),
		RunItems: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_items_total",
			Help:      "Items counted by monitor cycles, by stage",
		}, []string{"monitor", "stage"}),
		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of monitor cycles",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"monitor"}),
		LastRunSuccess: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 when the last cycle of a monitor finished without error",
		}, []string{"monitor"}),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveItem records a gate decision.
func (m *Metrics) ObserveItem(monitor string, item model.ScoredItem, decision dedup.Decision) {
	m.ItemsTotal.WithLabelValues(monitor, decision.String()).Inc()
	if decision != dedup.Admitted {
		return
	}
	m.ItemScore.WithLabelValues(monitor).Observe(item.Result.Score)
	m.ContentTypes.WithLabelValues(monitor, item.Result.ContentType).Inc()
}

// ObserveRun records a finished cycle.
func (m *Metrics) ObserveRun(run model.Run) {
	status := "success"
	success := 1.0
	if run.Error != "" {
		status = "error"
		success = 0
	}
	m.Runs.WithLabelValues(run.Monitor, status).Inc()
	m.LastRunSuccess.WithLabelValues(run.Monitor).Set(success)
	m.RunDuration.WithLabelValues(run.Monitor).Observe(run.Duration().Seconds())

	stages := map[string]int{
		"fetched":    run.Stats.Fetched,
		"relevant":   run.Stats.Relevant,
		"admitted":   run.Stats.Admitted,
		"duplicates": run.Stats.Duplicates,
		"mentions":   run.Stats.Mentions,
	}
	for stage, n := range stages {
		m.RunItems.WithLabelValues(run.Monitor, stage).Add(float64(n))
	}
}
