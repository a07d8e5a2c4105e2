// Package metrics exposes Prometheus metrics for the engine loop and the
// generation collaborator.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/scenekit/internal/ir"
	"github.com/roach88/scenekit/internal/reconcile"
)

// Namespace prefixes every metric name.
const Namespace = "scenekit"

// Collector holds all Prometheus metrics for the application. Each
// Collector owns its registry, so tests can create as many as they like.
type Collector struct {
	registry *prometheus.Registry

	// Engine metrics
	Actions    *prometheus.CounterVec
	Reconciled *prometheus.CounterVec
	Skipped    prometheus.Counter
	JobQueued  *prometheus.HistogramVec
	JobRun     *prometheus.HistogramVec

	// Generation metrics
	Generations *prometheus.CounterVec
	Attempts    prometheus.Histogram
}

// NewCollector creates a collector and registers its metrics.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		Actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "actions_total",
				Help:      "Actions executed, by type and outcome",
			},
			[]string{"type", "outcome"},
		),
		Reconciled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "reconciled_elements_total",
				Help:      "Elements touched by reconciliation, by result",
			},
			[]string{"result"},
		),
		Skipped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "reconcile_skipped_items_total",
				Help:      "Invalid batch items skipped by reconciliation",
			},
		),
		JobQueued: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "job_queue_seconds",
				Help:      "Time a job waited in the engine queue",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		JobRun: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "job_duration_seconds",
				Help:      "Time the engine spent running a job",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		Generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "generations_total",
				Help:      "Generation calls, by outcome (valid, invalid, failed)",
			},
			[]string{"outcome"},
		),
		Attempts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "generation_attempts",
				Help:      "Attempts needed per generation call",
				Buckets:   []float64{1, 2, 3, 4, 5, 8},
			},
		),
	}

	registry.MustRegister(
		c.Actions,
		c.Reconciled,
		c.Skipped,
		c.JobQueued,
		c.JobRun,
		c.Generations,
		c.Attempts,
	)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveActions counts per-action outcomes.
func (c *Collector) ObserveActions(results []ir.ActionResult) {
	for _, r := range results {
		outcome := "success"
		if !r.Success {
			outcome = "failure"
		}
		c.Actions.WithLabelValues(string(r.Type), outcome).Inc()
	}
}

// ObserveReconcile counts created, updated, deleted and skipped elements.
func (c *Collector) ObserveReconcile(res reconcile.Result) {
	c.Reconciled.WithLabelValues("created").Add(float64(len(res.CreatedIDs)))
	c.Reconciled.WithLabelValues("updated").Add(float64(len(res.UpdatedIDs)))
	c.Reconciled.WithLabelValues("deleted").Add(float64(len(res.DeletedIDs)))
	c.Skipped.Add(float64(res.Skipped))
}

// ObserveJob records queue wait and run time for one job.
func (c *Collector) ObserveJob(kind string, queued, ran time.Duration) {
	c.JobQueued.WithLabelValues(kind).Observe(queued.Seconds())
	c.JobRun.WithLabelValues(kind).Observe(ran.Seconds())
}

// ObserveGeneration records one retry.Do call.
func (c *Collector) ObserveGeneration(attempts int, valid bool, err error) {
	outcome := "valid"
	switch {
	case err != nil:
		outcome = "failed"
	case !valid:
		outcome = "invalid"
	}
	c.Generations.WithLabelValues(outcome).Inc()
	c.Attempts.Observe(float64(attempts))
}
