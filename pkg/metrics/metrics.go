// Package metrics exposes the Prometheus instruments of the trivia scoring service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "trivia"

// Registry holds the service's collectors. It is private so tests and multiple
// servers in one process never collide on the default registerer.
type Registry struct {
	reg *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	submissions         *prometheus.CounterVec
	aggregationFailures prometheus.Counter
	reconcileRuns       *prometheus.CounterVec
}

// NewRegistry creates and registers all collectors, plus Go runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "submissions_total",
			Help:      "Recorded submissions by verdict.",
		}, []string{"verdict"}),
		aggregationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "leaderboard",
			Name:      "aggregation_failures_total",
			Help:      "Leaderboard recomputations that failed and were swallowed.",
		}),
		reconcileRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "leaderboard",
			Name:      "reconcile_runs_total",
			Help:      "Leaderboard reconciliation runs by outcome.",
		}, []string{"outcome"}),
	}

	r.reg.MustRegister(
		r.httpRequests,
		r.httpRequestDuration,
		r.submissions,
		r.aggregationFailures,
		r.reconcileRuns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Gatherer exposes the underlying registry for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

func (r *Registry) ObserveHTTP(route, method, code string, seconds float64) {
	r.httpRequests.WithLabelValues(route, method, code).Inc()
	r.httpRequestDuration.WithLabelValues(route, method).Observe(seconds)
}

// RecordSubmission counts one persisted submission.
func (r *Registry) RecordSubmission(correct bool) {
	verdict := "incorrect"
	if correct {
		verdict = "correct"
	}
	r.submissions.WithLabelValues(verdict).Inc()
}

func (r *Registry) RecordAggregationFailure() {
	r.aggregationFailures.Inc()
}

func (r *Registry) RecordReconcile(ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	r.reconcileRuns.WithLabelValues(outcome).Inc()
}
