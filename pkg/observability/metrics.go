package observability

import (
	"net/http"
	"time"

	"github.com/aretw0/facilitator/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "facilitator"

// Verdict label values.
const (
	VerdictProceed = "proceed"
	VerdictVeto    = "veto"
)

// Metrics holds the engine collectors.
type Metrics struct {
	registry *prometheus.Registry

	Checks            *prometheus.CounterVec
	NodeStarts        prometheus.Counter
	NodeFinishes      *prometheus.CounterVec
	Errors            prometheus.Counter
	EvaluationSeconds prometheus.Histogram
}

// NewMetrics creates and registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Checks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checks_total",
				Help:      "Pre-facilitation checker verdicts",
			},
			[]string{"checker", "verdict"},
		),
		NodeStarts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "node_starts_total",
				Help:      "Node executions that passed facilitation",
			},
		),
		NodeFinishes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "node_finishes_total",
				Help:      "Node executions that reached a final status",
			},
			[]string{"status"},
		),
		Errors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Engine-level errors handled for node executions",
			},
		),
		EvaluationSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "expression_evaluation_seconds",
				Help:      "Duration of condition evaluations",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
			},
		),
	}
	m.registry.MustRegister(m.Checks, m.NodeStarts, m.NodeFinishes, m.Errors, m.EvaluationSeconds)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveCheck counts one checker verdict.
func (m *Metrics) ObserveCheck(checker string, check domain.ExecutionCheck) {
	verdict := VerdictProceed
	if !check.Proceed {
		verdict = VerdictVeto
	}
	m.Checks.WithLabelValues(checker, verdict).Inc()
}

// ObserveEvaluation records one evaluation duration.
func (m *Metrics) ObserveEvaluation(d time.Duration) {
	m.EvaluationSeconds.Observe(d.Seconds())
}
