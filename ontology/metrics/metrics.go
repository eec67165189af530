// Package metrics exposes Prometheus instruments for the fact store,
// the query engine, the reasoner and session commands.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ontoview"

// Metrics holds every instrument. All methods are safe on a nil receiver.
type Metrics struct {
	Triples         prometheus.Gauge
	Loads           *prometheus.CounterVec
	LoadDuration    prometheus.Histogram
	Queries         *prometheus.CounterVec
	Inferred        prometheus.Counter
	ReasoningPasses prometheus.Histogram
	Commands        *prometheus.CounterVec
	ViewErrors      *prometheus.CounterVec
}

// New registers the instruments with reg. Pass prometheus.NewRegistry() in
// tests to keep registrations isolated.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Triples: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_triples",
			Help:      "Number of distinct triples in the fact store",
		}),
		Loads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_loads_total",
			Help:      "Document loads by format and result",
		}, []string{"format", "result"}),
		LoadDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_load_duration_seconds",
			Help:      "Duration of document parsing and insertion",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		Queries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Pattern queries by result",
		}, []string{"result"}),
		Inferred: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reasoner_inferred_total",
			Help:      "Type facts added by subclass reasoning",
		}),
		ReasoningPasses: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reasoner_passes",
			Help:      "Passes needed to reach a fixed point",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
		}),
		Commands: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_commands_total",
			Help:      "Session commands by kind and result",
		}, []string{"kind", "result"}),
		ViewErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_errors_total",
			Help:      "Derived view rebuilds that failed, by view",
		}, []string{"view"}),
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// SetTriples records the store size
func (m *Metrics) SetTriples(n int) {
	if m == nil {
		return
	}
	m.Triples.Set(float64(n))
}

// ObserveLoad records one document load
func (m *Metrics) ObserveLoad(format string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.Loads.WithLabelValues(format, result(err)).Inc()
	m.LoadDuration.Observe(time.Since(start).Seconds())
}

// ObserveQuery records one query
func (m *Metrics) ObserveQuery(err error) {
	if m == nil {
		return
	}
	m.Queries.WithLabelValues(result(err)).Inc()
}

// ObserveReasoning records one reasoning run
func (m *Metrics) ObserveReasoning(inferred, passes int) {
	if m == nil {
		return
	}
	m.Inferred.Add(float64(inferred))
	m.ReasoningPasses.Observe(float64(passes))
}

// ObserveCommand records one session command
func (m *Metrics) ObserveCommand(kind string, err error) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(kind, result(err)).Inc()
}

// ObserveViewError records a failed derived view rebuild
func (m *Metrics) ObserveViewError(view string) {
	if m == nil {
		return
	}
	m.ViewErrors.WithLabelValues(view).Inc()
}
