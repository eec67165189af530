// Package reasoner closes class membership under subsumption: whenever
// i rdf:type C and C rdfs:subClassOf D hold, i rdf:type D is added, until
// a pass adds nothing.
package reasoner

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wbrown/janus-ontology/ontology"
	"github.com/wbrown/janus-ontology/ontology/annotations"
	"github.com/wbrown/janus-ontology/ontology/executor"
	"github.com/wbrown/janus-ontology/ontology/hierarchy"
	"github.com/wbrown/janus-ontology/ontology/metrics"
	"github.com/wbrown/janus-ontology/ontology/query"
)

// Store is the part of the fact store the engine reads and writes
type Store interface {
	Query(g *query.Group) (*executor.Result, error)
	AddAll(triples []ontology.Triple) (int, error)
}

// Options configures an Engine
type Options struct {
	// MaxPasses bounds the number of passes; zero means no bound.
	MaxPasses int
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Collector *annotations.Collector
}

// Report summarizes one Apply call
type Report struct {
	Inferred int           // type facts added
	Passes   int           // passes run, including the final one that added nothing
	Duration time.Duration // wall time
}

// Engine runs forward chaining over the fact store
type Engine struct {
	store     Store
	maxPasses int
	logger    *zap.Logger
	metrics   *metrics.Metrics
	collector *annotations.Collector
}

// New creates an engine over store
func New(store Store, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:     store,
		maxPasses: opts.MaxPasses,
		logger:    logger,
		metrics:   opts.Metrics,
		collector: opts.Collector,
	}
}

// ErrPassLimit is returned when MaxPasses is reached before a fixed point
var ErrPassLimit = errors.New("reasoning stopped before reaching a fixed point")

// Apply runs passes until one adds nothing, so a second call at the fixed
// point adds nothing and runs a single pass. A subclass cycle is reported as
// *ontology.CycleError before anything is written. On any error the report
// still counts the facts already added.
func (e *Engine) Apply() (Report, error) {
	start := time.Now()
	var report Report

	edges, err := hierarchy.Edges(e.store)
	if err != nil {
		return e.finish(report, start, err)
	}
	graph := hierarchy.NewGraph(edges)
	if err := graph.DetectCycle(); err != nil {
		e.collector.AddError(annotations.ErrorCycle, "reasoner", err)
		return e.finish(report, start, err)
	}

	for {
		if e.maxPasses > 0 && report.Passes >= e.maxPasses {
			return e.finish(report, start, ErrPassLimit)
		}
		passStart := time.Now()
		report.Passes++

		inferred, err := e.pass()
		if err != nil {
			return e.finish(report, start, err)
		}
		added, err := e.store.AddAll(inferred)
		report.Inferred += added
		if err != nil {
			return e.finish(report, start, err)
		}

		e.collector.AddTiming(annotations.ReasoningPass, passStart, map[string]interface{}{
			"pass":       report.Passes,
			"candidates": len(inferred),
			"added":      added,
		})
		if added == 0 {
			return e.finish(report, start, nil)
		}
	}
}

// pass derives one step of membership: the direct superclasses of every
// asserted type
func (e *Engine) pass() ([]ontology.Triple, error) {
	g := query.NewGroup().Where(
		query.T(query.V("i"), query.C(ontology.RDFType), query.V("c")),
		query.T(query.V("c"), query.C(ontology.RDFSSubClassOf), query.V("d")),
	)
	res, err := e.store.Query(g)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	var out []ontology.Triple
	seen := make(map[ontology.Triple]bool)
	err = res.Each(func(row executor.Binding) bool {
		i, ok1 := ontology.AsIRI(row.Term("i"))
		d, ok2 := ontology.AsIRI(row.Term("d"))
		if !ok1 || !ok2 {
			return true
		}
		t := ontology.NewTriple(i, ontology.RDFType, d)
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
		return true
	})
	return out, err
}

func (e *Engine) finish(report Report, start time.Time, err error) (Report, error) {
	report.Duration = time.Since(start)
	if err != nil {
		var cerr *ontology.CycleError
		if !errors.As(err, &cerr) && !errors.Is(err, ErrPassLimit) {
			err = fmt.Errorf("reasoning pass %d: %w", report.Passes, err)
		}
		e.logger.Warn("reasoning failed", zap.Error(err), zap.Int("inferred", report.Inferred))
		return report, err
	}

	e.metrics.ObserveReasoning(report.Inferred, report.Passes)
	e.logger.Info("reasoning complete",
		zap.Int("inferred", report.Inferred),
		zap.Int("passes", report.Passes),
		zap.Duration("duration", report.Duration))
	e.collector.AddTiming(annotations.ReasoningComplete, start, map[string]interface{}{
		"inferred": report.Inferred,
		"passes":   report.Passes,
	})
	return report, nil
}
