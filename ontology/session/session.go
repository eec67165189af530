// Package session is the command surface of the viewer. Every user action
// is a Command dispatched through one handler table; commands that change
// the store rebuild the derived views before returning.
package session

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wbrown/janus-ontology/ontology"
	"github.com/wbrown/janus-ontology/ontology/annotations"
	"github.com/wbrown/janus-ontology/ontology/editor"
	"github.com/wbrown/janus-ontology/ontology/hierarchy"
	"github.com/wbrown/janus-ontology/ontology/metrics"
	"github.com/wbrown/janus-ontology/ontology/reasoner"
	"github.com/wbrown/janus-ontology/ontology/registry"
	"github.com/wbrown/janus-ontology/ontology/search"
	"github.com/wbrown/janus-ontology/ontology/storage"
)

// View names used in diagnostics
const (
	ViewHierarchy  = "hierarchy"
	ViewProperties = "properties"
	ViewPopulated  = "populated"
	ViewInstances  = "instances"
)

// Options configures a Session
type Options struct {
	// Languages admitted for labels and literal values; "" admits untagged
	Languages []string
	// DefaultLang tags labels of new instances
	DefaultLang string
	// Namespace receives minted instance identifiers; empty means the
	// namespace of the instance's class
	Namespace string
	// Prefixes available to text queries in addition to rdf, rdfs, owl, xsd
	Prefixes  map[string]string
	MaxPasses int
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Collector *annotations.Collector
}

// Views holds the derived state rebuilt after every structural change.
// A nil field means the view failed to build; see the diagnostics.
type Views struct {
	Hierarchy  *hierarchy.Hierarchy
	Properties []hierarchy.Property
	Populated  *hierarchy.Forest
	Instances  []ontology.IRI
}

// Session owns the registries and views layered over one fact store
type Session struct {
	db   *storage.Database
	opts Options

	classes    *registry.Registry
	properties *registry.Registry
	instances  *registry.Registry

	builder   *hierarchy.Builder
	populator *hierarchy.Populator
	index     *search.Index
	engine    *reasoner.Engine
	editor    *editor.Editor
	suggester *editor.Suggester

	logger    *zap.Logger
	metrics   *metrics.Metrics
	collector *annotations.Collector

	mu    sync.Mutex
	views Views
	diags []Diagnostic
}

type handler func(s *Session, cmd Command) (*Response, error)

var handlers = map[Kind]handler{
	KindLoad:           (*Session).load,
	KindSave:           (*Session).save,
	KindSelectClass:    (*Session).selectClass,
	KindSelectProperty: (*Session).selectProperty,
	KindSelectInstance: (*Session).selectInstance,
	KindOpen:           (*Session).open,
	KindSearch:         (*Session).search,
	KindReason:         (*Session).reason,
	KindAddInstance:    (*Session).addInstance,
	KindAddTriple:      (*Session).addTriple,
	KindQuery:          (*Session).query,
	KindSuggest:        (*Session).suggest,
}

// New creates a session over db and builds the initial views
func New(db *storage.Database, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(opts.Languages) == 0 {
		opts.Languages = hierarchy.DefaultLanguages
	}

	s := &Session{
		db:         db,
		opts:       opts,
		classes:    registry.New("class"),
		properties: registry.New("property"),
		instances:  registry.New("instance"),
		logger:     logger,
		metrics:    opts.Metrics,
		collector:  opts.Collector,
	}
	hopts := hierarchy.Options{Languages: opts.Languages, Logger: logger, Collector: opts.Collector}
	s.builder = hierarchy.NewBuilder(db, s.classes, s.properties, hopts)
	s.populator = hierarchy.NewPopulator(db, s.instances, hopts)
	s.index = search.New(s.classes, s.properties, s.instances)
	s.engine = reasoner.New(db, reasoner.Options{
		MaxPasses: opts.MaxPasses,
		Logger:    logger,
		Metrics:   opts.Metrics,
		Collector: opts.Collector,
	})
	s.editor = editor.New(db, editor.Options{DefaultLang: opts.DefaultLang, Logger: logger, Collector: opts.Collector})
	s.suggester = editor.NewSuggester(db)

	s.mu.Lock()
	s.diags = s.refresh()
	s.mu.Unlock()
	return s
}

// Dispatch runs one command
func (s *Session) Dispatch(cmd Command) (*Response, error) {
	if cmd == nil {
		return nil, fmt.Errorf("nil command")
	}
	h, ok := handlers[cmd.Kind()]
	if !ok {
		return nil, fmt.Errorf("unknown command %q", cmd.Kind())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	resp, err := h(s, cmd)
	s.metrics.ObserveCommand(string(cmd.Kind()), err)
	if err != nil {
		s.logger.Debug("command failed", zap.String("kind", string(cmd.Kind())), zap.Error(err))
		return nil, err
	}
	resp.Kind = cmd.Kind()
	s.logger.Debug("command complete",
		zap.String("kind", string(cmd.Kind())),
		zap.Duration("latency", time.Since(start)),
		zap.Bool("refreshed", resp.Refreshed))
	return resp, nil
}

// Views returns the current derived views
func (s *Session) Views() Views {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.views
}

// Diagnostics returns the problems found by the last view rebuild
func (s *Session) Diagnostics() []Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Diagnostic(nil), s.diags...)
}

// Size returns the number of stored triples
func (s *Session) Size() int {
	return s.db.Size()
}

// Registries exposes the class, property and instance registries
func (s *Session) Registries() (classes, properties, instances *registry.Registry) {
	return s.classes, s.properties, s.instances
}

// refresh rebuilds every view from the store. A view that fails is left
// nil and reported; the others are still rebuilt. Must hold s.mu.
func (s *Session) refresh() []Diagnostic {
	var diags []Diagnostic
	fail := func(view string, err error) {
		diags = append(diags, Diagnostic{View: view, Err: err})
		s.metrics.ObserveViewError(view)
		s.collector.AddError(annotations.ErrorView, view, err)
		s.logger.Warn("view rebuild failed", zap.String("view", view), zap.Error(err))
	}

	var v Views
	h, err := s.builder.Build()
	if err != nil {
		fail(ViewHierarchy, err)
	} else {
		v.Hierarchy = h
	}

	if v.Properties, err = s.builder.Properties(); err != nil {
		fail(ViewProperties, err)
	}

	if v.Hierarchy != nil {
		if v.Populated, err = s.populator.Populate(v.Hierarchy.Forest); err != nil {
			fail(ViewPopulated, err)
		}
	}

	if v.Instances, err = s.populator.Discover(); err != nil {
		fail(ViewInstances, err)
	}

	s.views = v
	s.diags = diags
	return diags
}

// changed refreshes the views after a mutation and marks the response
func (s *Session) changed(resp *Response) *Response {
	resp.Diagnostics = s.refresh()
	resp.Refreshed = true
	return resp
}
