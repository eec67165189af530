package hierarchy

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/wbrown/janus-ontology/ontology"
	"github.com/wbrown/janus-ontology/ontology/annotations"
	"github.com/wbrown/janus-ontology/ontology/executor"
	"github.com/wbrown/janus-ontology/ontology/query"
	"github.com/wbrown/janus-ontology/ontology/registry"
)

// DefaultLanguages is the label language filter used when none is configured
var DefaultLanguages = []string{"en", ""}

// Store is the read side of the fact store
type Store interface {
	Query(g *query.Group) (*executor.Result, error)
}

// Options configures builders and populators
type Options struct {
	// Languages allowed for labels; "" admits untagged literals
	Languages []string
	Logger    *zap.Logger
	Collector *annotations.Collector
}

func (o Options) languages() []string {
	if len(o.Languages) == 0 {
		return DefaultLanguages
	}
	return o.Languages
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Hierarchy is the derived subclass structure
type Hierarchy struct {
	Graph  *Graph
	Forest *Forest
}

// Property describes one object property. Empty fields mean the fact is absent.
type Property struct {
	ID     ontology.IRI
	Name   string
	Label  string
	Domain ontology.IRI
	Range  ontology.IRI
}

// Builder derives the class hierarchy and the property catalog
type Builder struct {
	store      Store
	classes    *registry.Registry
	properties *registry.Registry
	langs      []string
	logger     *zap.Logger
	collector  *annotations.Collector
}

// NewBuilder creates a builder that refreshes the given registries
func NewBuilder(store Store, classes, properties *registry.Registry, opts Options) *Builder {
	return &Builder{
		store:      store,
		classes:    classes,
		properties: properties,
		langs:      opts.languages(),
		logger:     opts.logger(),
		collector:  opts.Collector,
	}
}

// Edges returns every subclass fact whose endpoints are both identifiers
func (b *Builder) Edges() ([]Edge, error) {
	return Edges(b.store)
}

// Edges reads the subclass facts of store. Facts with a blank endpoint,
// such as restrictions, are skipped.
func Edges(store Store) ([]Edge, error) {
	g := query.NewGroup().Where(
		query.T(query.V("child"), query.C(ontology.RDFSSubClassOf), query.V("parent")),
	)
	var edges []Edge
	err := each(store, g, func(row executor.Binding) {
		child, ok1 := ontology.AsIRI(row.Term("child"))
		parent, ok2 := ontology.AsIRI(row.Term("parent"))
		if ok1 && ok2 {
			edges = append(edges, Edge{Child: child, Parent: parent})
		}
	})
	return edges, err
}

// Build re-registers every class that takes part in a subclass edge, then
// checks the whole graph for cycles and emits the forest. Classes without
// any subclass edge do not appear.
func (b *Builder) Build() (*Hierarchy, error) {
	start := time.Now()
	edges, err := b.Edges()
	if err != nil {
		return nil, err
	}

	b.classes.Reset()
	for _, e := range edges {
		b.classes.Register(e.Parent)
		b.classes.Register(e.Child)
	}

	graph := NewGraph(edges)
	if err := graph.DetectCycle(); err != nil {
		var cerr *ontology.CycleError
		if errors.As(err, &cerr) {
			b.logger.Warn("subclass cycle", zap.String("node", string(cerr.Node)), zap.Int("length", len(cerr.Path)-1))
		}
		b.collector.AddError(annotations.ErrorCycle, "hierarchy", err)
		return nil, err
	}

	forest := graph.Forest()
	b.collector.AddTiming(annotations.HierarchyBuilt, start, map[string]interface{}{
		"edges":   len(edges),
		"classes": len(graph.Nodes()),
		"roots":   len(forest.Roots),
	})
	return &Hierarchy{Graph: graph, Forest: forest}, nil
}

// Properties lists every owl:ObjectProperty with its label, domain and range.
// The first value found wins for each field. The property registry is
// rebuilt from the result.
func (b *Builder) Properties() ([]Property, error) {
	start := time.Now()
	g := query.NewGroup().
		Where(query.T(query.V("p"), query.C(ontology.RDFType), query.C(ontology.OWLObjectProperty))).
		Optional(query.NewGroup().
			Where(query.T(query.V("p"), query.C(ontology.RDFSLabel), query.V("label"))).
			Filter(query.Lang("label", b.langs...))).
		Optional(query.NewGroup().
			Where(query.T(query.V("p"), query.C(ontology.RDFSDomain), query.V("domain")))).
		Optional(query.NewGroup().
			Where(query.T(query.V("p"), query.C(ontology.RDFSRange), query.V("range"))))

	var props []*Property
	byID := make(map[ontology.IRI]*Property)
	err := each(b.store, g, func(row executor.Binding) {
		id, ok := ontology.AsIRI(row.Term("p"))
		if !ok {
			return
		}
		p := byID[id]
		if p == nil {
			p = &Property{ID: id, Name: registry.ShortName(id)}
			byID[id] = p
			props = append(props, p)
		}
		if lit, ok := row.Term("label").(ontology.Literal); ok && p.Label == "" {
			p.Label = lit.Text
		}
		if d, ok := ontology.AsIRI(row.Term("domain")); ok && p.Domain == "" {
			p.Domain = d
		}
		if r, ok := ontology.AsIRI(row.Term("range")); ok && p.Range == "" {
			p.Range = r
		}
	})
	if err != nil {
		return nil, err
	}

	b.properties.Reset()
	out := make([]Property, len(props))
	for i, p := range props {
		b.properties.Register(p.ID)
		out[i] = *p
	}
	b.collector.AddTiming(annotations.CatalogBuilt, start, map[string]interface{}{
		"properties": len(out),
	})
	return out, nil
}

// each runs g and calls fn for every row
func each(store Store, g *query.Group, fn func(executor.Binding)) error {
	res, err := store.Query(g)
	if err != nil {
		return err
	}
	defer res.Close()
	return res.Each(func(row executor.Binding) bool {
		fn(row)
		return true
	})
}
