package hierarchy

import (
	"time"

	"github.com/wbrown/janus-ontology/ontology"
	"github.com/wbrown/janus-ontology/ontology/annotations"
	"github.com/wbrown/janus-ontology/ontology/executor"
	"github.com/wbrown/janus-ontology/ontology/query"
	"github.com/wbrown/janus-ontology/ontology/registry"
)

// Populator resolves the members of classes. Membership is exact: only
// direct rdf:type facts count, so inherited members show up after a
// reasoning pass.
type Populator struct {
	store     Store
	instances *registry.Registry
	collector *annotations.Collector
}

// NewPopulator creates a populator that refreshes the instance registry
func NewPopulator(store Store, instances *registry.Registry, opts Options) *Populator {
	return &Populator{store: store, instances: instances, collector: opts.Collector}
}

// InstancesOf returns the identifiers typed with class
func (p *Populator) InstancesOf(class ontology.IRI) ([]ontology.IRI, error) {
	g := query.NewGroup().Where(
		query.T(query.V("i"), query.C(ontology.RDFType), query.C(class)),
	)
	var out []ontology.IRI
	err := each(p.store, g, func(row executor.Binding) {
		if id, ok := ontology.AsIRI(row.Term("i")); ok {
			out = append(out, id)
		}
	})
	return out, err
}

// Members scans every type fact once and groups the typed identifiers by
// class. Both the classes and their members keep discovery order.
func (p *Populator) Members() (classes []ontology.IRI, members map[ontology.IRI][]ontology.IRI, err error) {
	g := query.NewGroup().Where(
		query.T(query.V("i"), query.C(ontology.RDFType), query.V("c")),
	)
	members = make(map[ontology.IRI][]ontology.IRI)
	err = each(p.store, g, func(row executor.Binding) {
		id, ok1 := ontology.AsIRI(row.Term("i"))
		class, ok2 := ontology.AsIRI(row.Term("c"))
		if !ok1 || !ok2 {
			return
		}
		if _, seen := members[class]; !seen {
			classes = append(classes, class)
		}
		members[class] = append(members[class], id)
	})
	return classes, members, err
}

// Discover rebuilds the instance registry from every identifier that is the
// subject of a type fact, and returns them in discovery order
func (p *Populator) Discover() ([]ontology.IRI, error) {
	start := time.Now()
	g := query.NewGroup().Where(
		query.T(query.V("i"), query.C(ontology.RDFType), query.Any()),
	)
	var out []ontology.IRI
	seen := make(map[ontology.IRI]bool)
	err := each(p.store, g, func(row executor.Binding) {
		if id, ok := ontology.AsIRI(row.Term("i")); ok && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	})
	if err != nil {
		return nil, err
	}

	p.instances.Reset()
	for _, id := range out {
		p.instances.Register(id)
	}
	p.collector.AddTiming(annotations.SearchIndexed, start, map[string]interface{}{
		"instances": len(out),
	})
	return out, nil
}

// Populate returns a copy of f with the members of every class attached to
// each of its occurrences, roots included
func (p *Populator) Populate(f *Forest) (*Forest, error) {
	start := time.Now()
	_, members, err := p.Members()
	if err != nil {
		return nil, err
	}
	out := f.Clone()
	attached := 0
	out.Walk(func(n *Node, _ int) bool {
		n.Instances = append([]ontology.IRI(nil), members[n.ID]...)
		attached += len(n.Instances)
		return true
	})
	p.collector.AddTiming(annotations.PopulatedBuilt, start, map[string]interface{}{
		"nodes":     out.Len(),
		"instances": attached,
	})
	return out, nil
}
