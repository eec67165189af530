package session

import (
	"github.com/wbrown/janus-ontology/ontology"
	"github.com/wbrown/janus-ontology/ontology/executor"
	"github.com/wbrown/janus-ontology/ontology/hierarchy"
	"github.com/wbrown/janus-ontology/ontology/query"
	"github.com/wbrown/janus-ontology/ontology/registry"
)

// EntityKind says which registry an identifier belongs to
type EntityKind string

const (
	EntityClass    EntityKind = "class"
	EntityProperty EntityKind = "property"
	EntityInstance EntityKind = "instance"
)

// Fact is one (property, value) pair of an entity
type Fact struct {
	Predicate ontology.IRI
	Value     ontology.Term
	// Link is set when Value names a known class, property or instance
	Link EntityKind
}

// Display renders the value: short names for identifiers, text for literals
func (f Fact) Display() string {
	switch v := f.Value.(type) {
	case ontology.IRI:
		if name := registry.ShortName(v); name != "" {
			return name
		}
		return string(v)
	case ontology.Literal:
		return v.Text
	case nil:
		return ""
	default:
		return v.String()
	}
}

// Detail describes one entity
type Detail struct {
	Kind  EntityKind
	ID    ontology.IRI
	Name  string
	Label string
	Facts []Fact

	// classes
	Parents  []ontology.IRI
	Children []ontology.IRI
	Members  []ontology.IRI

	// instances
	Types []ontology.IRI

	// properties
	Property *hierarchy.Property
}

// facts lists every (property, value) pair with id as subject. Literal
// values are restricted to the session languages.
func (s *Session) facts(id ontology.IRI) ([]Fact, error) {
	g := query.NewGroup().
		Where(query.T(query.C(id), query.V("p"), query.V("v"))).
		Filter(query.Lang("v", s.opts.Languages...))
	res, err := s.db.Query(g)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	var out []Fact
	err = res.Each(func(row executor.Binding) bool {
		p, ok := ontology.AsIRI(row.Term("p"))
		if !ok {
			return true
		}
		v := row.Term("v")
		out = append(out, Fact{Predicate: p, Value: v, Link: s.linkKind(v)})
		return true
	})
	return out, err
}

func (s *Session) linkKind(t ontology.Term) EntityKind {
	id, ok := ontology.AsIRI(t)
	if !ok {
		return ""
	}
	switch {
	case s.classes.Contains(id):
		return EntityClass
	case s.properties.Contains(id):
		return EntityProperty
	case s.instances.Contains(id):
		return EntityInstance
	}
	return ""
}

func (s *Session) detail(kind EntityKind, id ontology.IRI) (*Detail, error) {
	facts, err := s.facts(id)
	if err != nil {
		return nil, err
	}
	d := &Detail{Kind: kind, ID: id, Name: registry.ShortName(id), Facts: facts}
	for _, f := range facts {
		if lit, ok := f.Value.(ontology.Literal); ok && f.Predicate == ontology.RDFSLabel && d.Label == "" {
			d.Label = lit.Text
		}
		if t, ok := ontology.AsIRI(f.Value); ok && f.Predicate == ontology.RDFType {
			d.Types = append(d.Types, t)
		}
	}

	switch kind {
	case EntityClass:
		if h := s.views.Hierarchy; h != nil {
			d.Parents = h.Graph.Parents(id)
			d.Children = h.Graph.Children(id)
		}
		if d.Members, err = s.populator.InstancesOf(id); err != nil {
			return nil, err
		}
	case EntityProperty:
		for i := range s.views.Properties {
			if s.views.Properties[i].ID == id {
				p := s.views.Properties[i]
				d.Property = &p
				break
			}
		}
	}
	return d, nil
}
