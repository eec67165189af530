package editor

import (
	"strings"

	"github.com/google/uuid"

	"github.com/wbrown/janus-ontology/ontology"
	"github.com/wbrown/janus-ontology/ontology/executor"
	"github.com/wbrown/janus-ontology/ontology/query"
)

// Querier is the read side of the fact store
type Querier interface {
	Query(g *query.Group) (*executor.Result, error)
}

// Suggester proposes values for the editing wizards from domain and range
// facts
type Suggester struct {
	store Querier
}

// NewSuggester creates a suggester over store
func NewSuggester(store Querier) *Suggester {
	return &Suggester{store: store}
}

// PredicatesFor lists properties whose domain is class
func (s *Suggester) PredicatesFor(class ontology.IRI) ([]ontology.IRI, error) {
	g := query.NewGroup().Where(
		query.T(query.V("p"), query.C(ontology.RDFSDomain), query.C(class)),
	)
	return s.collect(g, "p")
}

// PropertiesFor lists properties whose domain or range is class
func (s *Suggester) PropertiesFor(class ontology.IRI) ([]ontology.IRI, error) {
	g := query.NewGroup().Union(
		query.NewGroup().Where(query.T(query.V("p"), query.C(ontology.RDFSDomain), query.C(class))),
		query.NewGroup().Where(query.T(query.V("p"), query.C(ontology.RDFSRange), query.C(class))),
	)
	return s.collect(g, "p")
}

// ClassesFor lists the domain and range classes of property
func (s *Suggester) ClassesFor(property ontology.IRI) ([]ontology.IRI, error) {
	g := query.NewGroup().Union(
		query.NewGroup().Where(query.T(query.C(property), query.C(ontology.RDFSDomain), query.V("c"))),
		query.NewGroup().Where(query.T(query.C(property), query.C(ontology.RDFSRange), query.V("c"))),
	)
	return s.collect(g, "c")
}

// collect returns the distinct identifiers bound to name, in row order
func (s *Suggester) collect(g *query.Group, name string) ([]ontology.IRI, error) {
	res, err := s.store.Query(g)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	var out []ontology.IRI
	seen := make(map[ontology.IRI]bool)
	err = res.Each(func(row executor.Binding) bool {
		if id, ok := ontology.AsIRI(row.Term(name)); ok && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
		return true
	})
	return out, err
}

// MintIRI creates a fresh identifier in namespace. A namespace without a
// trailing '/' or '#' gets '#'.
func MintIRI(namespace string) ontology.IRI {
	if !strings.HasSuffix(namespace, "/") && !strings.HasSuffix(namespace, "#") {
		namespace += "#"
	}
	return ontology.IRI(namespace + "i-" + uuid.NewString())
}

// Namespace returns id without its short name, keeping the separator
func Namespace(id ontology.IRI) string {
	s := string(id)
	if i := strings.LastIndexAny(s, "/#"); i >= 0 {
		return s[:i+1]
	}
	return s
}
