package ontology

import "fmt"

// Triple is a single fact. The predicate is always an IRI;
// the subject is an IRI or a blank node.
type Triple struct {
	Subject   Term
	Predicate IRI
	Object    Term
}

// NewTriple builds a triple
func NewTriple(s Term, p IRI, o Term) Triple {
	return Triple{Subject: s, Predicate: p, Object: o}
}

// At returns the term at position 0 (subject), 1 (predicate) or 2 (object)
func (t Triple) At(pos int) Term {
	switch pos {
	case 0:
		return t.Subject
	case 1:
		return t.Predicate
	default:
		return t.Object
	}
}

// Valid reports whether the triple has a storable shape
func (t Triple) Valid() error {
	switch t.Subject.(type) {
	case IRI, Blank:
	case nil:
		return fmt.Errorf("triple has no subject")
	default:
		return fmt.Errorf("subject %s must be an IRI or blank node", t.Subject)
	}
	if t.Predicate == "" {
		return fmt.Errorf("triple has no predicate")
	}
	if t.Object == nil {
		return fmt.Errorf("triple has no object")
	}
	return nil
}

// String renders the triple in N-Triples style
func (t Triple) String() string {
	return fmt.Sprintf("%s <%s> %s .", render(t.Subject), t.Predicate, render(t.Object))
}

func render(t Term) string {
	if i, ok := t.(IRI); ok {
		return "<" + string(i) + ">"
	}
	if t == nil {
		return "nil"
	}
	return t.String()
}
