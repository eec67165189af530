package ontology

import "strings"

// CompareTerms orders terms by kind, then lexical value, then language tag
// and datatype. nil sorts first.
func CompareTerms(a, b Term) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if a.Kind() != b.Kind() {
		if a.Kind() < b.Kind() {
			return -1
		}
		return 1
	}
	if c := strings.Compare(a.Value(), b.Value()); c != 0 {
		return c
	}
	la, aok := a.(Literal)
	lb, bok := b.(Literal)
	if !aok || !bok {
		return 0
	}
	if c := strings.Compare(la.Lang, lb.Lang); c != 0 {
		return c
	}
	return strings.Compare(string(la.Datatype), string(lb.Datatype))
}

// CompareTriples orders triples subject first, then predicate, then object
func CompareTriples(a, b Triple) int {
	if c := CompareTerms(a.Subject, b.Subject); c != 0 {
		return c
	}
	if c := strings.Compare(string(a.Predicate), string(b.Predicate)); c != 0 {
		return c
	}
	return CompareTerms(a.Object, b.Object)
}
