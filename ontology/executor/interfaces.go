// Package executor evaluates pattern queries lazily. Rows are produced on
// demand by a chain of iterators, and every Result can be iterated more than
// once against the same snapshot of the fact store.
package executor

import (
	"github.com/wbrown/janus-ontology/ontology"
)

// Tuple is one result row, indexed by column. nil marks an unbound variable.
type Tuple []ontology.Term

// Iterator produces tuples one at a time
type Iterator interface {
	Next() bool
	Tuple() Tuple
	Close() error
}

// TripleIterator produces stored triples one at a time
type TripleIterator interface {
	Next() bool
	Triple() ontology.Triple
	Close() error
}

// Matcher looks up triples. A nil position is a wildcard. Implementations
// must return a consistent view for the lifetime of the matcher.
type Matcher interface {
	Match(s, p, o ontology.Term) TripleIterator
}
