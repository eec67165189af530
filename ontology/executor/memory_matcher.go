package executor

import (
	"github.com/wbrown/janus-ontology/ontology"
)

// MemoryMatcher matches patterns against an in-memory slice of triples,
// using per-position indices when a position is bound
type MemoryMatcher struct {
	triples   []ontology.Triple
	bySubject map[ontology.Term][]int
	byPred    map[ontology.IRI][]int
	byObject  map[ontology.Term][]int
}

// NewMemoryMatcher indexes triples. Duplicates are kept as given.
func NewMemoryMatcher(triples []ontology.Triple) *MemoryMatcher {
	m := &MemoryMatcher{
		triples:   triples,
		bySubject: make(map[ontology.Term][]int),
		byPred:    make(map[ontology.IRI][]int),
		byObject:  make(map[ontology.Term][]int),
	}
	for i, t := range triples {
		m.bySubject[t.Subject] = append(m.bySubject[t.Subject], i)
		m.byPred[t.Predicate] = append(m.byPred[t.Predicate], i)
		m.byObject[t.Object] = append(m.byObject[t.Object], i)
	}
	return m
}

// Match implements Matcher
func (m *MemoryMatcher) Match(s, p, o ontology.Term) TripleIterator {
	candidates := m.candidates(s, p, o)
	return &memoryIterator{m: m, candidates: candidates, s: s, p: p, o: o, pos: -1}
}

// candidates picks the smallest index for the bound positions
func (m *MemoryMatcher) candidates(s, p, o ontology.Term) []int {
	var best []int
	found := false
	consider := func(ids []int) {
		if !found || len(ids) < len(best) {
			best, found = ids, true
		}
	}
	if s != nil {
		consider(m.bySubject[s])
	}
	if p != nil {
		iri, ok := p.(ontology.IRI)
		if !ok {
			return nil
		}
		consider(m.byPred[iri])
	}
	if o != nil {
		consider(m.byObject[o])
	}
	if !found {
		all := make([]int, len(m.triples))
		for i := range all {
			all[i] = i
		}
		return all
	}
	return best
}

type memoryIterator struct {
	m          *MemoryMatcher
	candidates []int
	s, p, o    ontology.Term
	pos        int
}

func (it *memoryIterator) Next() bool {
	for it.pos+1 < len(it.candidates) {
		it.pos++
		t := it.m.triples[it.candidates[it.pos]]
		if it.s != nil && t.Subject != it.s {
			continue
		}
		if it.p != nil && ontology.Term(t.Predicate) != it.p {
			continue
		}
		if it.o != nil && t.Object != it.o {
			continue
		}
		return true
	}
	it.pos = len(it.candidates)
	return false
}

func (it *memoryIterator) Triple() ontology.Triple {
	return it.m.triples[it.candidates[it.pos]]
}

func (it *memoryIterator) Close() error {
	it.pos = len(it.candidates)
	return nil
}
