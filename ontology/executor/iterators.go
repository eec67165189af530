package executor

import (
	"github.com/wbrown/janus-ontology/ontology"
	"github.com/wbrown/janus-ontology/ontology/query"
)

// stage builds a fresh iterator each time it is called
type stage func() Iterator

// singleIterator yields exactly one tuple
type singleIterator struct {
	tuple Tuple
	done  bool
}

func newSingleIterator(t Tuple) *singleIterator {
	return &singleIterator{tuple: t}
}

func (it *singleIterator) Next() bool {
	if it.done {
		return false
	}
	it.done = true
	return true
}

func (it *singleIterator) Tuple() Tuple { return it.tuple }
func (it *singleIterator) Close() error { it.done = true; return nil }

// patternIterator joins each input row with the triples matching a pattern
type patternIterator struct {
	input   Iterator
	matcher Matcher
	pattern *query.Pattern
	index   map[query.Symbol]int

	current Tuple
	inner   TripleIterator
	out     Tuple
	err     error
}

func newPatternIterator(input Iterator, m Matcher, p *query.Pattern, index map[query.Symbol]int) *patternIterator {
	return &patternIterator{input: input, matcher: m, pattern: p, index: index}
}

func (it *patternIterator) Next() bool {
	for {
		if it.inner != nil {
			for it.inner.Next() {
				if row, ok := it.extend(it.inner.Triple()); ok {
					it.out = row
					return true
				}
			}
			it.closeInner()
		}
		if !it.input.Next() {
			return false
		}
		it.current = it.input.Tuple()
		s, p, o := it.bind()
		it.inner = it.matcher.Match(s, p, o)
	}
}

func (it *patternIterator) Tuple() Tuple { return it.out }

func (it *patternIterator) Close() error {
	it.closeInner()
	if err := it.input.Close(); err != nil && it.err == nil {
		it.err = err
	}
	return it.err
}

func (it *patternIterator) closeInner() {
	if it.inner == nil {
		return
	}
	if err := it.inner.Close(); err != nil && it.err == nil {
		it.err = err
	}
	it.inner = nil
}

// bind resolves each pattern position against the current row
func (it *patternIterator) bind() (s, p, o ontology.Term) {
	var terms [3]ontology.Term
	for i, e := range it.pattern.Elements() {
		switch el := e.(type) {
		case query.Constant:
			terms[i] = el.Term
		case query.Variable:
			terms[i] = it.current[it.index[el.Name]]
		}
	}
	return terms[0], terms[1], terms[2]
}

// extend copies the current row and binds the pattern's variables to t.
// A variable repeated within the pattern must bind the same term everywhere.
func (it *patternIterator) extend(t ontology.Triple) (Tuple, bool) {
	row := make(Tuple, len(it.current))
	copy(row, it.current)
	for i, e := range it.pattern.Elements() {
		v, ok := e.(query.Variable)
		if !ok {
			continue
		}
		idx := it.index[v.Name]
		val := t.At(i)
		if row[idx] != nil {
			if row[idx] != val {
				return nil, false
			}
			continue
		}
		row[idx] = val
	}
	return row, true
}

// optionalIterator is a left outer join: for each input row it yields the
// rows of the inner group, or the input row unchanged when there are none
type optionalIterator struct {
	input Iterator
	inner func(seed Tuple) Iterator

	current Tuple
	sub     Iterator
	matched bool
	out     Tuple
	err     error
}

func (it *optionalIterator) Next() bool {
	for {
		if it.sub != nil {
			if it.sub.Next() {
				it.matched = true
				it.out = it.sub.Tuple()
				return true
			}
			it.closeSub()
			if !it.matched {
				it.out = it.current
				return true
			}
		}
		if !it.input.Next() {
			return false
		}
		it.current = it.input.Tuple()
		it.sub = it.inner(it.current)
		it.matched = false
	}
}

func (it *optionalIterator) Tuple() Tuple { return it.out }

func (it *optionalIterator) Close() error {
	it.closeSub()
	if err := it.input.Close(); err != nil && it.err == nil {
		it.err = err
	}
	return it.err
}

func (it *optionalIterator) closeSub() {
	if it.sub == nil {
		return
	}
	if err := it.sub.Close(); err != nil && it.err == nil {
		it.err = err
	}
	it.sub = nil
}

// concatIterator runs each stage to exhaustion, in order
type concatIterator struct {
	stages  []stage
	next    int
	current Iterator
	err     error
}

func (it *concatIterator) Next() bool {
	for {
		if it.current != nil {
			if it.current.Next() {
				return true
			}
			it.closeCurrent()
		}
		if it.next >= len(it.stages) {
			return false
		}
		it.current = it.stages[it.next]()
		it.next++
	}
}

func (it *concatIterator) Tuple() Tuple { return it.current.Tuple() }

func (it *concatIterator) Close() error {
	it.closeCurrent()
	it.next = len(it.stages)
	return it.err
}

func (it *concatIterator) closeCurrent() {
	if it.current == nil {
		return
	}
	if err := it.current.Close(); err != nil && it.err == nil {
		it.err = err
	}
	it.current = nil
}

// filterIterator drops rows rejected by any filter
type filterIterator struct {
	input   Iterator
	filters []query.Filter
	columns [][]int
}

func newFilterIterator(input Iterator, filters []query.Filter, index map[query.Symbol]int) *filterIterator {
	cols := make([][]int, len(filters))
	for i, f := range filters {
		for _, s := range f.Symbols() {
			cols[i] = append(cols[i], index[s])
		}
	}
	return &filterIterator{input: input, filters: filters, columns: cols}
}

func (it *filterIterator) Next() bool {
	for it.input.Next() {
		if it.accepts(it.input.Tuple()) {
			return true
		}
	}
	return false
}

func (it *filterIterator) accepts(row Tuple) bool {
	values := make([]ontology.Term, 0, 2)
	for i, f := range it.filters {
		values = values[:0]
		for _, c := range it.columns[i] {
			values = append(values, row[c])
		}
		if !f.Accepts(values) {
			return false
		}
	}
	return true
}

func (it *filterIterator) Tuple() Tuple { return it.input.Tuple() }
func (it *filterIterator) Close() error { return it.input.Close() }
