package executor

import (
	"sync"

	"github.com/wbrown/janus-ontology/ontology"
	"github.com/wbrown/janus-ontology/ontology/query"
)

// Executor evaluates query groups against a Matcher
type Executor struct {
	matcher Matcher
}

// NewExecutor creates an executor over m
func NewExecutor(m Matcher) *Executor {
	return &Executor{matcher: m}
}

// Execute validates g and returns a lazy Result. Nothing is read from the
// matcher until the result is iterated.
func (e *Executor) Execute(g *query.Group) (*Result, error) {
	if err := query.Validate(g); err != nil {
		return nil, err
	}
	columns := g.Columns()
	index := make(map[query.Symbol]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}
	width := len(columns)
	seed := func() Iterator { return newSingleIterator(make(Tuple, width)) }
	return &Result{
		columns: columns,
		index:   index,
		build:   e.group(g, seed, index),
	}, nil
}

// group chains the elements of g onto input. Elements are joined in order;
// filters run last over the group's rows.
func (e *Executor) group(g *query.Group, input stage, index map[query.Symbol]int) stage {
	current := input
	for _, el := range g.Elements {
		prev := current
		switch el := el.(type) {
		case *query.Pattern:
			current = func() Iterator {
				return newPatternIterator(prev(), e.matcher, el, index)
			}
		case *query.Group:
			current = e.group(el, prev, index)
		case *query.Optional:
			inner := el.Group
			current = func() Iterator {
				return &optionalIterator{
					input: prev(),
					inner: func(seed Tuple) Iterator {
						return e.group(inner, func() Iterator { return newSingleIterator(seed) }, index)()
					},
				}
			}
		case *query.Union:
			alts := make([]stage, len(el.Alternatives))
			for i, alt := range el.Alternatives {
				alts[i] = e.group(alt, prev, index)
			}
			current = func() Iterator {
				return &concatIterator{stages: alts}
			}
		}
	}
	if len(g.Filters) > 0 {
		prev := current
		filters := g.Filters
		current = func() Iterator {
			return newFilterIterator(prev(), filters, index)
		}
	}
	return current
}

// Result is a lazily evaluated, restartable query result.
// Close releases the underlying snapshot; iterators must be closed first.
type Result struct {
	columns []query.Symbol
	index   map[query.Symbol]int
	build   stage

	closeOnce sync.Once
	release   func()
}

// Columns returns the result's variables in order of first appearance
func (r *Result) Columns() []query.Symbol {
	return r.columns
}

// ColumnIndex returns the tuple position of a variable
func (r *Result) ColumnIndex(sym query.Symbol) (int, bool) {
	i, ok := r.index[sym]
	return i, ok
}

// Iterator starts a new pass over the rows
func (r *Result) Iterator() Iterator {
	return r.build()
}

// OnClose registers fn to run when the result is closed
func (r *Result) OnClose(fn func()) {
	prev := r.release
	r.release = func() {
		if prev != nil {
			prev()
		}
		fn()
	}
}

// Close releases resources held by the result. It is safe to call twice.
func (r *Result) Close() {
	r.closeOnce.Do(func() {
		if r.release != nil {
			r.release()
		}
	})
}

// Each calls fn for every row until fn returns false
func (r *Result) Each(fn func(Binding) bool) error {
	it := r.Iterator()
	for it.Next() {
		if !fn(Binding{result: r, tuple: it.Tuple()}) {
			break
		}
	}
	return it.Close()
}

// Binding gives named access to one row
type Binding struct {
	result *Result
	tuple  Tuple
}

// Term returns the value bound to the named variable, or nil when unbound.
// The leading '?' is optional.
func (b Binding) Term(name string) ontology.Term {
	i, ok := b.result.index[query.V(name).Name]
	if !ok {
		return nil
	}
	return b.tuple[i]
}

// Tuple returns the raw row
func (b Binding) Tuple() Tuple {
	return b.tuple
}
