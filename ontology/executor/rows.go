package executor

import (
	"sort"

	"github.com/wbrown/janus-ontology/ontology"
	"github.com/wbrown/janus-ontology/ontology/query"
)

// Rows is a materialized result
type Rows struct {
	Columns []query.Symbol
	Tuples  []Tuple
}

// Collect reads every row of r. Tuples are copied.
func Collect(r *Result) (*Rows, error) {
	rows := &Rows{Columns: r.Columns()}
	it := r.Iterator()
	for it.Next() {
		t := it.Tuple()
		c := make(Tuple, len(t))
		copy(c, t)
		rows.Tuples = append(rows.Tuples, c)
	}
	if err := it.Close(); err != nil {
		return nil, err
	}
	return rows, nil
}

// Len returns the number of rows
func (r *Rows) Len() int {
	return len(r.Tuples)
}

// Sort orders rows column by column
func (r *Rows) Sort() {
	sort.SliceStable(r.Tuples, func(i, j int) bool {
		a, b := r.Tuples[i], r.Tuples[j]
		for k := range a {
			if c := ontology.CompareTerms(a[k], b[k]); c != 0 {
				return c < 0
			}
		}
		return false
	})
}
