package hierarchy

import (
	"github.com/wbrown/janus-ontology/ontology"
	"github.com/wbrown/janus-ontology/ontology/registry"
)

// Node is one occurrence of a class in the forest
type Node struct {
	ID        ontology.IRI
	Name      string
	Children  []*Node
	Instances []ontology.IRI
}

func newNode(id ontology.IRI) *Node {
	return &Node{ID: id, Name: registry.ShortName(id)}
}

// Forest is the class hierarchy rendered as a tree of paths
type Forest struct {
	Roots []*Node
}

// Walk visits nodes depth first in display order. Returning false from fn
// skips the node's children.
func (f *Forest) Walk(fn func(n *Node, depth int) bool) {
	if f == nil {
		return
	}
	type item struct {
		n     *Node
		depth int
	}
	stack := make([]item, 0, len(f.Roots))
	for i := len(f.Roots) - 1; i >= 0; i-- {
		stack = append(stack, item{f.Roots[i], 0})
	}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(it.n, it.depth) {
			continue
		}
		for i := len(it.n.Children) - 1; i >= 0; i-- {
			stack = append(stack, item{it.n.Children[i], it.depth + 1})
		}
	}
}

// Len returns the number of nodes, counting every occurrence
func (f *Forest) Len() int {
	n := 0
	f.Walk(func(*Node, int) bool { n++; return true })
	return n
}

// Find returns every occurrence of id
func (f *Forest) Find(id ontology.IRI) []*Node {
	var out []*Node
	f.Walk(func(n *Node, _ int) bool {
		if n.ID == id {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Clone returns a deep copy
func (f *Forest) Clone() *Forest {
	if f == nil {
		return nil
	}
	out := &Forest{Roots: make([]*Node, len(f.Roots))}
	type pair struct{ src, dst *Node }
	var stack []pair
	for i, r := range f.Roots {
		out.Roots[i] = r.shallow()
		stack = append(stack, pair{r, out.Roots[i]})
	}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for i, c := range p.src.Children {
			p.dst.Children[i] = c.shallow()
			stack = append(stack, pair{c, p.dst.Children[i]})
		}
	}
	return out
}

func (n *Node) shallow() *Node {
	c := &Node{ID: n.ID, Name: n.Name}
	if len(n.Children) > 0 {
		c.Children = make([]*Node, len(n.Children))
	}
	if len(n.Instances) > 0 {
		c.Instances = append([]ontology.IRI(nil), n.Instances...)
	}
	return c
}
