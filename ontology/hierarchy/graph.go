// Package hierarchy derives the class forest, the object property catalog
// and class membership from the fact store.
package hierarchy

import (
	"github.com/wbrown/janus-ontology/ontology"
)

// Edge is one subclass fact: Child rdfs:subClassOf Parent
type Edge struct {
	Child  ontology.IRI
	Parent ontology.IRI
}

// Graph is the subclass adjacency keyed by full identifier. Nodes, children
// and parents keep the order in which edges were discovered.
type Graph struct {
	nodes    []ontology.IRI
	seen     map[ontology.IRI]bool
	children map[ontology.IRI][]ontology.IRI
	parents  map[ontology.IRI][]ontology.IRI
}

// NewGraph builds the adjacency from edges. Duplicate edges are ignored.
func NewGraph(edges []Edge) *Graph {
	g := &Graph{
		seen:     make(map[ontology.IRI]bool),
		children: make(map[ontology.IRI][]ontology.IRI),
		parents:  make(map[ontology.IRI][]ontology.IRI),
	}
	dup := make(map[Edge]bool, len(edges))
	for _, e := range edges {
		if dup[e] {
			continue
		}
		dup[e] = true
		g.add(e.Parent)
		g.add(e.Child)
		g.children[e.Parent] = append(g.children[e.Parent], e.Child)
		g.parents[e.Child] = append(g.parents[e.Child], e.Parent)
	}
	return g
}

func (g *Graph) add(id ontology.IRI) {
	if !g.seen[id] {
		g.seen[id] = true
		g.nodes = append(g.nodes, id)
	}
}

// Nodes returns every class that takes part in an edge
func (g *Graph) Nodes() []ontology.IRI { return g.nodes }

// Children returns the direct subclasses of id
func (g *Graph) Children(id ontology.IRI) []ontology.IRI { return g.children[id] }

// Parents returns the direct superclasses of id
func (g *Graph) Parents(id ontology.IRI) []ontology.IRI { return g.parents[id] }

// Contains reports whether id takes part in an edge
func (g *Graph) Contains(id ontology.IRI) bool { return g.seen[id] }

// Roots returns the classes that have children but no parent
func (g *Graph) Roots() []ontology.IRI {
	var roots []ontology.IRI
	for _, id := range g.nodes {
		if len(g.parents[id]) == 0 && len(g.children[id]) > 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// Ancestors returns every transitive superclass of id, nearest first
func (g *Graph) Ancestors(id ontology.IRI) []ontology.IRI {
	var out []ontology.IRI
	visited := map[ontology.IRI]bool{id: true}
	queue := append([]ontology.IRI(nil), g.parents[id]...)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if visited[next] {
			continue
		}
		visited[next] = true
		out = append(out, next)
		queue = append(queue, g.parents[next]...)
	}
	return out
}

type frame struct {
	id   ontology.IRI
	next int
}

// DetectCycle searches the whole graph for a subclass cycle. It returns a
// *ontology.CycleError for the first one found, nil otherwise. A class that
// is its own subclass is a cycle.
func (g *Graph) DetectCycle() error {
	const (
		unvisited = iota
		onPath
		done
	)
	state := make(map[ontology.IRI]int, len(g.nodes))

	for _, start := range g.nodes {
		if state[start] != unvisited {
			continue
		}
		stack := []frame{{id: start}}
		state[start] = onPath

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			kids := g.children[top.id]
			if top.next >= len(kids) {
				state[top.id] = done
				stack = stack[:len(stack)-1]
				continue
			}
			child := kids[top.next]
			top.next++

			switch state[child] {
			case onPath:
				return cycleFrom(stack, child)
			case unvisited:
				state[child] = onPath
				stack = append(stack, frame{id: child})
			}
		}
	}
	return nil
}

// cycleFrom cuts the path from the first occurrence of node to the top of
// the stack and closes it with node
func cycleFrom(stack []frame, node ontology.IRI) error {
	i := len(stack) - 1
	for i > 0 && stack[i].id != node {
		i--
	}
	path := make([]ontology.IRI, 0, len(stack)-i+1)
	for _, f := range stack[i:] {
		path = append(path, f.id)
	}
	path = append(path, node)
	return &ontology.CycleError{Node: node, Path: path}
}

// Forest emits the tree of paths below every root. A class with several
// parents appears under each of them. The graph must be acyclic.
func (g *Graph) Forest() *Forest {
	f := &Forest{}
	for _, root := range g.Roots() {
		rn := newNode(root)
		f.Roots = append(f.Roots, rn)

		stack := []*Node{rn}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, c := range g.children[n.ID] {
				cn := newNode(c)
				n.Children = append(n.Children, cn)
				stack = append(stack, cn)
			}
		}
	}
	return f
}
