// Package query describes pattern queries over the fact store: triple
// patterns, optional blocks, unions and filters, grouped into a tree.
package query

import (
	"fmt"
	"strings"

	"github.com/wbrown/janus-ontology/ontology"
)

// Symbol represents a variable in a query (e.g., ?x, ?label)
type Symbol string

// IsVariable returns true if this is a variable symbol (starts with ?)
func (s Symbol) IsVariable() bool {
	return len(s) > 1 && s[0] == '?'
}

func (s Symbol) String() string {
	return string(s)
}

// PatternElement is one position of a triple pattern:
// a concrete term, a variable or a blank
type PatternElement interface {
	IsVariable() bool
	IsBlank() bool
	String() string
}

// Variable represents a query variable (e.g., ?x)
type Variable struct {
	Name Symbol
}

func (v Variable) IsVariable() bool { return true }
func (v Variable) IsBlank() bool    { return false }
func (v Variable) String() string   { return v.Name.String() }

// Blank represents a wildcard (_) that matches anything and binds nothing
type Blank struct{}

func (b Blank) IsVariable() bool { return false }
func (b Blank) IsBlank() bool    { return true }
func (b Blank) String() string   { return "_" }

// Constant represents a concrete term in a pattern
type Constant struct {
	Term ontology.Term
}

func (c Constant) IsVariable() bool { return false }
func (c Constant) IsBlank() bool    { return false }
func (c Constant) String() string {
	switch t := c.Term.(type) {
	case ontology.IRI:
		return "<" + string(t) + ">"
	case nil:
		return "nil"
	default:
		return t.String()
	}
}

// V returns a variable element. The leading '?' is optional.
func V(name string) Variable {
	if !strings.HasPrefix(name, "?") {
		name = "?" + name
	}
	return Variable{Name: Symbol(name)}
}

// C returns a constant element
func C(t ontology.Term) Constant {
	return Constant{Term: t}
}

// Any returns a wildcard element
func Any() Blank {
	return Blank{}
}

// Element is a member of a group: a pattern, an optional block, a union or
// a nested group
type Element interface {
	String() string
	element()
}

// Pattern is a single triple pattern
type Pattern struct {
	Subject   PatternElement
	Predicate PatternElement
	Object    PatternElement
}

func (*Pattern) element() {}

// T builds a triple pattern
func T(s, p, o PatternElement) *Pattern {
	return &Pattern{Subject: s, Predicate: p, Object: o}
}

// Elements returns subject, predicate and object in order
func (p *Pattern) Elements() [3]PatternElement {
	return [3]PatternElement{p.Subject, p.Predicate, p.Object}
}

func (p *Pattern) String() string {
	parts := make([]string, 0, 3)
	for _, e := range p.Elements() {
		if e == nil {
			parts = append(parts, "nil")
			continue
		}
		parts = append(parts, e.String())
	}
	return strings.Join(parts, " ") + " ."
}

// Optional is a left outer join: rows of the enclosing group are kept even
// when the inner group has no match
type Optional struct {
	Group *Group
}

func (*Optional) element() {}

func (o *Optional) String() string {
	return "OPTIONAL " + o.Group.String()
}

// Union concatenates the rows of each alternative, in order
type Union struct {
	Alternatives []*Group
}

func (*Union) element() {}

func (u *Union) String() string {
	parts := make([]string, len(u.Alternatives))
	for i, g := range u.Alternatives {
		parts[i] = g.String()
	}
	return strings.Join(parts, " UNION ")
}

// Group is an ordered conjunction of elements. Filters apply to the rows
// the group produces.
type Group struct {
	Elements []Element
	Filters  []Filter
}

func (*Group) element() {}

// NewGroup creates a group from elements
func NewGroup(elements ...Element) *Group {
	return &Group{Elements: elements}
}

// Where appends triple patterns
func (g *Group) Where(patterns ...*Pattern) *Group {
	for _, p := range patterns {
		g.Elements = append(g.Elements, p)
	}
	return g
}

// Optional appends an optional block
func (g *Group) Optional(inner *Group) *Group {
	g.Elements = append(g.Elements, &Optional{Group: inner})
	return g
}

// Union appends a union of alternatives
func (g *Group) Union(alternatives ...*Group) *Group {
	g.Elements = append(g.Elements, &Union{Alternatives: alternatives})
	return g
}

// Filter appends filters
func (g *Group) Filter(filters ...Filter) *Group {
	g.Filters = append(g.Filters, filters...)
	return g
}

func (g *Group) String() string {
	if g == nil {
		return "{}"
	}
	var b strings.Builder
	b.WriteString("{ ")
	for _, e := range g.Elements {
		b.WriteString(e.String())
		b.WriteByte(' ')
	}
	for _, f := range g.Filters {
		fmt.Fprintf(&b, "FILTER %s ", f)
	}
	b.WriteString("}")
	return b.String()
}

// Columns returns every variable in the query in order of first appearance
func (g *Group) Columns() []Symbol {
	var cols []Symbol
	seen := make(map[Symbol]bool)
	var walk func(*Group)
	walk = func(grp *Group) {
		if grp == nil {
			return
		}
		for _, e := range grp.Elements {
			switch el := e.(type) {
			case *Pattern:
				for _, pe := range el.Elements() {
					if v, ok := pe.(Variable); ok && !seen[v.Name] {
						seen[v.Name] = true
						cols = append(cols, v.Name)
					}
				}
			case *Optional:
				walk(el.Group)
			case *Union:
				for _, alt := range el.Alternatives {
					walk(alt)
				}
			case *Group:
				walk(el)
			}
		}
	}
	walk(g)
	return cols
}
