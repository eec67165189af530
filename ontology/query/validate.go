package query

import (
	"fmt"

	"github.com/wbrown/janus-ontology/ontology"
)

// Validate checks the query shape. Errors are *ontology.QueryError.
func Validate(g *Group) error {
	if g == nil {
		return queryErr("empty query")
	}
	cols := make(map[Symbol]bool)
	for _, c := range g.Columns() {
		cols[c] = true
	}
	return validateGroup(g, cols)
}

func validateGroup(g *Group, cols map[Symbol]bool) error {
	if g == nil {
		return queryErr("empty group")
	}
	for _, e := range g.Elements {
		switch el := e.(type) {
		case *Pattern:
			if err := validatePattern(el); err != nil {
				return err
			}
		case *Optional:
			if err := validateGroup(el.Group, cols); err != nil {
				return err
			}
		case *Union:
			if len(el.Alternatives) < 2 {
				return queryErr("union needs at least two alternatives")
			}
			for _, alt := range el.Alternatives {
				if err := validateGroup(alt, cols); err != nil {
					return err
				}
			}
		case *Group:
			if err := validateGroup(el, cols); err != nil {
				return err
			}
		case nil:
			return queryErr("nil element in group")
		default:
			return queryErr(fmt.Sprintf("unsupported element %T", e))
		}
	}
	for _, f := range g.Filters {
		if f == nil {
			return queryErr("nil filter")
		}
		for _, s := range f.Symbols() {
			if !cols[s] {
				return queryErr(fmt.Sprintf("filter %s references unknown variable %s", f, s))
			}
		}
	}
	return nil
}

func validatePattern(p *Pattern) error {
	for i, e := range p.Elements() {
		switch el := e.(type) {
		case nil:
			return queryErr(fmt.Sprintf("pattern %s has an empty position", p))
		case Variable:
			if !el.Name.IsVariable() {
				return queryErr(fmt.Sprintf("invalid variable name %q", el.Name))
			}
		case Constant:
			switch t := el.Term.(type) {
			case nil:
				return queryErr(fmt.Sprintf("pattern %s has a nil constant", p))
			case ontology.Literal:
				if i != 2 {
					return queryErr(fmt.Sprintf("literal %s can only appear as an object", t))
				}
			case ontology.Blank:
				if i == 1 {
					return queryErr(fmt.Sprintf("blank node %s cannot be a predicate", t))
				}
			case ontology.IRI:
				if t == "" {
					return queryErr("empty IRI in pattern")
				}
			}
		}
	}
	return nil
}

func queryErr(msg string) error {
	return &ontology.QueryError{Msg: msg}
}
