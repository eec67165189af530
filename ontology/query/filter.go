package query

import (
	"strconv"
	"strings"

	"github.com/wbrown/janus-ontology/ontology"
)

// Filter restricts the rows of a group.
// Accepts receives the current values of Symbols(), nil when unbound.
type Filter interface {
	Symbols() []Symbol
	Accepts(values []ontology.Term) bool
	String() string
}

// LangFilter keeps rows whose variable is a literal tagged with one of the
// allowed languages. Use "" to allow untagged literals. Rows where the
// variable is unbound or not a literal pass through unchanged.
type LangFilter struct {
	Var   Symbol
	Langs []string
}

// Lang creates a language filter on variable name
func Lang(name string, langs ...string) *LangFilter {
	lower := make([]string, len(langs))
	for i, l := range langs {
		lower[i] = strings.ToLower(l)
	}
	return &LangFilter{Var: V(name).Name, Langs: lower}
}

func (f *LangFilter) Symbols() []Symbol {
	return []Symbol{f.Var}
}

func (f *LangFilter) Accepts(values []ontology.Term) bool {
	if len(values) == 0 || values[0] == nil {
		return true
	}
	lit, ok := values[0].(ontology.Literal)
	if !ok {
		return true
	}
	for _, l := range f.Langs {
		if lit.Lang == l {
			return true
		}
	}
	return false
}

func (f *LangFilter) String() string {
	quoted := make([]string, len(f.Langs))
	for i, l := range f.Langs {
		quoted[i] = strconv.Quote(l)
	}
	return "lang(" + string(f.Var) + ") in (" + strings.Join(quoted, ", ") + ")"
}

// SameTerm keeps rows where two variables are bound to the same term
type SameTerm struct {
	Left, Right Symbol
}

func (f *SameTerm) Symbols() []Symbol {
	return []Symbol{f.Left, f.Right}
}

func (f *SameTerm) Accepts(values []ontology.Term) bool {
	return len(values) == 2 && values[0] != nil && values[0] == values[1]
}

func (f *SameTerm) String() string {
	return "sameTerm(" + string(f.Left) + ", " + string(f.Right) + ")"
}
