// Package ontology holds the fact model shared by every layer: terms, triples,
// the well-known RDF/RDFS/OWL vocabulary and the error taxonomy.
package ontology

import (
	"strconv"
	"strings"
)

// TermKind tags the concrete type of a Term.
// The byte values double as the ordering used by the storage key encoder.
type TermKind byte

const (
	KindBlank   TermKind = 'B'
	KindIRI     TermKind = 'I'
	KindLiteral TermKind = 'L'
)

// String returns a readable name for the kind
func (k TermKind) String() string {
	switch k {
	case KindBlank:
		return "blank"
	case KindIRI:
		return "iri"
	case KindLiteral:
		return "literal"
	default:
		return "unknown"
	}
}

// Term is any value that can occupy a triple position.
// All implementations are comparable, so two terms are equal iff a == b.
type Term interface {
	Kind() TermKind
	// Value returns the lexical form: the IRI string, the blank label or the literal text
	Value() string
	String() string
}

// IRI is an Identifier: an opaque absolute URI naming a class, property or instance
type IRI string

func (i IRI) Kind() TermKind { return KindIRI }
func (i IRI) Value() string  { return string(i) }
func (i IRI) String() string { return string(i) }

// Blank is an anonymous node, scoped to the document it was read from
type Blank string

func (b Blank) Kind() TermKind { return KindBlank }
func (b Blank) Value() string  { return string(b) }
func (b Blank) String() string { return "_:" + string(b) }

// Literal is a textual value with an optional language tag or datatype.
// Equality requires matching text, tag and datatype.
type Literal struct {
	Text     string
	Lang     string
	Datatype IRI
}

// NewLiteral creates a plain literal
func NewLiteral(text string) Literal {
	return Literal{Text: text}
}

// NewLangLiteral creates a language-tagged literal. Tags are case-insensitive
// in RDF, so they are stored lower-cased.
func NewLangLiteral(text, lang string) Literal {
	return Literal{Text: text, Lang: strings.ToLower(lang)}
}

// NewTypedLiteral creates a literal with a datatype IRI
func NewTypedLiteral(text string, datatype IRI) Literal {
	if datatype == XSDString {
		datatype = ""
	}
	return Literal{Text: text, Datatype: datatype}
}

func (l Literal) Kind() TermKind { return KindLiteral }
func (l Literal) Value() string  { return l.Text }

// String renders the literal in N-Triples style
func (l Literal) String() string {
	s := strconv.Quote(l.Text)
	switch {
	case l.Lang != "":
		return s + "@" + l.Lang
	case l.Datatype != "":
		return s + "^^<" + string(l.Datatype) + ">"
	}
	return s
}

// IsIRI reports whether t is a non-empty IRI
func IsIRI(t Term) bool {
	i, ok := t.(IRI)
	return ok && i != ""
}

// AsIRI returns t as an IRI when it is one
func AsIRI(t Term) (IRI, bool) {
	i, ok := t.(IRI)
	return i, ok && i != ""
}
