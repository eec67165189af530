package ontology

import (
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermEquality(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Term
		equal bool
	}{
		{"same iri", IRI("http://ex.org/A"), IRI("http://ex.org/A"), true},
		{"different iri", IRI("http://ex.org/A"), IRI("http://ex.org/B"), false},
		{"iri vs blank", IRI("x"), Blank("x"), false},
		{"plain literals", NewLiteral("dog"), NewLiteral("dog"), true},
		{"lang differs", NewLangLiteral("dog", "en"), NewLangLiteral("dog", "de"), false},
		{"lang case folded", NewLangLiteral("dog", "EN"), NewLangLiteral("dog", "en"), true},
		{"plain vs tagged", NewLiteral("dog"), NewLangLiteral("dog", "en"), false},
		{"xsd string is plain", NewTypedLiteral("dog", XSDString), NewLiteral("dog"), true},
		{"datatype differs", NewTypedLiteral("1", XSDNamespace+"int"), NewLiteral("1"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, tt.a == tt.b)
		})
	}
}

func TestTermString(t *testing.T) {
	assert.Equal(t, "http://ex.org/A", IRI("http://ex.org/A").String())
	assert.Equal(t, "_:b1", Blank("b1").String())
	assert.Equal(t, `"Dog"@en`, NewLangLiteral("Dog", "en").String())
	assert.Equal(t, `"3"^^<http://www.w3.org/2001/XMLSchema#int>`, NewTypedLiteral("3", XSDNamespace+"int").String())

	tr := NewTriple(IRI("http://ex.org/d"), RDFType, IRI("http://ex.org/Dog"))
	assert.Equal(t, "<http://ex.org/d> <"+string(RDFType)+"> <http://ex.org/Dog> .", tr.String())
}

func TestTripleValid(t *testing.T) {
	ok := NewTriple(Blank("b"), RDFSLabel, NewLiteral("x"))
	require.NoError(t, ok.Valid())

	bad := []Triple{
		{Subject: NewLiteral("x"), Predicate: RDFSLabel, Object: NewLiteral("y")},
		{Predicate: RDFSLabel, Object: NewLiteral("y")},
		{Subject: IRI("s"), Object: NewLiteral("y")},
		{Subject: IRI("s"), Predicate: RDFSLabel},
	}
	for i, tr := range bad {
		assert.Error(t, tr.Valid(), "case %d", i)
	}
}

func TestCompareTerms(t *testing.T) {
	terms := []Term{
		NewLangLiteral("b", "en"),
		IRI("http://ex.org/b"),
		Blank("z"),
		NewLiteral("b"),
		IRI("http://ex.org/a"),
	}
	sort.Slice(terms, func(i, j int) bool { return CompareTerms(terms[i], terms[j]) < 0 })
	want := []Term{
		Blank("z"),
		IRI("http://ex.org/a"),
		IRI("http://ex.org/b"),
		NewLiteral("b"),
		NewLangLiteral("b", "en"),
	}
	assert.Equal(t, want, terms)
	assert.Equal(t, -1, CompareTerms(nil, IRI("a")))
	assert.Equal(t, 0, CompareTerms(nil, nil))
}

func TestErrorTypes(t *testing.T) {
	inner := errors.New("unexpected EOF")
	var err error = &ParseError{Format: "rdfxml", Line: 3, Msg: "bad element", Err: inner}
	assert.Contains(t, err.Error(), "line 3")
	assert.ErrorIs(t, err, inner)

	err = fmt.Errorf("select: %w", &LookupError{Kind: "class", Name: "Dog"})
	assert.True(t, IsNotFound(err))
	assert.False(t, IsNotFound(inner))

	cyc := &CycleError{Node: "A", Path: []IRI{"A", "B", "A"}}
	assert.Equal(t, "subclass cycle through A: A -> B -> A", cyc.Error())

	ve := &ValidationError{Op: "add instance", Fields: []FieldError{{Field: "Label", Rule: "required"}}}
	assert.Equal(t, "add instance: missing or invalid Label", ve.Error())
}
