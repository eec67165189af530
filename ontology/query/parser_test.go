package query

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbrown/janus-ontology/ontology"
)

func TestParseBasicPattern(t *testing.T) {
	g, err := Parse(`?c a owl:Class . ?c rdfs:label "Dog"@EN`, nil)
	require.NoError(t, err)

	want := NewGroup().Where(
		T(V("c"), C(ontology.RDFType), C(ontology.OWLClass)),
		T(V("c"), C(ontology.RDFSLabel), C(ontology.NewLangLiteral("Dog", "en"))),
	)
	if diff := cmp.Diff(want, g); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseOptionalUnionFilter(t *testing.T) {
	text := `
	# object properties with label, domain and range
	?p rdf:type owl:ObjectProperty .
	OPTIONAL { ?p rdfs:label ?label FILTER (lang(?label) = 'en' || lang(?label) = '') }
	{ ?p rdfs:domain ?c } UNION { ?p rdfs:range ?c }
	`
	g, err := Parse(text, nil)
	require.NoError(t, err)
	require.Len(t, g.Elements, 3)

	opt, ok := g.Elements[1].(*Optional)
	require.True(t, ok, "second element should be optional, got %T", g.Elements[1])
	require.Len(t, opt.Group.Filters, 1)
	lf, ok := opt.Group.Filters[0].(*LangFilter)
	require.True(t, ok)
	assert.Equal(t, Symbol("?label"), lf.Var)
	assert.Equal(t, []string{"en", ""}, lf.Langs)

	u, ok := g.Elements[2].(*Union)
	require.True(t, ok)
	assert.Len(t, u.Alternatives, 2)

	assert.Equal(t, []Symbol{"?p", "?label", "?c"}, g.Columns())
}

func TestParseFilterInList(t *testing.T) {
	g, err := Parse(`?s rdfs:label ?l FILTER lang(?l) IN ("en", "", de)`, nil)
	require.NoError(t, err)
	require.Len(t, g.Filters, 1)
	assert.Equal(t, []string{"en", "", "de"}, g.Filters[0].(*LangFilter).Langs)
}

func TestParseTerms(t *testing.T) {
	g, err := Parse(`_:b1 <http://ex.org/p> "3"^^xsd:int . ?s ex:q 42 . ?s _ "x"^^<http://ex.org/dt>`,
		map[string]string{"ex": "http://ex.org/"})
	require.NoError(t, err)
	require.Len(t, g.Elements, 3)

	first := g.Elements[0].(*Pattern)
	assert.Equal(t, C(ontology.Blank("b1")), first.Subject)
	assert.Equal(t, C(ontology.NewTypedLiteral("3", ontology.XSDNamespace+"int")), first.Object)

	second := g.Elements[1].(*Pattern)
	assert.Equal(t, C(ontology.IRI("http://ex.org/q")), second.Predicate)
	assert.Equal(t, C(ontology.NewTypedLiteral("42", ontology.XSDNamespace+"integer")), second.Object)

	third := g.Elements[2].(*Pattern)
	assert.Equal(t, Any(), third.Predicate)
	assert.Equal(t, C(ontology.NewTypedLiteral("x", "http://ex.org/dt")), third.Object)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"unknown prefix", "?s foo:bar ?o"},
		{"literal predicate", `?s "p" ?o`},
		{"literal subject", `"s" rdf:type ?o`},
		{"unterminated group", "OPTIONAL { ?s ?p ?o"},
		{"unterminated string", `?s ?p "abc`},
		{"unterminated iri", "?s ?p <http://ex.org"},
		{"filter on unknown variable", "?s ?p ?o FILTER lang(?x) in ('en')"},
		{"unsupported filter", "?s ?p ?o FILTER regex(?o, 'x')"},
		{"incomplete pattern", "?s ?p"},
		{"stray pipe", "?s ?p ?o FILTER (lang(?o) = 'en' | lang(?o) = '')"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input, nil)
			require.Error(t, err)
			var qe *ontology.QueryError
			assert.True(t, errors.As(err, &qe), "expected QueryError, got %T: %v", err, err)
		})
	}
}

func TestValidate(t *testing.T) {
	ok := NewGroup().Where(T(V("s"), C(ontology.RDFType), V("c"))).
		Filter(Lang("c", "en"))
	assert.NoError(t, Validate(ok))

	bad := []*Group{
		nil,
		NewGroup().Where(T(V("s"), C(ontology.Blank("b")), V("o"))),
		NewGroup().Where(T(V("s"), nil, V("o"))),
		NewGroup().Where(T(Variable{Name: "s"}, C(ontology.RDFType), V("o"))),
		NewGroup().Union(NewGroup().Where(T(V("s"), V("p"), V("o")))),
	}
	for i, g := range bad {
		var qe *ontology.QueryError
		assert.ErrorAs(t, Validate(g), &qe, "case %d", i)
	}
}

func TestLangFilter(t *testing.T) {
	f := Lang("label", "EN", "")
	assert.True(t, f.Accepts([]ontology.Term{ontology.NewLangLiteral("Dog", "en")}))
	assert.True(t, f.Accepts([]ontology.Term{ontology.NewLiteral("Dog")}))
	assert.False(t, f.Accepts([]ontology.Term{ontology.NewLangLiteral("Hund", "de")}))
	assert.True(t, f.Accepts([]ontology.Term{nil}), "unbound passes")
	assert.True(t, f.Accepts([]ontology.Term{ontology.IRI("http://ex.org/x")}), "non-literal passes")
}

func TestGroupString(t *testing.T) {
	g := NewGroup().Where(T(V("s"), C(ontology.RDFType), Any())).
		Optional(NewGroup().Where(T(V("s"), C(ontology.RDFSLabel), V("l"))))
	assert.Equal(t,
		"{ ?s <"+string(ontology.RDFType)+"> _ . OPTIONAL { ?s <"+string(ontology.RDFSLabel)+"> ?l . } }",
		g.String())
}
