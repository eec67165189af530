package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbrown/janus-ontology/ontology"
	"github.com/wbrown/janus-ontology/ontology/query"
)

const ex = "http://ex.org/"

func iri(local string) ontology.IRI { return ontology.IRI(ex + local) }

func zooFacts() []ontology.Triple {
	return []ontology.Triple{
		{Subject: iri("Dog"), Predicate: ontology.RDFType, Object: ontology.OWLClass},
		{Subject: iri("Dog"), Predicate: ontology.RDFSLabel, Object: ontology.NewLangLiteral("Dog", "en")},
		{Subject: iri("Dog"), Predicate: ontology.RDFSLabel, Object: ontology.NewLangLiteral("Hund", "de")},
		{Subject: iri("Cat"), Predicate: ontology.RDFType, Object: ontology.OWLClass},
		{Subject: iri("Cat"), Predicate: ontology.RDFSLabel, Object: ontology.NewLiteral("Cat")},
		{Subject: iri("Fish"), Predicate: ontology.RDFType, Object: ontology.OWLClass},
		{Subject: iri("owns"), Predicate: ontology.RDFType, Object: ontology.OWLObjectProperty},
		{Subject: iri("owns"), Predicate: ontology.RDFSDomain, Object: iri("Person")},
		{Subject: iri("owns"), Predicate: ontology.RDFSRange, Object: iri("Dog")},
		{Subject: iri("feeds"), Predicate: ontology.RDFType, Object: ontology.OWLObjectProperty},
		{Subject: iri("feeds"), Predicate: ontology.RDFSDomain, Object: iri("Dog")},
	}
}

func run(t *testing.T, g *query.Group) *Rows {
	t.Helper()
	res, err := NewExecutor(NewMemoryMatcher(zooFacts())).Execute(g)
	require.NoError(t, err)
	defer res.Close()
	rows, err := Collect(res)
	require.NoError(t, err)
	return rows
}

func TestSinglePattern(t *testing.T) {
	rows := run(t, query.NewGroup().Where(
		query.T(query.V("c"), query.C(ontology.RDFType), query.C(ontology.OWLClass)),
	))
	assert.Equal(t, []query.Symbol{"?c"}, rows.Columns)
	assert.Equal(t, []Tuple{{iri("Dog")}, {iri("Cat")}, {iri("Fish")}}, rows.Tuples)
}

func TestJoin(t *testing.T) {
	rows := run(t, query.NewGroup().Where(
		query.T(query.V("p"), query.C(ontology.RDFType), query.C(ontology.OWLObjectProperty)),
		query.T(query.V("p"), query.C(ontology.RDFSRange), query.V("r")),
	))
	assert.Equal(t, []Tuple{{iri("owns"), iri("Dog")}}, rows.Tuples)
}

func TestOptionalKeepsUnmatchedRows(t *testing.T) {
	g := query.NewGroup().
		Where(query.T(query.V("c"), query.C(ontology.RDFType), query.C(ontology.OWLClass))).
		Optional(query.NewGroup().
			Where(query.T(query.V("c"), query.C(ontology.RDFSLabel), query.V("label"))).
			Filter(query.Lang("label", "en", "")))
	rows := run(t, g)
	want := []Tuple{
		{iri("Dog"), ontology.NewLangLiteral("Dog", "en")},
		{iri("Cat"), ontology.NewLiteral("Cat")},
		{iri("Fish"), nil},
	}
	assert.Equal(t, want, rows.Tuples)
}

func TestFilterOutsideOptional(t *testing.T) {
	// the German label is dropped but the unbound row for Fish survives
	g := query.NewGroup().
		Where(query.T(query.V("c"), query.C(ontology.RDFType), query.C(ontology.OWLClass))).
		Optional(query.NewGroup().Where(query.T(query.V("c"), query.C(ontology.RDFSLabel), query.V("label")))).
		Filter(query.Lang("label", "en", ""))
	rows := run(t, g)
	assert.Len(t, rows.Tuples, 3)
	for _, row := range rows.Tuples {
		if lit, ok := row[1].(ontology.Literal); ok {
			assert.NotEqual(t, "de", lit.Lang)
		}
	}
}

func TestUnionConcatenatesInOrder(t *testing.T) {
	g := query.NewGroup().Union(
		query.NewGroup().Where(query.T(query.V("p"), query.C(ontology.RDFSDomain), query.C(iri("Dog")))),
		query.NewGroup().Where(query.T(query.V("p"), query.C(ontology.RDFSRange), query.C(iri("Dog")))),
	)
	rows := run(t, g)
	assert.Equal(t, []Tuple{{iri("feeds")}, {iri("owns")}}, rows.Tuples)
}

func TestRepeatedVariable(t *testing.T) {
	facts := []ontology.Triple{
		{Subject: iri("A"), Predicate: ontology.RDFSSubClassOf, Object: iri("A")},
		{Subject: iri("A"), Predicate: ontology.RDFSSubClassOf, Object: iri("B")},
	}
	res, err := NewExecutor(NewMemoryMatcher(facts)).Execute(query.NewGroup().Where(
		query.T(query.V("x"), query.C(ontology.RDFSSubClassOf), query.V("x")),
	))
	require.NoError(t, err)
	rows, err := Collect(res)
	require.NoError(t, err)
	assert.Equal(t, []Tuple{{iri("A")}}, rows.Tuples)
}

func TestWildcardBindsNothing(t *testing.T) {
	rows := run(t, query.NewGroup().Where(
		query.T(query.V("s"), query.Any(), query.C(iri("Dog"))),
	))
	assert.Equal(t, []query.Symbol{"?s"}, rows.Columns)
	assert.Len(t, rows.Tuples, 2)
}

func TestResultIsRestartable(t *testing.T) {
	res, err := NewExecutor(NewMemoryMatcher(zooFacts())).Execute(query.NewGroup().Where(
		query.T(query.V("s"), query.V("p"), query.V("o")),
	))
	require.NoError(t, err)

	count := func() int {
		n := 0
		it := res.Iterator()
		for it.Next() {
			n++
		}
		require.NoError(t, it.Close())
		return n
	}
	assert.Equal(t, len(zooFacts()), count())
	assert.Equal(t, len(zooFacts()), count())

	released := 0
	res.OnClose(func() { released++ })
	res.Close()
	res.Close()
	assert.Equal(t, 1, released)
}

func TestEachAndBinding(t *testing.T) {
	res, err := NewExecutor(NewMemoryMatcher(zooFacts())).Execute(query.NewGroup().Where(
		query.T(query.V("p"), query.C(ontology.RDFSDomain), query.V("d")),
	))
	require.NoError(t, err)

	var domains []ontology.Term
	err = res.Each(func(b Binding) bool {
		domains = append(domains, b.Term("d"))
		return len(domains) < 1
	})
	require.NoError(t, err)
	assert.Equal(t, []ontology.Term{iri("Person")}, domains)
}

func TestExecuteRejectsInvalidQuery(t *testing.T) {
	_, err := NewExecutor(NewMemoryMatcher(nil)).Execute(query.NewGroup().Where(
		query.T(query.V("s"), query.C(ontology.NewLiteral("p")), query.V("o")),
	))
	var qe *ontology.QueryError
	assert.ErrorAs(t, err, &qe)
}

func TestFormatRows(t *testing.T) {
	rows := run(t, query.NewGroup().Where(
		query.T(query.V("p"), query.C(ontology.RDFSRange), query.V("r")),
	))
	tf := NewTableFormatter()
	tf.Shorten = func(i ontology.IRI) string { return string(i)[len(ex):] }
	out := tf.FormatRows(rows)
	assert.Contains(t, out, "?p")
	assert.Contains(t, out, "owns")
	assert.Contains(t, out, "_1 rows_")

	assert.Contains(t, tf.FormatRows(&Rows{Columns: []query.Symbol{"?x"}}), "_No rows_")
}

func TestRowsSort(t *testing.T) {
	rows := &Rows{
		Columns: []query.Symbol{"?x"},
		Tuples:  []Tuple{{iri("b")}, {nil}, {iri("a")}},
	}
	rows.Sort()
	assert.Equal(t, []Tuple{{nil}, {iri("a")}, {iri("b")}}, rows.Tuples)
}
