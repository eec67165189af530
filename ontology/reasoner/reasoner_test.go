package reasoner

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wbrown/janus-ontology/ontology"
	"github.com/wbrown/janus-ontology/ontology/annotations"
	"github.com/wbrown/janus-ontology/ontology/metrics"
	"github.com/wbrown/janus-ontology/ontology/storage"
)

const ex = "http://ex.org/"

func iri(local string) ontology.IRI { return ontology.IRI(ex + local) }

func sub(child, parent string) ontology.Triple {
	return ontology.NewTriple(iri(child), ontology.RDFSSubClassOf, iri(parent))
}

func typed(inst, class string) ontology.Triple {
	return ontology.NewTriple(iri(inst), ontology.RDFType, iri(class))
}

func newStore(t *testing.T, triples ...ontology.Triple) *storage.Database {
	t.Helper()
	db, err := storage.NewDatabase(storage.Options{MemTableSize: 4 << 20})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.AddAll(triples)
	require.NoError(t, err)
	return db
}

func TestApplyReachesFixedPoint(t *testing.T) {
	db := newStore(t, sub("Dog", "Mammal"), sub("Mammal", "Animal"), typed("rex", "Dog"))
	m := metrics.New(prometheus.NewRegistry())
	c := annotations.NewCollector(nil)
	engine := New(db, Options{Logger: zaptest.NewLogger(t), Metrics: m, Collector: c})

	report, err := engine.Apply()
	require.NoError(t, err)
	assert.Equal(t, 2, report.Inferred)
	assert.Equal(t, 3, report.Passes)
	assert.Equal(t, 5, db.Size())

	for _, class := range []string{"Dog", "Mammal", "Animal"} {
		ok, err := db.Contains(typed("rex", class))
		require.NoError(t, err)
		assert.True(t, ok, "rex should be a %s", class)
	}

	report, err = engine.Apply()
	require.NoError(t, err)
	assert.Equal(t, 0, report.Inferred)
	assert.Equal(t, 1, report.Passes)
	assert.Equal(t, 5, db.Size())

	assert.Equal(t, float64(2), testutil.ToFloat64(m.Inferred))

	var passes, complete int
	for _, e := range c.Events() {
		switch e.Name {
		case annotations.ReasoningPass:
			passes++
		case annotations.ReasoningComplete:
			complete++
		}
	}
	assert.Equal(t, 4, passes)
	assert.Equal(t, 2, complete)
}

func TestApplyMultipleParents(t *testing.T) {
	db := newStore(t,
		sub("Dog", "Pet"),
		sub("Dog", "Mammal"),
		sub("Mammal", "Animal"),
		sub("Pet", "Animal"),
		typed("rex", "Dog"),
		typed("tom", "Pet"),
	)
	report, err := New(db, Options{}).Apply()
	require.NoError(t, err)
	// rex: Pet, Mammal, Animal; tom: Animal
	assert.Equal(t, 4, report.Inferred)
}

func TestApplyRejectsCycles(t *testing.T) {
	db := newStore(t, sub("A", "B"), sub("B", "A"), typed("x", "A"))
	before := db.Size()

	_, err := New(db, Options{}).Apply()
	var cerr *ontology.CycleError
	require.True(t, errors.As(err, &cerr), "got %v", err)
	assert.Equal(t, before, db.Size(), "nothing is written when a cycle is found")
}

func TestApplyPassLimit(t *testing.T) {
	db := newStore(t, sub("A", "B"), sub("B", "C"), sub("C", "D"), typed("x", "A"))
	report, err := New(db, Options{MaxPasses: 1}).Apply()
	assert.ErrorIs(t, err, ErrPassLimit)
	assert.Equal(t, 1, report.Inferred)
}

func TestApplyIgnoresBlankNodes(t *testing.T) {
	db := newStore(t,
		sub("Dog", "Animal"),
		ontology.NewTriple(ontology.Blank("anon"), ontology.RDFType, iri("Dog")),
		ontology.NewTriple(iri("Dog"), ontology.RDFSSubClassOf, ontology.Blank("restriction")),
	)
	report, err := New(db, Options{}).Apply()
	require.NoError(t, err)
	assert.Equal(t, 0, report.Inferred)
}

func TestApplyOnClosedStore(t *testing.T) {
	db := newStore(t, sub("Dog", "Animal"), typed("rex", "Dog"))
	require.NoError(t, db.Close())

	report, err := New(db, Options{}).Apply()
	assert.ErrorIs(t, err, ontology.ErrStoreClosed)
	assert.Equal(t, 0, report.Inferred)
	assert.Equal(t, 0, report.Passes)
}
