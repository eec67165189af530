package annotations

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	var seen []string
	c := NewCollector(func(e Event) { seen = append(seen, e.Name) })

	c.AddTiming(QueryInvoked, time.Now(), map[string]interface{}{"query": "?s ?p ?o"})
	c.AddError(ErrorView, "hierarchy", errors.New("boom"))

	require.Equal(t, 2, c.Len())
	assert.Equal(t, []string{QueryInvoked, ErrorView}, seen)
	assert.Len(t, c.Since(1), 1)
	assert.Nil(t, c.Since(5))

	c.Reset()
	assert.Equal(t, 0, c.Len())
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.Add(Event{Name: QueryInvoked})
	c.AddTiming(QueryComplete, time.Now(), nil)
	c.AddError(ErrorCycle, "reasoner", errors.New("cycle"))
	c.Reset()
	assert.Nil(t, c.Events())
	assert.Equal(t, 0, c.Len())
}

func TestOutputFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewOutputFormatter(&buf)

	f.Handle(Event{Name: StoreLoaded, Latency: 1500 * time.Microsecond, Data: map[string]interface{}{
		"added": 12, "source": "zoo.owl", "format": "rdfxml",
	}})
	f.Handle(Event{Name: ReasoningComplete, Latency: 10 * time.Microsecond, Data: map[string]interface{}{
		"inferred": 3, "passes": 2,
	}})
	f.Handle(Event{Name: ErrorView, Data: map[string]interface{}{
		"source": "hierarchy", "error": errors.New("cycle"),
	}})

	out := buf.String()
	assert.Contains(t, out, "[1.5ms] + Loaded 12 triples from zoo.owl (rdfxml)")
	assert.Contains(t, out, "[10µs] === Reasoning done: 3 triples in 2 passes")
	assert.Contains(t, out, "✗ hierarchy: cycle")
}

func TestTruncateQuery(t *testing.T) {
	long := ""
	for i := 0; i < 30; i++ {
		long += "?s ?p ?o "
	}
	got := truncateQuery(long)
	assert.Len(t, got, 80)
	assert.Equal(t, "?s ?p ?o", truncateQuery("  ?s\n ?p   ?o "))
}
