package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbrown/janus-ontology/ontology"
)

func TestShortName(t *testing.T) {
	tests := []struct {
		id   ontology.IRI
		want string
	}{
		{"http://ex.org/onto#Dog", "Dog"},
		{"http://ex.org/onto/Dog", "Dog"},
		{"http://ex.org/a#b/c", "c"},
		{"http://ex.org/a/b#c", "c"},
		{"urn:isbn:123", "urn:isbn:123"},
		{"http://ex.org/", ""},
		{"http://ex.org/onto#", ""},
	}
	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			assert.Equal(t, tt.want, ShortName(tt.id))
			assert.Equal(t, ShortName(tt.id), ShortName(tt.id))
		})
	}
}

func TestLastWriteWins(t *testing.T) {
	r := New("class")
	a := ontology.IRI("http://one.org/Thing")
	b := ontology.IRI("http://two.org#Thing")

	assert.Equal(t, "Thing", r.Register(a))
	got, err := r.Resolve("Thing")
	require.NoError(t, err)
	assert.Equal(t, a, got)

	r.Register(b)
	got, err = r.Resolve("Thing")
	require.NoError(t, err)
	assert.Equal(t, b, got)

	r.Register(a)
	got, err = r.Resolve("Thing")
	require.NoError(t, err)
	assert.Equal(t, a, got, "re-registering moves the name back")

	assert.Equal(t, []ontology.IRI{a, b}, r.Aliases("Thing"))
	assert.Equal(t, []ontology.IRI{a, b}, r.Entries())
	assert.Equal(t, 2, r.Len())
}

func TestResolveUnknown(t *testing.T) {
	r := New("property")
	_, err := r.Resolve("owns")
	var lerr *ontology.LookupError
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, "property", lerr.Kind)
	assert.Equal(t, "owns", lerr.Name)
	assert.True(t, ontology.IsNotFound(err))
}

func TestDiscoveryOrderAndReset(t *testing.T) {
	r := New("instance")
	ids := []ontology.IRI{"http://ex.org/c", "http://ex.org/a", "http://ex.org/b", "http://ex.org/a"}
	for _, id := range ids {
		r.Register(id)
	}
	assert.Equal(t, []string{"c", "a", "b"}, r.Names())
	assert.True(t, r.Contains("http://ex.org/a"))
	assert.False(t, r.Contains("http://ex.org/z"))

	r.Reset()
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Entries())
	_, err := r.Resolve("a")
	assert.Error(t, err)
}
