package preload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/wbrown/janus-ontology/ontology"
	"github.com/wbrown/janus-ontology/ontology/codec"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fixture lays out a directory with two ontologies and two distractions
func fixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"zoo.owl":       "<zoo/>",
		"sub/pets.rdf":  "<pets/>",
		"notes.txt":     "not an ontology",
		"dump.nt":       "",
		".hidden/x.owl": "<hidden/>",
	}
	for name, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0644))
	}
	return dir
}

func names(entries []Entry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func TestList(t *testing.T) {
	dir := fixture(t)

	tests := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{"defaults", nil, []string{".hidden/x.owl", "sub/pets.rdf", "zoo.owl"}},
		{"top level only", []string{"*.owl"}, []string{"zoo.owl"}},
		{"n-triples", []string{"**/*.nt"}, []string{"dump.nt"}},
		{"unknown extensions skipped", []string{"*"}, []string{"dump.nt", "zoo.owl"}},
		{"overlapping patterns", []string{"**/*.owl", "*.owl"}, []string{".hidden/x.owl", "zoo.owl"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCatalog(dir, Options{Patterns: tt.patterns})
			require.NoError(t, err)
			entries, err := c.List()
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(entries))
		})
	}
}

func TestListEntry(t *testing.T) {
	dir := fixture(t)
	c, err := NewCatalog(dir, Options{Patterns: []string{"sub/*.rdf"}})
	require.NoError(t, err)

	entries, err := c.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, filepath.Join(dir, "sub", "pets.rdf"), e.Path)
	assert.Equal(t, codec.FormatRDFXML, e.Format)
	assert.Equal(t, int64(len("<pets/>")), e.Size)
	assert.False(t, e.ModTime.IsZero())
}

func TestNewCatalogErrors(t *testing.T) {
	dir := fixture(t)
	_, err := NewCatalog(filepath.Join(dir, "missing"), Options{})
	assert.Error(t, err)
	_, err = NewCatalog(filepath.Join(dir, "zoo.owl"), Options{})
	assert.Error(t, err)
	_, err = NewCatalog(dir, Options{Patterns: []string{"[a-"}})
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	c, err := NewCatalog(fixture(t), Options{})
	require.NoError(t, err)

	doc, err := c.Open("sub/pets.rdf")
	require.NoError(t, err)
	assert.Equal(t, "<pets/>", string(doc.Data))

	doc, err = c.Open("pets.rdf")
	require.NoError(t, err)
	assert.Equal(t, "sub/pets.rdf", doc.Name)

	_, err = c.Open("notes.txt")
	assert.True(t, ontology.IsNotFound(err))
	var lerr *ontology.LookupError
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, "preloaded ontology", lerr.Kind)
}

func TestReadAll(t *testing.T) {
	c, err := NewCatalog(fixture(t), Options{Concurrency: 2})
	require.NoError(t, err)

	docs, err := c.ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "<hidden/>", string(docs[0].Data))
	assert.Equal(t, "<pets/>", string(docs[1].Data))
	assert.Equal(t, "<zoo/>", string(docs[2].Data))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.ReadAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func waitChange(t *testing.T, w *Watcher) Change {
	t.Helper()
	select {
	case ch, ok := <-w.Changes():
		require.True(t, ok, "changes closed early")
		return ch
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
		return Change{}
	}
}

func TestWatcher(t *testing.T) {
	dir := fixture(t)
	c, err := NewCatalog(dir, Options{Patterns: []string{"**/*.owl"}})
	require.NoError(t, err)
	w, err := NewWatcher(c, 20*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "farm.owl"), []byte("<farm/>"), 0644))
	ch := waitChange(t, w)
	require.NoError(t, ch.Err)
	assert.Contains(t, names(ch.Entries), "farm.owl")

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "more"), 0755))
	waitChange(t, w)
	sea := filepath.Join(dir, "more", "sea.owl")
	assert.Eventually(t, func() bool {
		select {
		case ch := <-w.Changes():
			if contains(names(ch.Entries), "more/sea.owl") {
				return true
			}
		default:
		}
		// rewrite in case the directory was not watched yet
		_ = os.WriteFile(sea, []byte("<sea/>"), 0644)
		return false
	}, 5*time.Second, 50*time.Millisecond, "files in new directories are noticed")

	require.NoError(t, os.Remove(filepath.Join(dir, "zoo.owl")))
	assert.Eventually(t, func() bool {
		select {
		case ch := <-w.Changes():
			return !contains(names(ch.Entries), "zoo.owl")
		default:
		}
		return false
	}, 5*time.Second, 10*time.Millisecond, "removals are noticed")

	require.NoError(t, w.Close())
	require.NoError(t, w.Close(), "close is idempotent")
	for range w.Changes() {
		// drain whatever was delivered before the close
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := fixture(t)
	c, err := NewCatalog(dir, Options{Patterns: []string{"*.owl"}})
	require.NoError(t, err)
	w, err := NewWatcher(c, 10*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("edited"), 0644))

	select {
	case ch := <-w.Changes():
		t.Fatalf("unexpected change %v", names(ch.Entries))
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	require.NoError(t, w.Close())
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
