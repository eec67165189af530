// Package preload lists and reads the ontology files kept in a directory
// so they can be opened by name, and watches that directory for changes.
package preload

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wbrown/janus-ontology/ontology"
	"github.com/wbrown/janus-ontology/ontology/codec"
)

// DefaultPatterns select RDF/XML ontologies anywhere below the directory
var DefaultPatterns = []string{"**/*.owl", "**/*.rdf"}

// Entry is one file of the catalog
type Entry struct {
	// Name is the slash-separated path relative to the catalog directory
	Name    string
	Path    string
	Format  codec.Format
	Size    int64
	ModTime time.Time
}

// Document is an entry with its contents
type Document struct {
	Entry
	Data []byte
}

// Options configures a Catalog
type Options struct {
	Patterns    []string
	Concurrency int
	Logger      *zap.Logger
}

// Catalog lists the ontology files of one directory
type Catalog struct {
	dir         string
	patterns    []string
	concurrency int
	logger      *zap.Logger
}

// NewCatalog creates a catalog over dir
func NewCatalog(dir string, opts Options) (*Catalog, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("preload directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("preload directory: %s is not a directory", dir)
	}

	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid pattern %q", p)
		}
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{dir: dir, patterns: patterns, concurrency: concurrency, logger: logger}, nil
}

// Dir returns the catalog directory
func (c *Catalog) Dir() string {
	return c.dir
}

// List returns the matching files sorted by name. Files whose extension
// names no supported format are skipped.
func (c *Catalog) List() ([]Entry, error) {
	fsys := os.DirFS(c.dir)
	seen := make(map[string]bool)
	var out []Entry
	for _, pattern := range c.patterns {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, name := range matches {
			if seen[name] {
				continue
			}
			seen[name] = true

			info, err := fs.Stat(fsys, name)
			if err != nil || info.IsDir() {
				continue
			}
			format, err := codec.FormatFromPath(name)
			if err != nil {
				c.logger.Debug("skipping file", zap.String("name", name), zap.Error(err))
				continue
			}
			out = append(out, Entry{
				Name:    name,
				Path:    filepath.Join(c.dir, filepath.FromSlash(name)),
				Format:  format,
				Size:    info.Size(),
				ModTime: info.ModTime(),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Find returns the entry with the given relative name, or failing that the
// first entry whose file name is name
func (c *Catalog) Find(name string) (Entry, error) {
	entries, err := c.List()
	if err != nil {
		return Entry{}, err
	}
	for _, e := range entries {
		if e.Name == name {
			return e, nil
		}
	}
	for _, e := range entries {
		if path.Base(e.Name) == name {
			return e, nil
		}
	}
	return Entry{}, &ontology.LookupError{Kind: "preloaded ontology", Name: name}
}

// Open reads the named entry
func (c *Catalog) Open(name string) (Document, error) {
	e, err := c.Find(name)
	if err != nil {
		return Document{}, err
	}
	data, err := os.ReadFile(e.Path)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", e.Name, err)
	}
	return Document{Entry: e, Data: data}, nil
}

// ReadAll reads every entry concurrently. Documents keep List order.
func (c *Catalog) ReadAll(ctx context.Context) ([]Document, error) {
	entries, err := c.List()
	if err != nil {
		return nil, err
	}

	docs := make([]Document, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(e.Path)
			if err != nil {
				return fmt.Errorf("read %s: %w", e.Name, err)
			}
			docs[i] = Document{Entry: e, Data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	c.logger.Debug("preloaded ontologies read", zap.String("dir", c.dir), zap.Int("files", len(docs)))
	return docs, nil
}

// matches reports whether a path below the directory is selected by the patterns
func (c *Catalog) matches(p string) bool {
	rel, err := filepath.Rel(c.dir, p)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range c.patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
