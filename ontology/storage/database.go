package storage

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/wbrown/janus-ontology/ontology"
	"github.com/wbrown/janus-ontology/ontology/annotations"
	"github.com/wbrown/janus-ontology/ontology/executor"
	"github.com/wbrown/janus-ontology/ontology/metrics"
	"github.com/wbrown/janus-ontology/ontology/query"
)

// Codec converts between serialized documents and triples. Format names are
// whatever the codec accepts ("rdfxml", "ntriples", "nquads", ...). The
// base IRI resolves relative references in documents that declare none.
type Codec interface {
	Decode(data []byte, format, base string) ([]ontology.Triple, error)
	Encode(w io.Writer, format string, triples []ontology.Triple) error
}

// Options configures a Database
type Options struct {
	MemTableSize int64
	Codec        Codec
	Logger       *zap.Logger
	Metrics      *metrics.Metrics
	Collector    *annotations.Collector
}

// Database provides the main API for reading and writing triples
type Database struct {
	store     *BadgerStore
	codec     Codec
	logger    *zap.Logger
	metrics   *metrics.Metrics
	collector *annotations.Collector
}

// NewDatabase creates an empty database
func NewDatabase(opts Options) (*Database, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	store, err := NewBadgerStore(StoreOptions{MemTableSize: opts.MemTableSize, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	return &Database{
		store:     store,
		codec:     opts.Codec,
		logger:    logger,
		metrics:   opts.Metrics,
		collector: opts.Collector,
	}, nil
}

// Add inserts one triple and reports whether it was new
func (d *Database) Add(t ontology.Triple) (bool, error) {
	n, err := d.AddAll([]ontology.Triple{t})
	return n == 1, err
}

// AddAll inserts the triples not already present and returns how many were new
func (d *Database) AddAll(triples []ontology.Triple) (int, error) {
	start := time.Now()
	n, err := d.store.Assert(triples)
	if err != nil {
		d.collector.AddError(annotations.ErrorBackend, "assert", err)
		return n, err
	}
	d.metrics.SetTriples(d.store.Size())
	d.collector.AddTiming(annotations.StoreAsserted, start, map[string]interface{}{
		"offered": len(triples),
		"added":   n,
	})
	return n, nil
}

// Load parses a whole document and merges it into the store. Nothing is
// written unless the document parses completely. Relative IRIs resolve
// against base, usually the document's own location.
func (d *Database) Load(data []byte, format, base string) (int, error) {
	start := time.Now()
	if d.codec == nil {
		return 0, fmt.Errorf("load: no codec configured")
	}

	triples, err := d.codec.Decode(data, format, base)
	if err != nil {
		d.metrics.ObserveLoad(format, start, err)
		d.collector.AddError(annotations.ErrorParse, format, err)
		return 0, err
	}
	n, err := d.store.Assert(triples)
	d.metrics.ObserveLoad(format, start, err)
	if err != nil {
		d.collector.AddError(annotations.ErrorBackend, "load", err)
		return n, err
	}
	d.metrics.SetTriples(d.store.Size())

	d.logger.Info("loaded document",
		zap.String("format", format),
		zap.Int("bytes", len(data)),
		zap.Int("parsed", len(triples)),
		zap.Int("added", n),
		zap.Int("size", d.store.Size()))
	d.collector.AddTiming(annotations.StoreLoaded, start, map[string]interface{}{
		"format": format,
		"parsed": len(triples),
		"added":  n,
		"size":   d.store.Size(),
	})
	return n, nil
}

// Serialize writes the entire store in the given format. Triples are
// emitted in canonical order so output is stable across runs.
func (d *Database) Serialize(format string) ([]byte, error) {
	start := time.Now()
	if d.codec == nil {
		return nil, fmt.Errorf("serialize: no codec configured")
	}
	triples, err := d.Triples()
	if err != nil {
		return nil, err
	}
	sort.Slice(triples, func(i, j int) bool {
		return ontology.CompareTriples(triples[i], triples[j]) < 0
	})

	var buf bytes.Buffer
	if err := d.codec.Encode(&buf, format, triples); err != nil {
		d.collector.AddError(annotations.ErrorBackend, "serialize", err)
		return nil, err
	}
	d.collector.AddTiming(annotations.StoreSerialized, start, map[string]interface{}{
		"format":  format,
		"triples": len(triples),
		"bytes":   buf.Len(),
	})
	return buf.Bytes(), nil
}

// Triples returns every stored triple
func (d *Database) Triples() ([]ontology.Triple, error) {
	snap, err := d.store.Snapshot()
	if err != nil {
		return nil, err
	}
	defer snap.Discard()

	out := make([]ontology.Triple, 0, d.store.Size())
	it := snap.Match(nil, nil, nil)
	for it.Next() {
		out = append(out, it.Triple())
	}
	if err := it.Close(); err != nil {
		return nil, fmt.Errorf("failed to scan store: %w", err)
	}
	return out, nil
}

// Contains reports whether the exact triple is stored
func (d *Database) Contains(t ontology.Triple) (bool, error) {
	snap, err := d.store.Snapshot()
	if err != nil {
		return false, err
	}
	defer snap.Discard()
	return snap.Has(t)
}

// Query evaluates a pattern group against a snapshot taken now. The result
// holds the snapshot open until it is closed.
func (d *Database) Query(g *query.Group) (*executor.Result, error) {
	start := time.Now()
	d.collector.Add(annotations.Event{
		Name:  annotations.QueryInvoked,
		Start: start,
		End:   start,
		Data:  map[string]interface{}{"query": g.String()},
	})

	snap, err := d.store.Snapshot()
	if err != nil {
		d.metrics.ObserveQuery(err)
		return nil, err
	}
	res, err := executor.NewExecutor(snap).Execute(g)
	d.metrics.ObserveQuery(err)
	if err != nil {
		snap.Discard()
		return nil, err
	}
	res.OnClose(snap.Discard)

	d.collector.AddTiming(annotations.QueryComplete, start, map[string]interface{}{
		"columns": len(res.Columns()),
	})
	return res, nil
}

// Snapshot exposes a raw point-in-time matcher for callers that scan
// patterns directly. The caller must Discard it.
func (d *Database) Snapshot() (*Snapshot, error) {
	return d.store.Snapshot()
}

// Size returns the number of distinct triples
func (d *Database) Size() int {
	return d.store.Size()
}

// Close releases the store
func (d *Database) Close() error {
	return d.store.Close()
}
