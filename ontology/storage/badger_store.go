// Package storage is the fact store: a set of triples held in an in-memory
// badger database under three covering indexes, queried through read-only
// snapshots.
package storage

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/wbrown/janus-ontology/ontology"
	"github.com/wbrown/janus-ontology/ontology/executor"
)

// DefaultMemTableSize keeps the in-memory footprint modest; badger's own
// default is sized for disk-backed workloads.
const DefaultMemTableSize = 16 << 20

// StoreOptions tunes the badger instance
type StoreOptions struct {
	MemTableSize int64
	Logger       *zap.Logger
}

// BadgerStore holds triples in an in-memory badger database
type BadgerStore struct {
	db     *badger.DB
	logger *zap.Logger

	mu     sync.Mutex // serializes writers
	size   atomic.Int64
	closed atomic.Bool
}

// NewBadgerStore opens an empty in-memory store
func NewBadgerStore(opts StoreOptions) (*BadgerStore, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	memTable := opts.MemTableSize
	if memTable <= 0 {
		memTable = DefaultMemTableSize
	}

	bopts := badger.DefaultOptions("").WithInMemory(true)
	bopts.Logger = badgerLogger{logger.Named("badger").Sugar()}
	bopts.MemTableSize = memTable
	bopts.BlockCacheSize = 32 << 20
	bopts.IndexCacheSize = 16 << 20
	bopts.DetectConflicts = false // single writer

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &BadgerStore{db: db, logger: logger}, nil
}

// Size returns the number of distinct triples held
func (s *BadgerStore) Size() int {
	return int(s.size.Load())
}

// Assert writes the triples that are not already present and returns how
// many were new. Every triple is validated before anything is written.
func (s *BadgerStore) Assert(triples []ontology.Triple) (int, error) {
	for i := range triples {
		if err := triples[i].Valid(); err != nil {
			return 0, fmt.Errorf("assert: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return 0, ontology.ErrStoreClosed
	}

	added, pending := 0, 0
	txn := s.db.NewTransaction(true)
	defer func() { txn.Discard() }()

	flush := func() error {
		if err := txn.Commit(); err != nil {
			return fmt.Errorf("failed to commit: %w", err)
		}
		added += pending
		s.size.Add(int64(pending))
		pending = 0
		txn = s.db.NewTransaction(true)
		return nil
	}

	for _, t := range triples {
		spo := EncodeKey(SPO, t)
		_, err := txn.Get(spo)
		if err == nil {
			continue
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return added, fmt.Errorf("failed to read SPO index: %w", err)
		}

		err = s.assertTriple(txn, t)
		if errors.Is(err, badger.ErrTxnTooBig) {
			if err := flush(); err != nil {
				return added, err
			}
			err = s.assertTriple(txn, t)
		}
		if err != nil {
			return added, err
		}
		pending++
	}
	if err := flush(); err != nil {
		return added, err
	}
	if added > 0 {
		s.logger.Debug("asserted triples", zap.Int("added", added), zap.Int64("size", s.size.Load()))
	}
	return added, nil
}

// assertTriple adds a single triple to all indices
func (s *BadgerStore) assertTriple(txn *badger.Txn, t ontology.Triple) error {
	value := EncodeTriple(t)
	for _, idx := range Indices {
		if err := txn.Set(EncodeKey(idx, t), value); err != nil {
			return fmt.Errorf("failed to write to %v index: %w", idx, err)
		}
	}
	return nil
}

// Snapshot opens a read-only view of the store as of now. The caller must
// Discard it.
func (s *BadgerStore) Snapshot() (*Snapshot, error) {
	if s.closed.Load() {
		return nil, ontology.ErrStoreClosed
	}
	return &Snapshot{
		txn:  s.db.NewTransaction(false),
		open: make(map[*tripleIterator]struct{}),
	}, nil
}

// Close releases the badger instance. Further writes fail with
// ErrStoreClosed.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

// Snapshot is a point-in-time view of the store. It implements
// executor.Matcher.
type Snapshot struct {
	txn *badger.Txn

	mu        sync.Mutex
	open      map[*tripleIterator]struct{}
	discarded bool
}

var _ executor.Matcher = (*Snapshot)(nil)

// Match returns the triples matching the bound positions. A nil position is
// a wildcard; a predicate that is not an IRI matches nothing.
func (v *Snapshot) Match(s, p, o ontology.Term) executor.TripleIterator {
	if p != nil && p.Kind() != ontology.KindIRI {
		return emptyIterator{}
	}
	idx, parts := ChooseIndex(s, p, o)
	prefix := EncodePrefix(idx, parts...)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.discarded {
		return emptyIterator{err: ontology.ErrStoreClosed}
	}

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := &tripleIterator{
		snap:   v,
		it:     v.txn.NewIterator(opts),
		prefix: prefix,
	}
	v.open[it] = struct{}{}
	return it
}

// Has reports whether the exact triple is present in the snapshot
func (v *Snapshot) Has(t ontology.Triple) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.discarded {
		return false, ontology.ErrStoreClosed
	}
	_, err := v.txn.Get(EncodeKey(SPO, t))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Discard closes any iterators still open and ends the read transaction.
// Safe to call more than once.
func (v *Snapshot) Discard() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.discarded {
		return
	}
	v.discarded = true
	for it := range v.open {
		it.closeLocked()
	}
	v.txn.Discard()
}

func (v *Snapshot) release(it *tripleIterator) {
	v.mu.Lock()
	defer v.mu.Unlock()
	it.closeLocked()
}

// tripleIterator walks one key prefix of an index
type tripleIterator struct {
	snap    *Snapshot
	it      *badger.Iterator
	prefix  []byte
	started bool
	closed  bool
	current ontology.Triple
	err     error
}

func (it *tripleIterator) Next() bool {
	if it.closed || it.err != nil {
		return false
	}
	if !it.started {
		it.it.Seek(it.prefix)
		it.started = true
	} else {
		it.it.Next()
	}
	if !it.it.ValidForPrefix(it.prefix) {
		return false
	}
	err := it.it.Item().Value(func(val []byte) error {
		t, err := DecodeTriple(val)
		it.current = t
		return err
	})
	if err != nil {
		it.err = err
		return false
	}
	return true
}

func (it *tripleIterator) Triple() ontology.Triple { return it.current }

// Close returns the first decode error seen, if any
func (it *tripleIterator) Close() error {
	it.snap.release(it)
	return it.err
}

// closeLocked must be called with snap.mu held
func (it *tripleIterator) closeLocked() {
	if it.closed {
		return
	}
	it.closed = true
	it.it.Close()
	delete(it.snap.open, it)
}

type emptyIterator struct{ err error }

func (emptyIterator) Next() bool              { return false }
func (emptyIterator) Triple() ontology.Triple { return ontology.Triple{} }
func (e emptyIterator) Close() error          { return e.err }

// badgerLogger routes badger's logging through zap. Badger is chatty at
// info level, so info is demoted to debug.
type badgerLogger struct {
	*zap.SugaredLogger
}

func (l badgerLogger) Errorf(format string, args ...interface{})   { l.SugaredLogger.Errorf(format, args...) }
func (l badgerLogger) Warningf(format string, args ...interface{}) { l.SugaredLogger.Warnf(format, args...) }
func (l badgerLogger) Infof(format string, args ...interface{})    { l.SugaredLogger.Debugf(format, args...) }
func (l badgerLogger) Debugf(format string, args ...interface{})   { l.SugaredLogger.Debugf(format, args...) }
