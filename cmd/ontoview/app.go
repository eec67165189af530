package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/wbrown/janus-ontology/config"
	"github.com/wbrown/janus-ontology/ontology/annotations"
	"github.com/wbrown/janus-ontology/ontology/codec"
	"github.com/wbrown/janus-ontology/ontology/metrics"
	"github.com/wbrown/janus-ontology/ontology/session"
	"github.com/wbrown/janus-ontology/ontology/storage"
	"github.com/wbrown/janus-ontology/preload"
)

// app wires one session to the terminal
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	out      io.Writer
	palette  palette
	registry *prometheus.Registry

	db      *storage.Database
	sess    *session.Session
	catalog *preload.Catalog
	watcher *preload.Watcher

	mu      sync.Mutex
	entries []preload.Entry
}

func newApp(cfg *config.Config, logger *zap.Logger, verbose bool, out io.Writer) (*app, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	var handler annotations.Handler
	if verbose {
		handler = annotations.ConsoleHandler()
	}
	collector := annotations.NewCollector(handler)

	db, err := storage.NewDatabase(storage.Options{
		MemTableSize: cfg.Store.MemTableSize,
		Codec:        codec.New(),
		Logger:       logger,
		Metrics:      m,
		Collector:    collector,
	})
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		out:      out,
		palette:  newPalette(isTerminal(out)),
		registry: reg,
		db:       db,
	}
	a.sess = session.New(db, session.Options{
		Languages:   cfg.Display.Languages,
		DefaultLang: cfg.Display.DefaultLang,
		Namespace:   cfg.Display.Namespace,
		Prefixes:    cfg.Display.Prefixes,
		MaxPasses:   cfg.Reasoner.MaxPasses,
		Logger:      logger,
		Metrics:     m,
		Collector:   collector,
	})

	if cfg.Preload.Dir != "" {
		a.catalog, err = preload.NewCatalog(cfg.Preload.Dir, preload.Options{
			Patterns: cfg.Preload.Patterns,
			Logger:   logger,
		})
		if err != nil {
			db.Close()
			return nil, err
		}
	}
	return a, nil
}

// Close stops the watcher and releases the store
func (a *app) Close() error {
	if a.watcher != nil {
		a.watcher.Close()
	}
	return a.db.Close()
}

// startWatcher keeps the preload listing current when watching is enabled
func (a *app) startWatcher(ctx context.Context) error {
	if a.catalog == nil || !a.cfg.Preload.Watch {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	w, err := preload.NewWatcher(a.catalog, a.cfg.Preload.Debounce)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		w.Close()
		return err
	}
	a.watcher = w
	go func() {
		for ch := range w.Changes() {
			if ch.Err != nil {
				a.logger.Warn("preload rescan failed", zap.Error(ch.Err))
				continue
			}
			a.mu.Lock()
			a.entries = ch.Entries
			a.mu.Unlock()
		}
	}()
	return nil
}

// preloaded returns the latest known listing of the preload directory
func (a *app) preloaded() ([]preload.Entry, error) {
	if a.catalog == nil {
		return nil, fmt.Errorf("no preload directory configured")
	}
	a.mu.Lock()
	entries := a.entries
	a.mu.Unlock()
	if entries != nil {
		return entries, nil
	}
	return a.catalog.List()
}

// loadFile merges one document, choosing the format by extension
func (a *app) loadFile(path string) (*session.Response, error) {
	format, err := codec.FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	base, err := codec.FileBase(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return a.sess.Dispatch(session.Load{Data: data, Format: string(format), Source: filepath.Base(path), Base: base})
}

func (a *app) loadFiles(paths []string) error {
	for _, p := range paths {
		resp, err := a.loadFile(p)
		if err != nil {
			return err
		}
		a.printLoaded(filepath.Base(p), resp)
	}
	return nil
}

// loadPreloaded opens a catalog entry by name, or every entry when name
// is empty
func (a *app) loadPreloaded(ctx context.Context, name string) error {
	if a.catalog == nil {
		return fmt.Errorf("no preload directory configured")
	}
	var docs []preload.Document
	if name == "" {
		all, err := a.catalog.ReadAll(ctx)
		if err != nil {
			return err
		}
		docs = all
	} else {
		doc, err := a.catalog.Open(name)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}
	for _, doc := range docs {
		base, err := codec.FileBase(doc.Path)
		if err != nil {
			return err
		}
		resp, err := a.sess.Dispatch(session.Load{Data: doc.Data, Format: string(doc.Format), Source: doc.Name, Base: base})
		if err != nil {
			return err
		}
		a.printLoaded(doc.Name, resp)
	}
	return nil
}

// saveFile writes the store. Unknown extensions use the configured format.
func (a *app) saveFile(path string) error {
	format, err := codec.FormatFromPath(path)
	if err != nil {
		if format, err = codec.ParseFormat(a.cfg.Store.SaveFormat); err != nil {
			return err
		}
	}
	resp, err := a.sess.Dispatch(session.Save{Format: string(format)})
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, resp.Data, 0644); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved %d triples to %s (%s)\n", a.sess.Size(), path, format)
	return nil
}

func (a *app) printLoaded(name string, resp *session.Response) {
	fmt.Fprintf(a.out, "Loaded %s: %d new triples, %d total\n", name, resp.Added, a.sess.Size())
	printDiagnostics(a.out, resp.Diagnostics, a.palette)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
