package preload

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the watcher waits for more file events
// before listing the catalog again
const DefaultDebounce = 250 * time.Millisecond

// Change is the catalog listing after a burst of file events
type Change struct {
	Entries []Entry
	Err     error
}

// Watcher reports catalog changes. Only the latest undelivered change is
// kept.
type Watcher struct {
	catalog  *Catalog
	fsw      *fsnotify.Watcher
	debounce time.Duration
	logger   *zap.Logger

	changes   chan Change
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewWatcher creates a watcher for the catalog's directory
func NewWatcher(c *Catalog, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		catalog:  c,
		fsw:      fsw,
		debounce: debounce,
		logger:   c.logger,
		changes:  make(chan Change, 1),
		done:     make(chan struct{}),
	}, nil
}

// Changes returns the channel of catalog changes. It is closed by Close.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Start watches the directory tree until ctx ends or Close is called
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addWatches(w.catalog.dir); err != nil {
		return err
	}
	w.wg.Add(1)
	go w.run(ctx)
	w.logger.Info("watching preload directory",
		zap.String("dir", w.catalog.dir),
		zap.Duration("debounce", w.debounce))
	return nil
}

// Close stops the watcher and waits for it to exit
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		w.wg.Wait()
		close(w.changes)
	})
	return err
}

func (w *Watcher) addWatches(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			w.logger.Warn("cannot watch directory", zap.String("path", p), zap.Error(err))
		}
		return nil
	})
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-fire:
			fire = nil
			entries, err := w.catalog.List()
			w.publish(Change{Entries: entries, Err: err})
		}
	}
}

// relevant reports whether the event can change the listing. New
// directories are watched as they appear.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addWatches(event.Name); err != nil {
				w.logger.Warn("cannot watch new directory", zap.String("path", event.Name), zap.Error(err))
			}
			return true
		}
	}
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return false
	}
	return w.catalog.matches(event.Name)
}

func (w *Watcher) publish(c Change) {
	w.logger.Debug("preload catalog changed", zap.Int("entries", len(c.Entries)), zap.Error(c.Err))
	select {
	case w.changes <- c:
		return
	default:
	}
	// replace the stale change nobody has read yet
	select {
	case <-w.changes:
	default:
	}
	w.changes <- c
}
