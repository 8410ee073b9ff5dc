package dataset

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher auto-ingests CSV files dropped into a directory. Writes are
// debounced per file because editors and copies fire several events per
// save.
type Watcher struct {
	store    *Store
	dir      string
	log      *slog.Logger
	debounce time.Duration

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
}

// NewWatcher creates a watcher for the given directory
func NewWatcher(store *Store, dir string, log *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		store:    store,
		dir:      dir,
		log:      log,
		debounce: 500 * time.Millisecond,
		watcher:  fw,
	}, nil
}

// Start begins watching. Files already present in the directory are
// ingested once at startup.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		return err
	}

	entries, err := os.ReadDir(w.dir)
	if err == nil {
		for _, e := range entries {
			if !e.IsDir() {
				w.ingest(filepath.Join(w.dir, e.Name()))
			}
		}
	}

	ctx, w.cancel = context.WithCancel(ctx)
	go w.loop(ctx)
	return nil
}

// Stop stops watching
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.watcher.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	timers := make(map[string]*time.Timer)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			name := event.Name
			if t, exists := timers[name]; exists {
				t.Stop()
			}
			timers[name] = time.AfterFunc(w.debounce, func() {
				w.ingest(name)
			})
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("dataset watcher error", "error", err)
		}
	}
}

// ingest loads one CSV file into the store
func (w *Watcher) ingest(path string) {
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		return
	}
	f, err := os.Open(path)
	if err != nil {
		w.log.Warn("opening dataset file", "path", path, "error", err)
		return
	}
	defer f.Close()

	frame, err := ReadCSV(f)
	if err != nil {
		w.log.Warn("ingesting dataset file", "path", path, "error", err)
		return
	}
	id := w.store.Put(frame, filepath.Base(path))
	w.log.Info("dataset ingested", "path", path, "file_id", id,
		"rows", len(frame.Rows), "columns", len(frame.Columns))
}
