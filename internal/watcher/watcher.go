package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/wb-go/wbf/zlog"
)

const DefaultDebounce = 500 * time.Millisecond

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
	".bmp":  {},
	".tif":  {},
	".tiff": {},
}

// HandlerFunc is called once per settled file.
type HandlerFunc func(ctx context.Context, path string) error

// Watcher turns new or rewritten images dropped into a folder into handler
// calls. Events for one file are coalesced until it stays quiet for the
// debounce interval.
type Watcher struct {
	dir      string
	debounce time.Duration
	handler  HandlerFunc
	logger   *zlog.Zerolog
	watcher  *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool
	wg      sync.WaitGroup
}

func New(dir string, debounce time.Duration, handler HandlerFunc, logger *zlog.Zerolog) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch folder %s: %w", dir, err)
	}

	return &Watcher{
		dir:      dir,
		debounce: debounce,
		handler:  handler,
		logger:   logger,
		watcher:  fsWatcher,
		pending:  make(map[string]*time.Timer),
	}, nil
}

// IsImage reports whether path has an extension the pipeline can decode.
// Hidden files are skipped.
func IsImage(path string) bool {
	base := filepath.Base(path)
	if base == "" || strings.HasPrefix(base, ".") {
		return false
	}
	_, ok := imageExtensions[strings.ToLower(filepath.Ext(base))]
	return ok
}

// Run blocks until ctx is done, then waits for running handlers.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info().Str("dir", w.dir).Dur("debounce", w.debounce).Msg("Watching folder")
	defer w.stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !IsImage(event.Name) {
				continue
			}
			w.schedule(ctx, event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("Watcher error")
		}
	}
}

func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}

	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		if w.closed {
			w.mu.Unlock()
			return
		}
		w.wg.Add(1)
		w.mu.Unlock()
		defer w.wg.Done()

		if ctx.Err() != nil {
			return
		}
		if err := w.handler(ctx, path); err != nil {
			w.logger.Error().Err(err).Str("path", path).Msg("Failed to handle file")
		}
	})
}

func (w *Watcher) stop() {
	w.mu.Lock()
	w.closed = true
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	w.wg.Wait()
	if err := w.watcher.Close(); err != nil {
		w.logger.Warn().Err(err).Msg("Failed to close watcher")
	}
}
