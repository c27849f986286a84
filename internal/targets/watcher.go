package targets

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"connprobe/internal/probe"
	"connprobe/pkg/logger"
)

// ChangeHandler receives the freshly reloaded endpoint list.
type ChangeHandler func(endpoints []probe.Endpoint)

// Watcher reloads the endpoints file when it changes on disk, so watch mode
// picks up edits without a restart. Events are debounced because editors
// tend to fire several writes per save.
type Watcher struct {
	mu       sync.Mutex
	path     string
	version  probe.IPVersion
	log      *logger.Logger
	handlers []ChangeHandler
	debounce time.Duration
}

func NewWatcher(path string, version probe.IPVersion, log *logger.Logger) *Watcher {
	if log == nil {
		log = logger.NewNop()
	}
	return &Watcher{
		path:     path,
		version:  version,
		log:      log.WithComponent("targets"),
		debounce: 250 * time.Millisecond,
	}
}

func (w *Watcher) AddChangeHandler(handler ChangeHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, handler)
}

// Watch blocks until the context is cancelled, invoking handlers on every
// successful reload. Parse failures keep the previous list and are logged.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: editors replace files by rename, which drops
	// a watch placed on the file itself.
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	var timer *time.Timer
	reload := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("endpoints watcher error", "error", err.Error())

		case <-reload:
			endpoints, err := LoadFile(w.path, w.version)
			if err != nil {
				w.log.Warn("failed to reload endpoints file, keeping previous list",
					"path", w.path,
					"error", err.Error(),
				)
				continue
			}
			w.log.Info("endpoints file reloaded", "path", w.path, "endpoints", len(endpoints))

			w.mu.Lock()
			handlers := make([]ChangeHandler, len(w.handlers))
			copy(handlers, w.handlers)
			w.mu.Unlock()

			for _, handler := range handlers {
				handler(endpoints)
			}
		}
	}
}
