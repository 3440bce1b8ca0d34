package intake

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/iWorld-y/visit_report/app/visit_report/pkg/config"
)

// Handler processes one settled submission file
type Handler func(ctx context.Context, path string) error

// Watcher picks up submission files dropped into the inbox directory.
// A file is handled once no write has touched it for the debounce delay,
// then moved to the processed or failed directory.
type Watcher struct {
	cfg      config.WatchConfig
	debounce time.Duration
	handler  Handler
	log      logrus.FieldLogger
	fsw      *fsnotify.Watcher

	pendingMu sync.Mutex
	pending   map[string]time.Time

	done chan struct{}
}

// NewWatcher creates an inbox watcher, nothing is watched until Start
func NewWatcher(cfg config.WatchConfig, handler Handler, log logrus.FieldLogger) (*Watcher, error) {
	if handler == nil {
		return nil, fmt.Errorf("intake watcher: nil handler")
	}
	if !doublestar.ValidatePattern(cfg.Pattern) {
		return nil, fmt.Errorf("intake watcher: bad pattern %q", cfg.Pattern)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Watcher{
		cfg:      cfg,
		debounce: cfg.DebounceDelay(),
		handler:  handler,
		log:      log,
		fsw:      fsw,
		pending:  make(map[string]time.Time),
		done:     make(chan struct{}),
	}, nil
}

// Start creates the directories, queues files already waiting in the inbox
// and begins processing events
func (w *Watcher) Start(ctx context.Context) error {
	for _, dir := range []string{w.cfg.Dir, w.cfg.ProcessedDir, w.cfg.FailedDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := w.fsw.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.cfg.Dir, err)
	}

	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() {
			w.queue(filepath.Join(w.cfg.Dir, e.Name()))
		}
	}

	go w.processEvents(ctx)

	w.log.WithFields(logrus.Fields{
		"dir":      w.cfg.Dir,
		"pattern":  w.cfg.Pattern,
		"debounce": w.debounce,
	}).Info("inbox watcher started")
	return nil
}

// Stop closes the underlying watcher, the event loop exits afterwards
func (w *Watcher) Stop() error {
	return w.fsw.Close()
}

// Done is closed once the event loop has exited
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher) matches(path string) bool {
	ok, err := doublestar.Match(w.cfg.Pattern, filepath.Base(path))
	return err == nil && ok
}

func (w *Watcher) queue(path string) {
	if !w.matches(path) {
		return
	}
	w.pendingMu.Lock()
	w.pending[path] = time.Now()
	w.pendingMu.Unlock()
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.done)
	ticker := time.NewTicker(max(w.debounce/2, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				w.queue(event.Name)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Error("inbox watcher error")

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

// flushPending handles every file that has been quiet for the debounce delay
func (w *Watcher) flushPending(ctx context.Context) {
	now := time.Now()
	var ready []string

	w.pendingMu.Lock()
	for path, last := range w.pending {
		if now.Sub(last) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.pendingMu.Unlock()

	for _, path := range ready {
		if ctx.Err() != nil {
			return
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}

		target := w.cfg.ProcessedDir
		if err := w.handler(ctx, path); err != nil {
			w.log.WithError(err).WithField("path", path).Error("submission failed")
			target = w.cfg.FailedDir
		}
		if target == "" {
			continue
		}
		if err := moveInto(path, target); err != nil {
			w.log.WithError(err).WithField("path", path).Warn("could not move submission")
		}
	}
}

// moveInto renames path into dir, adding a timestamp when the name is taken
func moveInto(path, dir string) error {
	dst := filepath.Join(dir, filepath.Base(path))
	if _, err := os.Stat(dst); err == nil {
		ext := filepath.Ext(dst)
		dst = fmt.Sprintf("%s-%d%s", dst[:len(dst)-len(ext)], time.Now().UnixNano(), ext)
	}
	return os.Rename(path, dst)
}
