package vector

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hyperjump/prana/pkg/utils"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Reloader watches a snapshot file and calls Store.Reload when it is replaced.
// The parent directory is watched because atomic writes rename a new file over the old one.
type Reloader struct {
	store    *Store
	path     string
	debounce time.Duration
	logger   *zap.Logger
	onReload func(err error)

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	timer    *time.Timer
	done     chan struct{}
	started  bool
	stopOnce sync.Once
}

// ReloaderOption configures a Reloader.
type ReloaderOption func(*Reloader)

// WithReloadLogger sets a logger for reload events.
func WithReloadLogger(l *zap.Logger) ReloaderOption {
	return func(r *Reloader) { r.logger = l }
}

// WithDebounce sets how long to wait after the last event before reloading.
func WithDebounce(d time.Duration) ReloaderOption {
	return func(r *Reloader) { r.debounce = d }
}

// WithReloadHook is called after every reload attempt with its result.
func WithReloadHook(fn func(err error)) ReloaderOption {
	return func(r *Reloader) { r.onReload = fn }
}

// NewReloader creates a reloader for the snapshot at path.
func NewReloader(store *Store, path string, opts ...ReloaderOption) *Reloader {
	r := &Reloader{
		store:    store,
		path:     filepath.Clean(path),
		debounce: defaultDebounce,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = utils.OrNop(r.logger)
	return r
}

// Start begins watching. It runs until ctx is cancelled or Stop is called.
func (r *Reloader) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(r.path)); err != nil {
		_ = w.Close()
		return err
	}
	r.watcher = w
	r.started = true
	r.logger.Debug("index reloader starting", zap.String("path", r.path))
	go r.run(ctx, w)
	return nil
}

func (r *Reloader) run(ctx context.Context, w *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			r.Stop()
			return
		case <-r.done:
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != r.path {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			r.logger.Debug("index snapshot changed", zap.String("op", ev.Op.String()))
			r.schedule(ctx)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			r.logger.Debug("index reloader error", zap.Error(err))
		}
	}
}

func (r *Reloader) schedule(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.debounce, func() {
		err := r.store.Reload(context.WithoutCancel(ctx))
		if err != nil {
			r.logger.Warn("index reload failed, keeping current index", zap.String("path", r.path), zap.Error(err))
		}
		if r.onReload != nil {
			r.onReload(err)
		}
	})
}

// Stop stops watching and cancels any pending reload.
func (r *Reloader) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	if r.timer != nil {
		r.timer.Stop()
	}
	_ = r.watcher.Close()
	r.watcher = nil
	r.started = false
	r.mu.Unlock()
	r.stopOnce.Do(func() { close(r.done) })
}
