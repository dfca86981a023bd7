package config

import (
	"context"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher notifies registered callbacks whenever a watched file is
// written to. One Watcher can back multiple Watch calls (watching more
// than one path) and multiple OnChange callbacks.
type Watcher struct {
	fsw *fsnotify.Watcher

	mu        sync.Mutex
	callbacks []func()
	watching  map[string]bool
	done      chan struct{}
	closeOnce sync.Once
}

// NewWatcher starts the underlying fsnotify watcher and its event loop.
func NewWatcher() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{fsw: fsw, watching: make(map[string]bool), done: make(chan struct{})}
	go w.loop()
	return w, nil
}

// OnChange registers cb to run on every write event for any watched
// path.
func (w *Watcher) OnChange(cb func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Watch adds path to the set of watched files. Calling Watch again for
// a path already being watched is a no-op. Watching stops automatically
// when ctx is canceled.
func (w *Watcher) Watch(ctx context.Context, path string) error {
	w.mu.Lock()
	already := w.watching[path]
	if !already {
		w.watching[path] = true
	}
	w.mu.Unlock()
	if already {
		return nil
	}
	if err := w.fsw.Add(path); err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		_ = w.fsw.Remove(path)
	}()
	return nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.notify()
			}
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) notify() {
	w.mu.Lock()
	cbs := make([]func(), len(w.callbacks))
	copy(cbs, w.callbacks)
	w.mu.Unlock()
	for _, cb := range cbs {
		cb()
	}
}

// Close stops the event loop and releases the underlying fsnotify
// watcher. Safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
	})
	return err
}
