// Package watcher reports debounced changes to individual files.
package watcher

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// DefaultDebounce is how long a file has to stay quiet before a change is
// reported.
const DefaultDebounce = 100 * time.Millisecond

// Watcher watches files by monitoring their parent directories, which keeps
// working when editors replace a file instead of writing it in place.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onChange func(path string)

	files   map[string]string
	dirs    map[string]struct{}
	pending map[string]*time.Timer
	running sync.WaitGroup

	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
	mu      sync.Mutex
}

// New creates a watcher that calls onChange with the path passed to Add once
// the file has been quiet for debounce. A non-positive debounce uses
// DefaultDebounce.
func New(debounce time.Duration, onChange func(path string)) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:  w,
		debounce: debounce,
		onChange: onChange,
		files:    make(map[string]string),
		dirs:     make(map[string]struct{}),
		pending:  make(map[string]*time.Timer),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Add starts watching path. The parent directory must exist.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.dirs[dir]; !ok {
		if err := w.watcher.Add(dir); err != nil {
			return err
		}
		w.dirs[dir] = struct{}{}
	}
	w.files[abs] = path

	log.Debug().Str("path", path).Str("dir", dir).Msg("watching file")
	return nil
}

// Start begins delivering changes.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()
	go w.run()
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.schedule(filepath.Clean(ev.Name))
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("file watcher error")
		}
	}
}

func (w *Watcher) schedule(abs string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	path, ok := w.files[abs]
	if !ok || w.stopped {
		return
	}
	if t, ok := w.pending[abs]; ok {
		t.Reset(w.debounce)
		return
	}
	w.pending[abs] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, abs)
		if w.stopped {
			w.mu.Unlock()
			return
		}
		w.running.Add(1)
		w.mu.Unlock()

		defer w.running.Done()
		w.onChange(path)
	})
}

// Stop stops the watcher. Pending changes are dropped and a change being
// delivered is waited for, so onChange is never running once Stop returns.
// Stop must not be called from onChange.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	started := w.started
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	for abs, t := range w.pending {
		t.Stop()
		delete(w.pending, abs)
	}
	w.mu.Unlock()

	close(w.stopCh)
	if started {
		<-w.doneCh
	}
	w.running.Wait()

	return w.watcher.Close()
}
