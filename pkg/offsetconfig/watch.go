package offsetconfig

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"

	"github.com/offsetmonkey538/offsetconfig/internal/watcher"
)

// Watch reloads the given holders whenever their files change on disk. With
// no holders it watches every registered one. Writes made by the Manager
// itself are ignored. Watching stops when ctx is done or stop is called.
func (m *Manager) Watch(ctx context.Context, handles ...Handle) (stop func() error, err error) {
	if len(handles) == 0 {
		handles = m.Holders()
	}

	byPath := make(map[string]Handle, len(handles))
	w, err := watcher.New(m.debounce, func(path string) {
		m.reload(byPath[path])
	})
	if err != nil {
		return nil, err
	}

	for _, h := range handles {
		path := filepath.Clean(m.PathOf(h))
		byPath[path] = h
		if err := w.Add(path); err != nil {
			w.Stop()
			return nil, &IOError{Op: "watch", Path: path, Err: err}
		}
	}
	w.Start()

	done := make(chan struct{})
	var once sync.Once
	var stopErr error
	stop = func() error {
		once.Do(func() {
			close(done)
			stopErr = w.Stop()
		})
		return stopErr
	}

	go func() {
		select {
		case <-ctx.Done():
			stop()
		case <-done:
		}
	}()

	m.log.Debug().Int("configs", len(handles)).Msg("watching config files")
	return stop, nil
}

func (m *Manager) reload(h Handle) {
	if h == nil {
		return
	}
	path := filepath.Clean(m.PathOf(h))
	data, err := m.fs.ReadFile(path)
	if err != nil {
		// Load reports the read failure.
		m.Load(h)
		return
	}
	if last := m.lastWritten(path); last != nil && bytes.Equal(data, last) {
		return
	}

	m.log.Info().Str("id", h.ID()).Str("path", path).Msg("config file changed, reloading")
	m.Load(h)
}
