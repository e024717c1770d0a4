package offsetconfig

import (
	"path/filepath"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/offsetmonkey538/offsetconfig/internal/logging"
	"github.com/offsetmonkey538/offsetconfig/internal/metrics"
	"github.com/offsetmonkey538/offsetconfig/internal/storage"
	"github.com/offsetmonkey538/offsetconfig/internal/watcher"
	"github.com/offsetmonkey538/offsetconfig/pkg/document"
	"github.com/offsetmonkey538/offsetconfig/pkg/event"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// FileSystem is the file access the Manager needs. *storage.Disk implements
// it.
type FileSystem interface {
	Exists(path string) bool
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
	Copy(src, dst string) error
	MkdirAll(dir string) error
}

// Manager loads, migrates and saves configs and keeps track of every holder
// it initialized.
type Manager struct {
	mu            sync.RWMutex
	holders       map[string]Handle
	locks         map[string]*sync.Mutex
	configurators []Configurator

	dir      string
	fs       FileSystem
	log      zerolog.Logger
	bus      *event.Bus
	metrics  *metrics.Registry
	now      func() time.Time
	debounce time.Duration

	writtenMu sync.Mutex
	written   map[string][]byte
}

// Option configures a Manager.
type Option func(*Manager)

// WithDir sets the directory configs without their own path are stored in.
func WithDir(dir string) Option {
	return func(m *Manager) {
		m.dir = dir
	}
}

// WithFileSystem replaces the local disk.
func WithFileSystem(fs FileSystem) Option {
	return func(m *Manager) {
		m.fs = fs
	}
}

// WithLogger sets the logger lifecycle messages go to.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.log = logger
	}
}

// WithBus publishes lifecycle events on bus.
func WithBus(bus *event.Bus) Option {
	return func(m *Manager) {
		m.bus = bus
	}
}

// WithRegisterer registers the lifecycle counters with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(m *Manager) {
		m.metrics = metrics.New(reg)
	}
}

// WithClock sets the time source used for backup names.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithWatchDebounce sets how long Watch waits for a file to settle.
func WithWatchDebounce(d time.Duration) Option {
	return func(m *Manager) {
		m.debounce = d
	}
}

// NewManager creates a Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		holders:  make(map[string]Handle),
		locks:    make(map[string]*sync.Mutex),
		dir:      DefaultDir,
		fs:       storage.New(),
		log:      logging.Component("offsetconfig"),
		now:      time.Now,
		debounce: watcher.DefaultDebounce,
		written:  make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var (
	defaultOnce    sync.Once
	defaultManager *Manager
)

// Default returns the process-wide Manager, created on first use.
func Default() *Manager {
	defaultOnce.Do(func() {
		defaultManager = NewManager()
	})
	return defaultManager
}

// Register creates a holder for factory, initializes it with m and returns
// it.
func Register[T Config](m *Manager, factory func() T, handler ErrorHandler) *Holder[T] {
	h := NewHolder(factory, handler)
	m.Initialize(h)
	return h
}

// Lookup returns the holder registered under id if it holds a T. A holder
// of another type is reported through its error handler and not returned.
func Lookup[T Config](m *Manager, id string) (*Holder[T], bool) {
	h, ok := m.Get(id)
	if !ok {
		return nil, false
	}
	typed, ok := h.(*Holder[T])
	if !ok {
		err := &TypeMismatchError{ID: id, Expected: reflect.TypeOf((*T)(nil)).Elem(), Got: h.Type()}
		h.ErrorHandler().Log("config '%s' was requested as %s but holds %s", err, id, err.Expected, err.Got)
		return nil, false
	}
	return typed, true
}

// OnConfigure appends c to the configurators run for every serializer.
func (m *Manager) OnConfigure(c Configurator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configurators = append(m.configurators, c)
}

// Dir returns the default config directory.
func (m *Manager) Dir() string {
	return m.dir
}

// PathOf returns where h's config is stored.
func (m *Manager) PathOf(h Handle) string {
	return PathOf(h.Current(), m.dir)
}

// Get returns the holder registered under id.
func (m *Manager) Get(id string) (Handle, bool) {
	m.mu.RLock()
	h, ok := m.holders[id]
	m.mu.RUnlock()

	if !ok {
		ev := m.log.Debug().Str("id", id)
		if s := m.Suggest(id); s != "" {
			ev = ev.Str("suggestion", s)
		}
		ev.Msg("config not found")
	}
	return h, ok
}

// Holders returns a snapshot of all registered holders sorted by id.
func (m *Manager) Holders() []Handle {
	m.mu.RLock()
	out := make([]Handle, 0, len(m.holders))
	for _, h := range m.holders {
		out = append(out, h)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].ID() < out[j].ID()
	})
	return out
}

// Suggest returns the registered id closest to id, or "" when none is close.
func (m *Manager) Suggest(id string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	best, bestDist := "", -1
	for candidate := range m.holders {
		d := levenshtein.ComputeDistance(id, candidate)
		if bestDist < 0 || d < bestDist || (d == bestDist && candidate < best) {
			best, bestDist = candidate, d
		}
	}
	limit := len(id) / 3
	if limit < 2 {
		limit = 2
	}
	if bestDist < 0 || bestDist > limit {
		return ""
	}
	return best
}

func (m *Manager) registered(h Handle) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.holders[h.ID()] == h
}

func (m *Manager) lockFor(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	return l
}

func (m *Manager) serializer(c Config, path string) *document.Serializer {
	b := document.NewBuilder().Format(document.FormatFor(path))

	m.mu.RLock()
	configurators := append([]Configurator(nil), m.configurators...)
	m.mu.RUnlock()

	for _, configure := range configurators {
		configure(b)
	}
	if sc, ok := c.(SerializerConfigurer); ok {
		sc.ConfigureSerializer(b)
	}
	return b.Build()
}

func (m *Manager) publish(t event.EventType, data any) {
	if m.bus == nil {
		return
	}
	m.bus.PublishSync(event.Event{Type: t, Data: data})
}

func (m *Manager) remember(path string, data []byte) {
	m.writtenMu.Lock()
	defer m.writtenMu.Unlock()
	m.written[filepath.Clean(path)] = append([]byte(nil), data...)
}

func (m *Manager) lastWritten(path string) []byte {
	m.writtenMu.Lock()
	defer m.writtenMu.Unlock()
	return m.written[filepath.Clean(path)]
}

func handlerOr(handler ErrorHandler, h Handle) ErrorHandler {
	if handler != nil {
		return handler
	}
	return h.ErrorHandler()
}
