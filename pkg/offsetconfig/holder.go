package offsetconfig

import (
	"reflect"
	"sync"
)

// Handle is the type-erased view of a Holder the Manager works with.
type Handle interface {
	// ID returns the id of the held config.
	ID() string
	// Type returns the dynamic type of the default instance.
	Type() reflect.Type
	// Current returns the held config.
	Current() Config
	// ErrorHandler returns the handler bound to the holder.
	ErrorHandler() ErrorHandler
	// Reset replaces the held config with a default instance.
	Reset()

	decodeNew(decode func(target any) error) (Config, error)
	replace(c Config)
}

// Holder owns the live instance of one config. The instance is replaced
// wholesale on every load; never keep the value returned by Get around,
// keep the holder.
type Holder[T Config] struct {
	mu      sync.RWMutex
	factory func() T
	handler ErrorHandler
	typ     reflect.Type
	current T
}

// NewHolder creates a holder holding factory(). A nil handler reports to
// Stderr.
func NewHolder[T Config](factory func() T, handler ErrorHandler) *Holder[T] {
	if handler == nil {
		handler = Stderr
	}
	current := factory()
	return &Holder[T]{
		factory: factory,
		handler: handler,
		typ:     reflect.TypeOf(current),
		current: current,
	}
}

// Get returns the held config.
func (h *Holder[T]) Get() T {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Current returns the held config as a Config.
func (h *Holder[T]) Current() Config {
	return h.Get()
}

// Set replaces the held config. A nil value resets it to defaults.
func (h *Holder[T]) Set(v T) {
	if isNil(v) {
		v = h.factory()
	}
	h.mu.Lock()
	h.current = v
	h.mu.Unlock()
}

// Reset replaces the held config with a fresh default instance.
func (h *Holder[T]) Reset() {
	h.Set(h.factory())
}

// ID returns the id of the held config.
func (h *Holder[T]) ID() string {
	return h.Get().ID()
}

// Type returns the dynamic type of the default instance.
func (h *Holder[T]) Type() reflect.Type {
	return h.typ
}

// ErrorHandler returns the handler bound to h.
func (h *Holder[T]) ErrorHandler() ErrorHandler {
	return h.handler
}

// String returns the id of the held config.
func (h *Holder[T]) String() string {
	return h.ID()
}

// decodeNew decodes into a fresh default instance so fields missing from
// the document keep their defaults.
func (h *Holder[T]) decodeNew(decode func(target any) error) (Config, error) {
	v := h.factory()
	if err := decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func (h *Holder[T]) replace(c Config) {
	h.Set(c.(T))
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
