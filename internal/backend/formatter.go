package backend

import (
	"bytes"
	"sync"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/transitlog/internal/constants"
	"github.com/hyp3rd/transitlog/internal/transit"
)

// Names of the built-in formatters.
const (
	TextFormatterName = "text"
	JSONFormatterName = "json"
)

// Formatter renders one decoded event into a format buffer. The worker
// owns both arguments: the event pointer is only valid for the duration
// of the call, and the buffer arrives reset.
type Formatter interface {
	Format(event *transit.Event, buf *bytes.Buffer) error
}

// FormatterOptions carries the rendering knobs shared by the built-in
// formatters. Formatters are constructed once at wiring time, so the
// options are captured, not referenced.
type FormatterOptions struct {
	// TimeFormat selects the timestamp rendering. Invalid values fall
	// back to constants.TimeFormatDefault.
	TimeFormat constants.TimeFormat
	// DisableTimestamp omits the timestamp entirely.
	DisableTimestamp bool
	// EnableColors wraps each rendered line in the ANSI color assigned
	// to its level. Only the text formatter honors it.
	EnableColors bool
	// LevelColors maps numeric levels to ANSI start sequences. Levels
	// without an entry render uncolored even when EnableColors is set.
	LevelColors map[uint8]string
}

// FormatterFactory builds a formatter from options.
type FormatterFactory func(opts FormatterOptions) Formatter

// FormatterRegistry manages the available formatter factories by name.
type FormatterRegistry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewFormatterRegistry creates an empty registry.
func NewFormatterRegistry() *FormatterRegistry {
	return &FormatterRegistry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory under the given name.
func (r *FormatterRegistry) Register(name string, factory FormatterFactory) error {
	if name == "" {
		return ewrap.New("formatter name cannot be empty")
	}

	if factory == nil {
		return ewrap.New("formatter factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return ewrap.Newf("formatter %q is already registered", name)
	}

	r.factories[name] = factory

	return nil
}

// MustRegister is like Register but panics on error. Intended for
// package init paths where a registration failure is a programming
// error.
func (r *FormatterRegistry) MustRegister(name string, factory FormatterFactory) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

// Get returns the factory registered under name.
func (r *FormatterRegistry) Get(name string) (FormatterFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.factories[name]
	if !exists {
		return nil, ewrap.Newf("formatter %q is not registered", name)
	}

	return factory, nil
}

// Names returns the registered formatter names in no particular order.
func (r *FormatterRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}

	return names
}

// DefaultFormatterRegistry returns the shared registry pre-populated
// with the built-in text and JSON formatters.
//
//nolint:gochecknoglobals // shared registry built once on first use.
var DefaultFormatterRegistry = sync.OnceValue(func() *FormatterRegistry {
	registry := NewFormatterRegistry()

	registry.MustRegister(TextFormatterName, func(opts FormatterOptions) Formatter {
		return NewTextFormatter(opts)
	})
	registry.MustRegister(JSONFormatterName, func(opts FormatterOptions) Formatter {
		return NewJSONFormatter(opts)
	})

	return registry
})
