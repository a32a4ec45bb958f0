package backend

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyp3rd/transitlog/internal/transit"
)

func TestFormatterRegistryRegister(t *testing.T) {
	factory := func(opts FormatterOptions) Formatter {
		return NewTextFormatter(opts)
	}

	tests := []struct {
		name        string
		formatter   string
		factory     FormatterFactory
		wantErr     bool
		errContains string
	}{
		{
			name:      "valid registration",
			formatter: "custom",
			factory:   factory,
		},
		{
			name:        "empty name",
			formatter:   "",
			factory:     factory,
			wantErr:     true,
			errContains: "empty",
		},
		{
			name:        "nil factory",
			formatter:   "broken",
			factory:     nil,
			wantErr:     true,
			errContains: "nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewFormatterRegistry()

			err := registry.Register(tt.formatter, tt.factory)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)

				return
			}

			require.NoError(t, err)

			got, err := registry.Get(tt.formatter)
			require.NoError(t, err)
			assert.NotNil(t, got)
		})
	}
}

func TestFormatterRegistryDuplicate(t *testing.T) {
	registry := NewFormatterRegistry()

	factory := func(opts FormatterOptions) Formatter {
		return NewTextFormatter(opts)
	}

	require.NoError(t, registry.Register("dup", factory))

	err := registry.Register("dup", factory)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestFormatterRegistryGetUnknown(t *testing.T) {
	registry := NewFormatterRegistry()

	_, err := registry.Get("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestDefaultFormatterRegistry(t *testing.T) {
	registry := DefaultFormatterRegistry()

	for _, name := range []string{TextFormatterName, JSONFormatterName} {
		factory, err := registry.Get(name)
		require.NoError(t, err)

		formatter := factory(FormatterOptions{})
		assert.NotNil(t, formatter)
	}

	assert.ElementsMatch(t, []string{TextFormatterName, JSONFormatterName}, registry.Names())
}

func TestFormatterRegistryMustRegisterPanics(t *testing.T) {
	registry := NewFormatterRegistry()

	assert.Panics(t, func() {
		registry.MustRegister("", nil)
	})
}

func formatEvent(t *testing.T, formatter Formatter, event *transit.Event) string {
	t.Helper()

	var buf bytes.Buffer

	require.NoError(t, formatter.Format(event, &buf))

	return buf.String()
}
