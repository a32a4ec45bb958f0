package transitlog

import (
	"context"
	"sync"

	"github.com/hyp3rd/transitlog/internal/constants"
)

// contextExtractorRegistry holds the process-wide extractors applied on
// top of the per-logger ones.
type contextExtractorRegistry struct {
	mu         sync.RWMutex
	extractors []ContextExtractor
}

//nolint:gochecknoglobals // one registry per process keeps extractor state consistent.
var contextExtractorRegistryOnce = sync.OnceValue(func() *contextExtractorRegistry {
	return &contextExtractorRegistry{}
})

func (r *contextExtractorRegistry) register(extractor ContextExtractor) {
	if extractor == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.extractors = append(r.extractors, extractor)
}

func (r *contextExtractorRegistry) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.extractors = nil
}

func (r *contextExtractorRegistry) snapshot() []ContextExtractor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.extractors) == 0 {
		return nil
	}

	cloned := make([]ContextExtractor, len(r.extractors))
	copy(cloned, r.extractors)

	return cloned
}

type contextField struct {
	name string
	key  any
}

//nolint:gochecknoglobals // the key ordering is computed once from the constants package.
var contextFieldsOnce = sync.OnceValue(func() []contextField {
	names := make(map[any]string, len(constants.ContextKeyMap()))
	for name, key := range constants.ContextKeyMap() {
		names[key] = name
	}

	keys := constants.ContextKeys()
	ordered := make([]contextField, 0, len(keys))

	for _, key := range keys {
		ordered = append(ordered, contextField{name: names[key], key: key})
	}

	return ordered
})

// DefaultContextExtractor pulls the well-known request-scoped values
// out of the context: trace and request identifiers, service,
// component, user, and session.
func DefaultContextExtractor(ctx context.Context) []Field {
	var fields []Field

	for _, candidate := range contextFieldsOnce() {
		if value := ctx.Value(candidate.key); value != nil {
			fields = append(fields, Field{Key: candidate.name, Value: value})
		}
	}

	return fields
}

// RegisterContextExtractor adds a process-wide extractor applied by
// every logger's WithContext.
func RegisterContextExtractor(extractor ContextExtractor) {
	contextExtractorRegistryOnce().register(extractor)
}

// ClearContextExtractors drops every registered process-wide extractor.
func ClearContextExtractors() {
	contextExtractorRegistryOnce().reset()
}

// GlobalContextExtractors returns a copy of the registered process-wide
// extractors.
func GlobalContextExtractors() []ContextExtractor {
	return contextExtractorRegistryOnce().snapshot()
}

// ApplyContextExtractors runs the extractors against the context and
// concatenates whatever they produce. Nil extractors are skipped.
func ApplyContextExtractors(ctx context.Context, extractors ...ContextExtractor) []Field {
	if len(extractors) == 0 {
		return nil
	}

	var fields []Field

	for _, extractor := range extractors {
		if extractor == nil {
			continue
		}

		if extracted := extractor(ctx); len(extracted) > 0 {
			fields = append(fields, extracted...)
		}
	}

	return fields
}
