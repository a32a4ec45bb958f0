package transitlog

import (
	"context"
	"sync"

	"github.com/hyp3rd/transitlog/internal/constants"
)

// BackendMetrics represents health metrics emitted by the transit pipeline.
type BackendMetrics struct {
	// Producer-side counters.
	Enqueued uint64
	Dropped  uint64
	Flushes  uint64

	// Backend worker counters.
	Decoded      uint64
	Written      uint64
	Corrupted    uint64
	FormatErrors uint64
	WriteErrors  uint64

	// Gauges sampled from the staging buffers.
	RingSize     int
	RingCapacity int
	PoolCapacity int
}

// BackendMetricsHandler receives transit pipeline metrics.
type BackendMetricsHandler func(context.Context, BackendMetrics)

//nolint:gochecknoglobals // backend metrics use a package-level registry for global handlers.
var backendMetricsRegistryOnce = sync.OnceValue(func() *backendMetricsHandlerRegistry {
	return &backendMetricsHandlerRegistry{}
})

// RegisterMetricsHandler adds a global handler invoked when backend metrics are emitted.
func RegisterMetricsHandler(handler BackendMetricsHandler) {
	if handler == nil {
		return
	}

	backendMetricsRegistryOnce().register(handler)
}

// ClearMetricsHandlers removes all registered backend metrics handlers.
func ClearMetricsHandlers() {
	backendMetricsRegistryOnce().reset()
}

// EmitBackendMetrics notifies global handlers with the provided metrics snapshot.
func EmitBackendMetrics(ctx context.Context, metrics BackendMetrics) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultTimeout)
	defer cancel()

	backendMetricsRegistryOnce().emit(ctx, metrics)
}

type backendMetricsHandlerRegistry struct {
	mu       sync.RWMutex
	handlers []BackendMetricsHandler
}

func (r *backendMetricsHandlerRegistry) register(handler BackendMetricsHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers = append(r.handlers, handler)
}

func (r *backendMetricsHandlerRegistry) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers = nil
}

func (r *backendMetricsHandlerRegistry) emit(ctx context.Context, metrics BackendMetrics) {
	handlers := r.snapshot()
	for _, handler := range handlers {
		handler(ctx, metrics)
	}
}

func (r *backendMetricsHandlerRegistry) snapshot() []BackendMetricsHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.handlers) == 0 {
		return nil
	}

	clone := make([]BackendMetricsHandler, len(r.handlers))
	copy(clone, r.handlers)

	return clone
}
