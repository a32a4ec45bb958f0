package transitlog

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatherValues(t *testing.T, registry *prometheus.Registry) map[string]float64 {
	t.Helper()

	families, err := registry.Gather()
	require.NoError(t, err)

	values := make(map[string]float64)

	for _, family := range families {
		for _, metric := range family.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				values[family.GetName()] = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				values[family.GetName()] = metric.GetGauge().GetValue()
			}
		}
	}

	return values
}

func TestPrometheusExporterObserve(t *testing.T) {
	registry := prometheus.NewRegistry()
	exporter := NewPrometheusExporter(registry)

	exporter.Observe(context.Background(), BackendMetrics{
		Enqueued:     10,
		Dropped:      2,
		Flushes:      1,
		Decoded:      9,
		Written:      8,
		Corrupted:    1,
		FormatErrors: 0,
		WriteErrors:  0,
		RingSize:     4,
		RingCapacity: 16,
		PoolCapacity: 2,
	})

	values := gatherValues(t, registry)

	assert.InDelta(t, 10, values["transitlog_backend_enqueued_total"], 0)
	assert.InDelta(t, 2, values["transitlog_backend_dropped_total"], 0)
	assert.InDelta(t, 1, values["transitlog_backend_flushes_total"], 0)
	assert.InDelta(t, 9, values["transitlog_backend_decoded_total"], 0)
	assert.InDelta(t, 8, values["transitlog_backend_written_total"], 0)
	assert.InDelta(t, 1, values["transitlog_backend_corrupted_total"], 0)
	assert.InDelta(t, 4, values["transitlog_backend_ring_events"], 0)
	assert.InDelta(t, 16, values["transitlog_backend_ring_capacity"], 0)
	assert.InDelta(t, 2, values["transitlog_backend_format_pool_capacity"], 0)
}

func TestPrometheusExporterCountersAdvanceByDelta(t *testing.T) {
	registry := prometheus.NewRegistry()
	exporter := NewPrometheusExporter(registry)

	exporter.Observe(context.Background(), BackendMetrics{Enqueued: 10, RingCapacity: 16})
	exporter.Observe(context.Background(), BackendMetrics{Enqueued: 15, RingCapacity: 8})

	values := gatherValues(t, registry)

	assert.InDelta(t, 15, values["transitlog_backend_enqueued_total"], 0)
	assert.InDelta(t, 8, values["transitlog_backend_ring_capacity"], 0)
}

func TestPrometheusExporterHandlesSourceRestart(t *testing.T) {
	registry := prometheus.NewRegistry()
	exporter := NewPrometheusExporter(registry)

	exporter.Observe(context.Background(), BackendMetrics{Enqueued: 10})
	// A lower value than the previous snapshot means a fresh pipeline.
	exporter.Observe(context.Background(), BackendMetrics{Enqueued: 3})

	values := gatherValues(t, registry)

	assert.InDelta(t, 13, values["transitlog_backend_enqueued_total"], 0)
}

func TestPrometheusExporterIntegratesWithHandlers(t *testing.T) {
	ClearMetricsHandlers()
	t.Cleanup(ClearMetricsHandlers)

	registry := prometheus.NewRegistry()
	exporter := NewPrometheusExporter(registry)
	RegisterMetricsHandler(exporter.Observe)

	EmitBackendMetrics(context.Background(), BackendMetrics{Written: 42})

	values := gatherValues(t, registry)
	assert.InDelta(t, 42, values["transitlog_backend_written_total"], 0)
}
