package transitlog

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "transitlog"
	metricsSubsystem = "backend"
)

// PrometheusExporter bridges backend metrics snapshots into Prometheus
// collectors. Register the Observe method with RegisterMetricsHandler
// and serve the registry with promhttp.
type PrometheusExporter struct {
	mu   sync.Mutex
	last BackendMetrics

	enqueued     prometheus.Counter
	dropped      prometheus.Counter
	flushes      prometheus.Counter
	decoded      prometheus.Counter
	written      prometheus.Counter
	corrupted    prometheus.Counter
	formatErrors prometheus.Counter
	writeErrors  prometheus.Counter

	ringSize     prometheus.Gauge
	ringCapacity prometheus.Gauge
	poolCapacity prometheus.Gauge
}

// NewPrometheusExporter creates an exporter and registers its metrics
// with the given registerer. A nil registerer falls back to the default
// Prometheus registerer.
func NewPrometheusExporter(registerer prometheus.Registerer) *PrometheusExporter {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registerer)

	return &PrometheusExporter{
		enqueued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "enqueued_total",
			Help:      "Total log entries enqueued by producers",
		}),
		dropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "dropped_total",
			Help:      "Total log entries dropped at enqueue",
		}),
		flushes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "flushes_total",
			Help:      "Total explicit flushes completed",
		}),
		decoded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "decoded_total",
			Help:      "Total records decoded into the transit ring",
		}),
		written: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "written_total",
			Help:      "Total events written to the sink",
		}),
		corrupted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "corrupted_total",
			Help:      "Total corrupt records discarded by the worker",
		}),
		formatErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "format_errors_total",
			Help:      "Total formatter failures",
		}),
		writeErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "write_errors_total",
			Help:      "Total sink write failures",
		}),
		ringSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "ring_events",
			Help:      "Events currently staged in the transit ring",
		}),
		ringCapacity: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "ring_capacity",
			Help:      "Current transit ring capacity",
		}),
		poolCapacity: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "format_pool_capacity",
			Help:      "Format buffer pool slot count",
		}),
	}
}

// Observe records a metrics snapshot. Counters advance by the delta
// from the previous snapshot so rate queries stay meaningful.
func (e *PrometheusExporter) Observe(_ context.Context, metrics BackendMetrics) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.enqueued.Add(counterDelta(metrics.Enqueued, e.last.Enqueued))
	e.dropped.Add(counterDelta(metrics.Dropped, e.last.Dropped))
	e.flushes.Add(counterDelta(metrics.Flushes, e.last.Flushes))
	e.decoded.Add(counterDelta(metrics.Decoded, e.last.Decoded))
	e.written.Add(counterDelta(metrics.Written, e.last.Written))
	e.corrupted.Add(counterDelta(metrics.Corrupted, e.last.Corrupted))
	e.formatErrors.Add(counterDelta(metrics.FormatErrors, e.last.FormatErrors))
	e.writeErrors.Add(counterDelta(metrics.WriteErrors, e.last.WriteErrors))

	e.ringSize.Set(float64(metrics.RingSize))
	e.ringCapacity.Set(float64(metrics.RingCapacity))
	e.poolCapacity.Set(float64(metrics.PoolCapacity))

	e.last = metrics
}

// counterDelta handles snapshot resets: a current value below the last
// one means the source restarted, so the whole value is new.
func counterDelta(current, last uint64) float64 {
	if current < last {
		return float64(current)
	}

	return float64(current - last)
}
