package backend

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/hyp3rd/ewrap"
	"github.com/trickstertwo/xclock"

	"github.com/hyp3rd/transitlog/internal/output"
	"github.com/hyp3rd/transitlog/internal/spsc"
	"github.com/hyp3rd/transitlog/internal/transit"
)

// Worker tuning defaults, applied by NewWorker when the corresponding
// Config field is zero.
const (
	// DefaultTransitCapacity is the initial event ring capacity.
	DefaultTransitCapacity = 128
	// DefaultFormatPoolCapacity is the initial format buffer pool size.
	DefaultFormatPoolCapacity = 2
	// DefaultPollInterval is how long the worker parks between polls of
	// an empty queue.
	DefaultPollInterval = 500 * time.Microsecond
)

// Config wires a Worker to its queue, sink, and formatter and tunes the
// staging structures.
type Config struct {
	// Queue is the record source. Required.
	Queue *spsc.BoundedQueue
	// Sink receives the formatted output. Required.
	Sink output.Sink
	// Formatter renders decoded events. Required.
	Formatter Formatter

	// TransitCapacity is the initial capacity of the event ring.
	TransitCapacity int
	// TransitDecayPeriod is how long ring occupancy must stay at or
	// below half capacity before the ring decays toward demand. Zero
	// disables decay.
	TransitDecayPeriod time.Duration
	// FormatPoolCapacity is the initial format buffer pool size.
	FormatPoolCapacity int
	// PollInterval is the park duration between polls of an empty
	// queue.
	PollInterval time.Duration

	// MetricsInterval is how often the worker pushes a metrics snapshot
	// to MetricsReporter. Zero disables reporting.
	MetricsInterval time.Duration
	// MetricsReporter receives periodic snapshots on the worker
	// goroutine; implementations must not block.
	MetricsReporter func(Metrics)
	// ErrorHandler receives decode, format, and write errors on the
	// worker goroutine. Nil drops the errors; the counters still track
	// them.
	ErrorHandler func(error)
}

// Worker is the single backend goroutine of the pipeline. It drains
// encoded records from the queue, stages the decoded events in the
// transit ring, formats them through pooled buffers, and writes the
// rendered output to the sink. Everything past the queue is owned by
// this goroutine alone, which is what lets the ring and pool skip
// synchronization entirely.
type Worker struct {
	queue     *spsc.BoundedQueue
	sink      output.Sink
	formatter Formatter

	ring *transit.EventRing
	pool *transit.FormatBufferPool

	decayPeriod     time.Duration
	pollInterval    time.Duration
	metricsInterval time.Duration
	metricsReporter func(Metrics)
	errorHandler    func(error)

	stopCh   chan struct{}
	flushCh  chan chan struct{}
	shrinkCh chan struct{}

	wg         sync.WaitGroup
	closeMutex sync.Mutex
	closed     bool

	decodedCount   atomic.Uint64
	writtenCount   atomic.Uint64
	corruptedCount atomic.Uint64
	formatErrors   atomic.Uint64
	writeErrors    atomic.Uint64

	ringSize     atomic.Int64
	ringCapacity atomic.Int64
	poolCapacity atomic.Int64

	// lastMetricsEmit is touched only by the worker goroutine.
	lastMetricsEmit time.Time
}

// Metrics is a point-in-time snapshot of the worker's counters and the
// staging structure gauges.
type Metrics struct {
	// Decoded counts records successfully decoded into the ring.
	Decoded uint64
	// Written counts events rendered and written to the sink.
	Written uint64
	// Corrupted counts records that failed structural validation.
	Corrupted uint64
	// FormatErrors counts formatter failures.
	FormatErrors uint64
	// WriteErrors counts sink write failures.
	WriteErrors uint64
	// RingSize is the staged event count at the last housekeeping pass.
	RingSize int
	// RingCapacity is the ring capacity at the last housekeeping pass.
	RingCapacity int
	// PoolCapacity is the format buffer pool capacity at the last
	// housekeeping pass.
	PoolCapacity int
}

// NewWorker validates cfg, applies defaults, and builds a worker. The
// worker does nothing until Start.
func NewWorker(cfg Config) (*Worker, error) {
	if cfg.Queue == nil {
		return nil, ewrap.New("worker requires a queue")
	}

	if cfg.Sink == nil {
		return nil, ewrap.New("worker requires a sink")
	}

	if cfg.Formatter == nil {
		return nil, ewrap.New("worker requires a formatter")
	}

	if cfg.TransitCapacity <= 0 {
		cfg.TransitCapacity = DefaultTransitCapacity
	}

	if cfg.FormatPoolCapacity <= 0 {
		cfg.FormatPoolCapacity = DefaultFormatPoolCapacity
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	worker := &Worker{
		queue:           cfg.Queue,
		sink:            cfg.Sink,
		formatter:       cfg.Formatter,
		ring:            transit.NewEventRing(cfg.TransitCapacity),
		pool:            transit.NewFormatBufferPool(cfg.FormatPoolCapacity),
		decayPeriod:     cfg.TransitDecayPeriod,
		pollInterval:    cfg.PollInterval,
		metricsInterval: cfg.MetricsInterval,
		metricsReporter: cfg.MetricsReporter,
		errorHandler:    cfg.ErrorHandler,
		stopCh:          make(chan struct{}),
		flushCh:         make(chan chan struct{}, 1),
		shrinkCh:        make(chan struct{}, 1),
	}

	worker.ringCapacity.Store(int64(worker.ring.Capacity()))
	worker.poolCapacity.Store(int64(worker.pool.Capacity()))

	return worker, nil
}

// Start launches the worker goroutine.
func (w *Worker) Start() {
	w.wg.Add(1)

	go w.run()
}

// Stop shuts the worker down, draining everything still queued before
// returning. Safe to call more than once.
func (w *Worker) Stop() {
	w.closeMutex.Lock()

	if w.closed {
		w.closeMutex.Unlock()

		return
	}

	w.closed = true
	w.closeMutex.Unlock()

	close(w.stopCh)
	w.wg.Wait()
}

// Flush blocks until every record queued before the call has been
// written to the sink and the sink has been synced, or until timeout.
func (w *Worker) Flush(timeout time.Duration) error {
	w.closeMutex.Lock()

	if w.closed {
		w.closeMutex.Unlock()

		return ErrWorkerStopped
	}

	w.closeMutex.Unlock()

	doneCh := make(chan struct{})

	select {
	case w.flushCh <- doneCh:
	case <-w.stopCh:
		return ErrWorkerStopped
	}

	select {
	case <-doneCh:
		return nil
	case <-w.stopCh:
		return ErrWorkerStopped
	case <-time.After(timeout):
		return ErrFlushTimeout
	}
}

// RequestShrink asks the worker to return the event ring to its initial
// capacity once the ring drains. The request never blocks; duplicate
// requests coalesce.
func (w *Worker) RequestShrink() {
	select {
	case w.shrinkCh <- struct{}{}:
	default:
	}
}

// Metrics returns a snapshot of the worker's counters. Safe to call
// from any goroutine.
func (w *Worker) Metrics() Metrics {
	return Metrics{
		Decoded:      w.decodedCount.Load(),
		Written:      w.writtenCount.Load(),
		Corrupted:    w.corruptedCount.Load(),
		FormatErrors: w.formatErrors.Load(),
		WriteErrors:  w.writeErrors.Load(),
		RingSize:     int(w.ringSize.Load()),
		RingCapacity: int(w.ringCapacity.Load()),
		PoolCapacity: int(w.poolCapacity.Load()),
	}
}

// run is the worker loop: pump everything available, then park on the
// poll timer until stopped, flushed, or the timer fires.
func (w *Worker) run() {
	defer w.wg.Done()

	timer := time.NewTimer(w.pollInterval)
	defer timer.Stop()

	for {
		worked := w.pump()

		select {
		case <-w.stopCh:
			w.shutdown()

			return
		case doneCh := <-w.flushCh:
			w.handleFlush(doneCh)

			continue
		default:
		}

		if worked {
			continue
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}

		timer.Reset(w.pollInterval)

		select {
		case <-w.stopCh:
			w.shutdown()

			return
		case doneCh := <-w.flushCh:
			w.handleFlush(doneCh)
		case <-timer.C:
		}
	}
}

// pump performs one full work cycle and reports whether anything moved.
func (w *Worker) pump() bool {
	worked := w.drainQueue()

	if w.dispatchEvents() {
		worked = true
	}

	w.housekeep()

	return worked
}

// drainQueue decodes every record currently readable from the queue
// into the ring. A record that fails validation is counted, reported,
// and skipped; when even its length prefix cannot be trusted the whole
// readable region is discarded to resynchronize with the producer.
func (w *Worker) drainQueue() bool {
	worked := false

	for {
		region := w.queue.PrepareRead()
		if region == nil {
			break
		}

		total, err := RecordSize(region)
		if err != nil {
			w.corruptedCount.Add(1)
			w.reportError(err)

			w.queue.FinishRead(len(region))
			w.queue.CommitRead()

			worked = true

			continue
		}

		event := w.ring.Back()

		if err := DecodeEvent(region[:total], event); err != nil {
			w.corruptedCount.Add(1)
			w.reportError(err)
		} else {
			w.ring.PushBack()
			w.decodedCount.Add(1)
		}

		w.queue.FinishRead(total)
		w.queue.CommitRead()

		worked = true
	}

	return worked
}

// dispatchEvents formats and writes every staged event in arrival
// order.
func (w *Worker) dispatchEvents() bool {
	worked := false

	for {
		event := w.ring.Front()
		if event == nil {
			break
		}

		w.writeEvent(event)
		w.ring.PopFront()

		worked = true
	}

	return worked
}

// writeEvent renders one event through a pooled buffer into the sink.
func (w *Worker) writeEvent(event *transit.Event) {
	buf := w.pool.Borrow()
	defer w.pool.Return(buf)

	if err := w.formatter.Format(event, buf); err != nil {
		w.formatErrors.Add(1)
		w.reportError(ewrap.Wrap(err, "formatting event"))

		return
	}

	if _, err := w.sink.Write(buf.Bytes()); err != nil {
		w.writeErrors.Add(1)
		w.reportError(ewrap.Wrap(err, "writing formatted event"))

		return
	}

	w.writtenCount.Add(1)
}

// housekeep runs the per-cycle maintenance: apply pending shrink
// requests, let the ring decay toward demand, refresh the gauges, and
// emit metrics when the interval has elapsed.
func (w *Worker) housekeep() {
	select {
	case <-w.shrinkCh:
		w.ring.RequestShrink()
	default:
	}

	now := xclock.Now()

	w.ring.UpdateSize(now, w.decayPeriod)
	w.ring.TryShrink()

	w.ringSize.Store(int64(w.ring.Size()))
	w.ringCapacity.Store(int64(w.ring.Capacity()))
	w.poolCapacity.Store(int64(w.pool.Capacity()))

	w.maybeReportMetrics(now)
}

func (w *Worker) maybeReportMetrics(now time.Time) {
	if w.metricsReporter == nil || w.metricsInterval <= 0 {
		return
	}

	if w.lastMetricsEmit.IsZero() {
		w.lastMetricsEmit = now

		return
	}

	if now.Sub(w.lastMetricsEmit) < w.metricsInterval {
		return
	}

	w.lastMetricsEmit = now
	w.metricsReporter(w.Metrics())
}

// handleFlush drains until both the queue and the ring are empty, syncs
// the sink, and signals the waiting flusher.
func (w *Worker) handleFlush(doneCh chan struct{}) {
	w.drainAll()

	if err := w.sink.Sync(); err != nil {
		w.writeErrors.Add(1)
		w.reportError(ewrap.Wrap(err, "syncing sink during flush"))
	}

	close(doneCh)
}

// shutdown performs the final drain after stop: everything queued
// before Stop is decoded, written, and synced before the goroutine
// exits. A flush that raced the stop is released as completed, since
// the drain subsumes it.
func (w *Worker) shutdown() {
	w.drainAll()

	if err := w.sink.Sync(); err != nil {
		w.writeErrors.Add(1)
		w.reportError(ewrap.Wrap(err, "syncing sink during shutdown"))
	}

	select {
	case doneCh := <-w.flushCh:
		close(doneCh)
	default:
	}
}

// drainAll alternates queue drain and event dispatch until a full pass
// moves nothing.
func (w *Worker) drainAll() {
	for {
		drained := w.drainQueue()
		dispatched := w.dispatchEvents()

		if !drained && !dispatched {
			break
		}
	}

	w.housekeep()
}

func (w *Worker) reportError(err error) {
	if w.errorHandler != nil {
		w.errorHandler(err)
	}
}
