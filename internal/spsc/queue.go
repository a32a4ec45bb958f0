// Package spsc provides the bounded single-producer/single-consumer
// byte queue that carries encoded log records from the frontend to the
// backend worker. It is the only synchronized structure in the
// pipeline: everything downstream of it is owned by the worker alone.
package spsc

import (
	"sync/atomic"

	"github.com/hyp3rd/transitlog/internal/utils"
)

// DefaultReaderStorePercent is the share of the queue capacity the
// consumer may drain before it publishes its position to the producer.
// Batching the publication keeps the shared reader position off the
// consumer's hot path.
const DefaultReaderStorePercent = 5

// BoundedQueue is a bounded SPSC byte ring. Records are written and
// read as contiguous byte regions: the backing storage is allocated at
// twice the queue capacity so a record that would wrap the ring instead
// spills into the slack half, which spares both sides any split-record
// handling. A record can never exceed the queue capacity.
//
// Position counters are monotonic. Each side works on its own local
// position and a cached copy of the other side's published position,
// touching the shared atomics only when the cache runs out of slack.
type BoundedQueue struct {
	capacity      uint64
	mask          uint64
	bytesPerBatch uint64
	storage       []byte

	// Producer side. writerPos is the producer's local position;
	// readerPosCache is its last view of the consumer's progress.
	atomicWriterPos atomic.Uint64
	writerPos       uint64
	readerPosCache  uint64

	// Keep the two sides' mutable state on separate cache lines.
	_ [64]byte

	// Consumer side.
	atomicReaderPos atomic.Uint64
	readerPos       uint64
	writerPosCache  uint64
}

// NewBoundedQueue creates a queue of the requested capacity rounded up
// to the next power of two. readerStorePercent tunes how much progress
// the consumer batches before publishing; values outside (0, 100] fall
// back to DefaultReaderStorePercent.
func NewBoundedQueue(capacity, readerStorePercent int) *BoundedQueue {
	if readerStorePercent <= 0 || readerStorePercent > 100 {
		readerStorePercent = DefaultReaderStorePercent
	}

	rounded := uint64(utils.NextPowerOfTwo(capacity))

	return &BoundedQueue{
		capacity:      rounded,
		mask:          rounded - 1,
		bytesPerBatch: rounded * uint64(readerStorePercent) / 100,
		storage:       make([]byte, 2*rounded),
	}
}

// PrepareWrite reserves a contiguous region of n bytes and returns it,
// or nil when the queue does not currently have the space. The region
// stays private to the producer until CommitWrite publishes it. A
// request larger than the queue capacity can never succeed; callers
// must check Capacity first and treat such records as errors.
func (q *BoundedQueue) PrepareWrite(n int) []byte {
	need := uint64(n)

	if q.capacity-(q.writerPos-q.readerPosCache) < need {
		// Stale cache: reload the consumer's published position and
		// check once more.
		q.readerPosCache = q.atomicReaderPos.Load()

		if q.capacity-(q.writerPos-q.readerPosCache) < need {
			return nil
		}
	}

	offset := q.writerPos & q.mask

	return q.storage[offset : offset+need]
}

// FinishWrite marks n bytes of the region returned by PrepareWrite as
// written. Several writes may be finished before a single CommitWrite.
func (q *BoundedQueue) FinishWrite(n int) {
	q.writerPos += uint64(n)
}

// CommitWrite publishes every finished write to the consumer.
func (q *BoundedQueue) CommitWrite() {
	q.atomicWriterPos.Store(q.writerPos)
}

// FinishAndCommitWrite finishes and publishes a write in one call.
func (q *BoundedQueue) FinishAndCommitWrite(n int) {
	q.FinishWrite(n)
	q.CommitWrite()
}

// PrepareRead returns the unread region starting at the oldest byte, or
// nil when the queue is empty. The slice is guaranteed to contain at
// least the next complete record, because records are written
// contiguously and never exceed the queue capacity. Consumers must
// decode one record at a time and advance with FinishRead; consecutive
// records are not necessarily adjacent in storage.
func (q *BoundedQueue) PrepareRead() []byte {
	if q.Empty() {
		return nil
	}

	offset := q.readerPos & q.mask
	span := min(q.writerPosCache-q.readerPos, 2*q.capacity-offset)

	return q.storage[offset : offset+span]
}

// FinishRead consumes n bytes of the region returned by PrepareRead.
func (q *BoundedQueue) FinishRead(n int) {
	q.readerPos += uint64(n)
}

// CommitRead publishes the consumer's progress once a full batch has
// accumulated, or immediately when the queue has drained empty so an
// idle queue never pins stale space against the producer.
func (q *BoundedQueue) CommitRead() {
	if q.readerPos-q.atomicReaderPos.Load() >= q.bytesPerBatch || q.Empty() {
		q.atomicReaderPos.Store(q.readerPos)
	}
}

// Empty reports whether the consumer has nothing left to read. Only the
// consumer may call it.
func (q *BoundedQueue) Empty() bool {
	if q.writerPosCache == q.readerPos {
		q.writerPosCache = q.atomicWriterPos.Load()

		if q.writerPosCache == q.readerPos {
			return true
		}
	}

	return false
}

// Capacity reports the usable queue capacity in bytes.
func (q *BoundedQueue) Capacity() int {
	return int(q.capacity)
}
