package transit

import (
	"time"

	"github.com/hyp3rd/transitlog/internal/utils"
)

// EventRing is the growable circular queue of event descriptors staged
// between decode and format. The decoder writes into the slot returned
// by Back and commits with PushBack; the dispatch loop inspects Front
// and commits with PopFront. Capacity is always a power of two and
// changes in exactly three places: doubling when a write finds the ring
// full, decaying toward recent demand in UpdateSize, and dropping back
// to the initial capacity after an explicit shrink request.
//
// Positions are unbounded monotonic counters; size is their difference
// and slot index is position & mask, which keeps reindexing during a
// reallocation trivial. The ring is single-goroutine by design: every
// method must be called from the worker that owns it.
type EventRing struct {
	initialCapacity   int
	capacity          int
	storage           []Event
	mask              uint64
	readerPos         uint64
	writerPos         uint64
	lastCapacityCheck time.Time
	maxSize           int
	shrinkRequested   bool
}

// NewEventRing creates a ring with the requested capacity rounded up to
// the next power of two. Zero rounds to one. The rounded value becomes
// the permanent lower bound for the grow and shrink paths.
func NewEventRing(initialCapacity int) *EventRing {
	capacity := utils.NextPowerOfTwo(initialCapacity)

	return &EventRing{
		initialCapacity: capacity,
		capacity:        capacity,
		storage:         make([]Event, capacity),
		mask:            uint64(capacity) - 1,
	}
}

// Front returns the oldest staged event, or nil when the ring is empty.
// The pointer stays valid until the next call that mutates the ring.
func (r *EventRing) Front() *Event {
	if r.readerPos == r.writerPos {
		return nil
	}

	return &r.storage[r.readerPos&r.mask]
}

// PopFront releases the event returned by Front. The slot contents stay
// in place for a later writer to overwrite; nothing is destroyed here.
// Popping an empty ring is a bug in the caller and panics.
func (r *EventRing) PopFront() {
	if r.readerPos == r.writerPos {
		panic("transit: PopFront on an empty ring")
	}

	r.readerPos++
}

// Back returns the slot the next event must be written into, growing
// the ring first when it is full. The write is not visible to Front
// until PushBack commits it.
func (r *EventRing) Back() *Event {
	if r.capacity == r.Size() {
		r.grow()
	}

	return &r.storage[r.writerPos&r.mask]
}

// PushBack commits the event written into the slot returned by Back.
func (r *EventRing) PushBack() {
	r.writerPos++
}

// Size reports the number of committed, unpopped events.
func (r *EventRing) Size() int {
	return int(r.writerPos - r.readerPos)
}

// Capacity reports the current slot count.
func (r *EventRing) Capacity() int {
	return r.capacity
}

// Empty reports whether the ring holds no events.
func (r *EventRing) Empty() bool {
	return r.readerPos == r.writerPos
}

// RequestShrink marks the ring to be returned to its initial capacity.
// The request is advisory: TryShrink honors it only once the ring has
// drained empty.
func (r *EventRing) RequestShrink() {
	r.shrinkRequested = true
}

// TryShrink reallocates at the initial capacity when a shrink request
// is pending and the ring is empty. A request on a non-empty ring stays
// pending for a later call; a request on a ring already at its initial
// capacity is simply cleared.
func (r *EventRing) TryShrink() {
	if !r.shrinkRequested || r.readerPos != r.writerPos {
		return
	}

	if r.capacity > r.initialCapacity {
		r.capacity = r.initialCapacity
		r.storage = make([]Event, r.capacity)
		r.mask = uint64(r.capacity) - 1
		r.readerPos = 0
		r.writerPos = 0
	}

	r.shrinkRequested = false
}

// UpdateSize right-sizes the ring toward recently observed demand. The
// worker calls it once per drain cycle with the cycle timestamp. Once
// occupancy has stayed at or below half the current capacity for a full
// decayPeriod, the ring reallocates to the next power of two that holds
// the window's high-water mark. A decayPeriod of zero disables decay.
//
// The decayed capacity is deliberately not clamped to the initial
// capacity: construction and the grow path are the only lower bounds,
// so a ring that went quiet can end up smaller than where it started.
func (r *EventRing) UpdateSize(ts time.Time, decayPeriod time.Duration) {
	if decayPeriod == 0 {
		return
	}

	if r.capacity == r.initialCapacity {
		return
	}

	currentSize := r.Size()
	previousCapacity := r.capacity / 2

	if currentSize > previousCapacity {
		// Occupancy still justifies the current capacity; restart the
		// observation window from scratch.
		r.maxSize = 0
		r.lastCapacityCheck = time.Time{}

		return
	}

	r.maxSize = max(r.maxSize, currentSize)

	if r.lastCapacityCheck.IsZero() {
		r.lastCapacityCheck = ts

		return
	}

	if ts.Sub(r.lastCapacityCheck) <= decayPeriod {
		return
	}

	r.resize(utils.NextPowerOfTwo(r.maxSize), currentSize)
	r.maxSize = 0
	r.lastCapacityCheck = time.Time{}
}

// grow doubles the capacity. The decay window restarts because the old
// observations describe a ring that no longer exists.
func (r *EventRing) grow() {
	r.resize(r.capacity*2, r.Size())
	r.lastCapacityCheck = time.Time{}
}

// resize reallocates storage at newCapacity and relocates the staged
// events to slots [0, liveCount) in their original order. newCapacity
// must be a power of two no smaller than liveCount.
func (r *EventRing) resize(newCapacity, liveCount int) {
	storage := make([]Event, newCapacity)
	for i := 0; i < liveCount; i++ {
		storage[i] = r.storage[(r.readerPos+uint64(i))&r.mask]
	}

	r.storage = storage
	r.capacity = newCapacity
	r.mask = uint64(newCapacity) - 1
	r.readerPos = 0
	r.writerPos = uint64(liveCount)
}
