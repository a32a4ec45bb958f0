package transit

import (
	"bytes"

	"github.com/hyp3rd/transitlog/internal/utils"
)

// RetainSizeThreshold is the used-size boundary, in bytes, above which
// a returned format buffer is kept for reuse. Buffers at or below the
// threshold are cheap to recreate and are dropped on return so pooled
// memory tracks the recent run of large entries instead of pinning one
// buffer per short log line.
const RetainSizeThreshold = 10 * 1024

// FormatBufferPool lends format scratch buffers to the worker and
// recycles the large ones. Slots rotate FIFO over the same monotonic
// position discipline as EventRing: Borrow takes from the write cursor,
// Return files at the read cursor, and the pool doubles when every slot
// is lent out at once. Size counts outstanding borrows, not stored
// buffers.
//
// The pool is single-goroutine like the ring, and Borrow/Return must be
// paired in call order by the owning worker. The pool never shrinks:
// its capacity is bounded by the peak number of simultaneous borrows,
// which stays small in practice.
type FormatBufferPool struct {
	capacity  int
	slots     []*bytes.Buffer
	mask      uint64
	readerPos uint64
	writerPos uint64
}

// NewFormatBufferPool creates a pool with the requested capacity
// rounded up to the next power of two. All slots start empty; buffers
// are allocated lazily by the first borrow that reaches each slot.
func NewFormatBufferPool(initialCapacity int) *FormatBufferPool {
	capacity := utils.NextPowerOfTwo(initialCapacity)

	return &FormatBufferPool{
		capacity: capacity,
		slots:    make([]*bytes.Buffer, capacity),
		mask:     uint64(capacity) - 1,
	}
}

// Borrow hands out the next scratch buffer, allocating a fresh one when
// the slot is empty. A recycled buffer comes back reset but keeps the
// capacity it accumulated in earlier use, which is the whole point of
// retaining it. The pool grows when every slot is currently borrowed.
func (p *FormatBufferPool) Borrow() *bytes.Buffer {
	if p.capacity == p.Size() {
		p.grow()
	}

	idx := p.writerPos & p.mask
	p.writerPos++

	buf := p.slots[idx]
	p.slots[idx] = nil

	if buf == nil {
		return &bytes.Buffer{}
	}

	buf.Reset()

	return buf
}

// Return takes a buffer back after formatting. Buffers whose used size
// exceeds RetainSizeThreshold are stored for a later borrow at this
// position; smaller ones are dropped and the slot stays empty.
// Returning with no outstanding borrow is a bug in the caller and
// panics.
func (p *FormatBufferPool) Return(buf *bytes.Buffer) {
	if p.readerPos == p.writerPos {
		panic("transit: Return with no outstanding borrow")
	}

	if buf != nil && buf.Len() > RetainSizeThreshold {
		p.slots[p.readerPos&p.mask] = buf
	}

	p.readerPos++
}

// Size reports the number of outstanding borrows.
func (p *FormatBufferPool) Size() int {
	return int(p.writerPos - p.readerPos)
}

// Capacity reports the slot count.
func (p *FormatBufferPool) Capacity() int {
	return p.capacity
}

// Empty reports whether every borrow has been returned.
func (p *FormatBufferPool) Empty() bool {
	return p.readerPos == p.writerPos
}

// grow doubles the slot array. Growth only triggers when every slot is
// an outstanding borrow, so the relocated window contains nothing but
// empty slots; the copy loop mirrors the ring's reallocation to keep
// the position arithmetic identical in both structures.
func (p *FormatBufferPool) grow() {
	newCapacity := p.capacity * 2
	slots := make([]*bytes.Buffer, newCapacity)

	liveCount := p.Size()
	for i := 0; i < liveCount; i++ {
		slots[i] = p.slots[(p.readerPos+uint64(i))&p.mask]
	}

	p.slots = slots
	p.capacity = newCapacity
	p.mask = uint64(newCapacity) - 1
	p.readerPos = 0
	p.writerPos = uint64(liveCount)
}
