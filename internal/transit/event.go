// Package transit implements the backend staging layer: a growable
// single-consumer ring of decoded log events and a recycling pool of
// format scratch buffers. Both structures belong to the backend worker
// goroutine alone and perform no synchronization; the producer side of
// the pipeline only ever reaches them through the spsc queue.
package transit

import "time"

// Field is one key/value pair attached to an event. Values are rendered
// to strings on the producer side before they cross the queue, so the
// backend never dereferences producer-owned memory.
type Field struct {
	Key   string
	Value string
}

// Event is a decoded log record staged in the ring while it waits to be
// formatted and dispatched. The zero value is valid and empty. Ring
// slots hold events by value and are reused without being cleared
// between occupants, so consumers must treat a popped slot as dead the
// moment PopFront returns.
type Event struct {
	// Timestamp is the producer-side capture time.
	Timestamp time.Time
	// Level is the numeric severity, matching the root package levels.
	Level uint8
	// Logger is the name of the logger that produced the event.
	Logger string
	// Message is the rendered message text.
	Message string
	// Fields carries the structured key/value pairs, in append order.
	Fields []Field
}

// Reset clears the event in place. The Fields backing array is kept so
// the next decode into this slot can reuse it.
func (e *Event) Reset() {
	e.Timestamp = time.Time{}
	e.Level = 0
	e.Logger = ""
	e.Message = ""
	e.Fields = e.Fields[:0]
}
