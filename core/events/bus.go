package events

import "sync"

// Buffer collects events until Flush hands them to a downstream emitter. The
// game facade records into a buffer while a call runs and flushes only after
// the call committed, so aborted calls emit nothing.
type Buffer struct {
	events []Event
}

// Emit implements the Emitter interface.
func (b *Buffer) Emit(evt Event) {
	if evt == nil {
		return
	}
	b.events = append(b.events, evt)
}

// Events returns the buffered events in emission order.
func (b *Buffer) Events() []Event {
	out := make([]Event, len(b.events))
	copy(out, b.events)
	return out
}

// Len reports how many events are buffered.
func (b *Buffer) Len() int { return len(b.events) }

// Reset drops every buffered event.
func (b *Buffer) Reset() { b.events = b.events[:0] }

// Flush emits every buffered event to dst and resets the buffer.
func (b *Buffer) Flush(dst Emitter) {
	if dst != nil {
		for _, evt := range b.events {
			dst.Emit(evt)
		}
	}
	b.Reset()
}

// Multi fans an event out to every emitter in order.
type Multi []Emitter

// Emit implements the Emitter interface.
func (m Multi) Emit(evt Event) {
	for _, emitter := range m {
		if emitter != nil {
			emitter.Emit(evt)
		}
	}
}

// Bus broadcasts events to live subscribers. Slow subscribers drop events
// instead of blocking the publisher.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]chan Event
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]chan Event)}
}

// Emit implements the Emitter interface.
func (b *Bus) Emit(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Subscribe registers a subscriber with the given channel capacity. The
// returned cancel func closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers reports the number of live subscribers.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
