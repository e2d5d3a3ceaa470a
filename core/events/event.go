package events

// Event is a state change raised by a game engine.
type Event interface {
	EventType() string
}

// Emitter receives events. Engines emit into a per-call buffer; the facade
// forwards the buffer to the configured emitter once the call commits.
type Emitter interface {
	Emit(Event)
}

// NoopEmitter discards every event.
type NoopEmitter struct{}

func (NoopEmitter) Emit(Event) {}
