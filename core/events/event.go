package events

import "eusko/core/types"

// Event represents a structured state change emitted by a contract.
type Event interface {
	EventType() string
	Event() *types.Event
}

// Emitter broadcasts events to downstream consumers (receipts, RPC, indexer).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies Emitter while discarding all events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Buffer collects the events raised during a single call. The host appends
// them to the log only when the call commits.
type Buffer struct {
	events []types.Event
}

// Emit implements the Emitter interface.
func (b *Buffer) Emit(evt Event) {
	if b == nil || evt == nil {
		return
	}
	payload := evt.Event()
	if payload == nil {
		return
	}
	b.events = append(b.events, *payload.Clone())
}

// Events returns the buffered events in emission order.
func (b *Buffer) Events() []types.Event {
	if b == nil {
		return nil
	}
	out := make([]types.Event, len(b.events))
	copy(out, b.events)
	return out
}

// Len reports how many events are buffered.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.events)
}

// Reset drops every buffered event.
func (b *Buffer) Reset() {
	if b != nil {
		b.events = b.events[:0]
	}
}
