package events

import (
	"sync"

	"neobots/core/types"
)

// Event represents a structured state change emitted by the economy.
type Event interface {
	EventType() string
}

// Payload is implemented by events that can be rendered into the generic
// attribute representation.
type Payload interface {
	Event
	Event() *types.Event
}

// Emitter broadcasts events to downstream subscribers (e.g. indexers, logs).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Recorder keeps every emitted event in memory. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements the Emitter interface.
func (r *Recorder) Emit(evt Event) {
	if r == nil || evt == nil {
		return
	}
	r.mu.Lock()
	r.events = append(r.events, evt)
	r.mu.Unlock()
}

// Events returns a snapshot of the recorded events.
func (r *Recorder) Events() []Event {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// OfType returns the recorded events matching the supplied type.
func (r *Recorder) OfType(eventType string) []Event {
	var out []Event
	for _, evt := range r.Events() {
		if evt.EventType() == eventType {
			out = append(out, evt)
		}
	}
	return out
}

// Reset drops every recorded event.
func (r *Recorder) Reset() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

// Fanout emits to every configured emitter in order.
type Fanout []Emitter

// Emit implements the Emitter interface.
func (f Fanout) Emit(evt Event) {
	for _, emitter := range f {
		if emitter != nil {
			emitter.Emit(evt)
		}
	}
}

// Committed carries a generic event once the operation producing it has
// been committed.
type Committed struct {
	payload *types.Event
}

// Wrap adapts a generic event to the Emitter interface.
func Wrap(evt *types.Event) Committed { return Committed{payload: evt} }

// EventType implements Event.
func (c Committed) EventType() string {
	if c.payload == nil {
		return ""
	}
	return c.payload.Type
}

// Event returns a copy of the wrapped payload.
func (c Committed) Event() *types.Event { return c.payload.Clone() }
