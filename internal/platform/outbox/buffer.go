package outbox

import (
	"context"
	"sync"

	"github.com/commercekit/commerce-core/internal/shared/events"
)

// Buffer is an in-memory event sink used by the memory adapters and tests.
type Buffer struct {
	mu   sync.Mutex
	evts []events.Event
}

func NewBuffer() *Buffer {
	return &Buffer{}
}

// Record appends events to the buffer.
func (b *Buffer) Record(_ context.Context, evts ...events.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.evts = append(b.evts, evts...)
	return nil
}

// Events returns a snapshot of everything recorded so far.
func (b *Buffer) Events() []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]events.Event, len(b.evts))
	copy(out, b.evts)
	return out
}

// OfType filters the recorded events by message type.
func (b *Buffer) OfType(eventType string) []events.Event {
	var out []events.Event
	for _, evt := range b.Events() {
		if evt.Type == eventType {
			out = append(out, evt)
		}
	}
	return out
}
