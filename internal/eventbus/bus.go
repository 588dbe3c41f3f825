// Package eventbus fans events out to in-process subscribers. Delivery is
// best effort: a subscriber whose buffer is full misses the event.
package eventbus

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]chan *Event
	dropped     func(EventType)
}

type Option func(*Bus)

// WithDropHook is called for every event a full subscriber misses.
func WithDropHook(fn func(EventType)) Option {
	return func(b *Bus) {
		b.dropped = fn
	}
}

func New(opts ...Option) *Bus {
	b := &Bus{subscribers: make(map[string]chan *Event)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bus) Subscribe(bufSize int) (string, <-chan *Event) {
	id := ulid.Make().String()
	ch := make(chan *Event, bufSize)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return id, ch
}

func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
}

func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			if b.dropped != nil {
				b.dropped(event.Type)
			}
		}
	}
}

// PublishNew builds an event around payload, which is marshalled to JSON
// unless it is already a string or nil.
func (b *Bus) PublishNew(eventType EventType, viewID, resourceID string, payload any, metadata map[string]string) *Event {
	event := &Event{
		ID:         ulid.Make().String(),
		Type:       eventType,
		ViewID:     viewID,
		ResourceID: resourceID,
		Metadata:   metadata,
		CreatedAt:  time.Now().UTC(),
	}
	switch p := payload.(type) {
	case nil:
	case string:
		event.Payload = p
	default:
		data, err := json.Marshal(p)
		if err != nil {
			slog.Error("failed to marshal event payload", "type", eventType, "error", err)
		} else {
			event.Payload = string(data)
		}
	}
	b.Publish(event)
	return event
}
