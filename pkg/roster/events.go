package roster

import (
	"context"
	"sync"
	"time"
)

const (
	TopicScheduleApplied   = "schedule.applied"
	TopicShiftCodesUpdated = "shiftcodes.updated"
)

// Event is a notification delivered to subscribers of its topic
type Event struct {
	Topic   string
	Payload any
	At      time.Time
}

// EventHandler reacts to a published event
type EventHandler func(ctx context.Context, e Event)

type subscription struct {
	id      int
	handler EventHandler
}

// EventRegistry is a publish/subscribe registry owned by the hosting server.
// Handlers run synchronously in subscription order.
type EventRegistry struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string][]subscription
}

// NewEventRegistry creates an empty registry
func NewEventRegistry() *EventRegistry {
	return &EventRegistry{subs: make(map[string][]subscription)}
}

// Subscribe registers handler for topic and returns a func that removes it
func (r *EventRegistry) Subscribe(topic string, handler EventHandler) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	r.subs[topic] = append(r.subs[topic], subscription{id: id, handler: handler})

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		subs := r.subs[topic]
		for i, s := range subs {
			if s.id == id {
				r.subs[topic] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers payload to every current subscriber of topic
func (r *EventRegistry) Publish(ctx context.Context, topic string, payload any) {
	r.mu.RLock()
	subs := make([]subscription, len(r.subs[topic]))
	copy(subs, r.subs[topic])
	r.mu.RUnlock()

	event := Event{Topic: topic, Payload: payload, At: time.Now()}
	for _, s := range subs {
		s.handler(ctx, event)
	}
}
