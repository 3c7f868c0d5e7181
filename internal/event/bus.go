// Package event provides a small topic-based publish/subscribe bus used to
// carry UI notifications (clear, clearAll, viewUser) from command dispatchers
// to whatever hosts them.
package event

import (
	"sync"

	"github.com/google/uuid"
)

type subscription[E any] struct {
	id uuid.UUID
	fn func(E)
}

// Bus delivers events of type E to the handlers subscribed to a topic.
// The zero value is not usable; create one with NewBus.
type Bus[E any] struct {
	mu     sync.RWMutex
	topics map[string][]subscription[E]
}

// NewBus creates an empty bus.
func NewBus[E any]() *Bus[E] {
	return &Bus[E]{topics: make(map[string][]subscription[E])}
}

// Subscribe registers fn for topic and returns a function that removes it.
// Calling the returned function more than once is a no-op.
func (b *Bus[E]) Subscribe(topic string, fn func(E)) (unsubscribe func()) {
	id := uuid.New()

	b.mu.Lock()
	b.topics[topic] = append(b.topics[topic], subscription[E]{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(topic, id) })
	}
}

func (b *Bus[E]) remove(topic string, id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.topics[topic]
	for i, s := range subs {
		if s.id == id {
			// Copy so a Publish holding the old slice is unaffected.
			next := make([]subscription[E], 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			if len(next) == 0 {
				delete(b.topics, topic)
			} else {
				b.topics[topic] = next
			}
			return
		}
	}
}

// Publish calls every handler subscribed to topic, in subscription order, on
// the calling goroutine. It returns the number of handlers called.
func (b *Bus[E]) Publish(topic string, e E) int {
	b.mu.RLock()
	subs := b.topics[topic]
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn(e)
	}
	return len(subs)
}

// subscribers reports how many handlers are subscribed to topic.
func (b *Bus[E]) subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}
