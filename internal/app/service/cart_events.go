package service

import (
	"sync"

	"github.com/ikkim/storefront/internal/app/model"
	"github.com/ikkim/storefront/pkg/logger"
)

type EventType string

const (
	EventCartChanged  EventType = "cart.changed"
	EventNotification EventType = "notification"
	EventCheckout     EventType = "checkout"
)

// Event is what CartStore publishes to its subscribers.
type Event struct {
	Type         EventType           `json:"type"`
	Cart         *model.CartSummary  `json:"cart,omitempty"`
	Notification *model.Notification `json:"notification,omitempty"`
	Redirect     string              `json:"redirect,omitempty"`
}

// Listener receives published events. It runs on the publishing goroutine.
type Listener func(Event)

type subscription struct {
	id       uint64
	listener Listener
}

// eventBus delivers events to listeners in subscription order.
type eventBus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
}

func newEventBus() *eventBus {
	return &eventBus{}
}

// subscribe registers l and returns a func removing it. Calling the returned
// func more than once is harmless.
func (b *eventBus) subscribe(l Listener) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, listener: l})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s.id == id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (b *eventBus) publish(e Event) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		b.deliver(s, e)
	}
}

func (b *eventBus) deliver(s subscription, e Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("Event listener panicked", map[string]interface{}{
				"event":       string(e.Type),
				"listener_id": s.id,
				"panic":       r,
			})
		}
	}()
	s.listener(e)
}

func (b *eventBus) len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
