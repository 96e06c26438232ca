package service

import (
	"context"
	"time"

	"github.com/ikkim/storefront/pkg/logger"
	"github.com/panjf2000/ants/v2"
)

// EventPublisher sends a message to a broker under a routing key.
type EventPublisher interface {
	PublishJSON(ctx context.Context, routingKey string, v interface{}) error
}

const forwardTimeout = 5 * time.Second

// EventForwarder relays cart events to a broker, using the event type as
// routing key. Publishing runs on the worker pool so listeners return quickly.
type EventForwarder struct {
	publisher   EventPublisher
	workers     *ants.Pool
	unsubscribe func()
}

// NewEventForwarder subscribes to store. With a nil pool events are published
// on the publishing goroutine.
func NewEventForwarder(store *CartStore, publisher EventPublisher, workers *ants.Pool) *EventForwarder {
	f := &EventForwarder{publisher: publisher, workers: workers}
	f.unsubscribe = store.Subscribe(f.forward)
	return f
}

func (f *EventForwarder) forward(e Event) {
	task := func() {
		ctx, cancel := context.WithTimeout(context.Background(), forwardTimeout)
		defer cancel()

		if err := f.publisher.PublishJSON(ctx, string(e.Type), e); err != nil {
			logger.Error("Failed to forward cart event", err, map[string]interface{}{
				"type": e.Type,
			})
		}
	}

	if f.workers == nil {
		task()
		return
	}
	if err := f.workers.Submit(task); err != nil {
		logger.Warn("Dropped cart event, worker pool unavailable", map[string]interface{}{
			"type":  e.Type,
			"error": err.Error(),
		})
	}
}

// Close stops forwarding.
func (f *EventForwarder) Close() {
	f.unsubscribe()
}
