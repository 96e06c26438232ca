package service

import (
	"sync"
	"time"

	"github.com/ikkim/storefront/internal/app/model"
	"github.com/ikkim/storefront/pkg/logger"
	"github.com/samber/lo"
)

// NotificationCenter keeps the transient notifications published by the cart
// until they expire.
type NotificationCenter struct {
	mu            sync.Mutex
	notifications []model.Notification
	now           func() time.Time
	unsubscribe   func()
}

// NewNotificationCenter subscribes to store's notification events.
func NewNotificationCenter(store *CartStore, now func() time.Time) *NotificationCenter {
	if now == nil {
		now = time.Now
	}
	c := &NotificationCenter{now: now}
	c.unsubscribe = store.Subscribe(func(e Event) {
		if e.Type == EventNotification && e.Notification != nil {
			c.push(*e.Notification)
		}
	})
	return c
}

func (c *NotificationCenter) push(n model.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifications = append(c.notifications, n)
}

// Active returns unexpired notifications, oldest first.
func (c *NotificationCenter) Active() []model.Notification {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	return lo.Filter(c.notifications, func(n model.Notification, _ int) bool {
		return !n.Expired(now)
	})
}

// Purge drops expired notifications and returns how many were removed.
func (c *NotificationCenter) Purge() int {
	now := c.now()

	c.mu.Lock()
	before := len(c.notifications)
	c.notifications = lo.Reject(c.notifications, func(n model.Notification, _ int) bool {
		return n.Expired(now)
	})
	removed := before - len(c.notifications)
	c.mu.Unlock()

	if removed > 0 {
		logger.Debug("Expired notifications purged", map[string]interface{}{
			"removed": removed,
		})
	}
	return removed
}

// Close stops listening to the cart.
func (c *NotificationCenter) Close() {
	c.unsubscribe()
}
