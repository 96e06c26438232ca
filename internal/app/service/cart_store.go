package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/storefront/internal/app/model"
	"github.com/ikkim/storefront/internal/app/repository"
	"github.com/ikkim/storefront/pkg/coupon"
	"github.com/ikkim/storefront/pkg/logger"
	"github.com/ikkim/storefront/pkg/util"
	"github.com/panjf2000/ants/v2"
	"github.com/samber/lo"
)

var (
	ErrCartEmpty         = errors.New("cart is empty")
	ErrVariantMissing    = errors.New("color and size must be chosen for every item")
	ErrCouponRejected    = errors.New("coupon rejected")
	ErrCouponUnavailable = errors.New("coupon service unavailable")
)

// User-facing notification texts.
const (
	MsgCouponApplied  = "Discount code applied successfully"
	MsgCouponInvalid  = "Discount code is not valid"
	MsgCouponFailed   = "Could not apply the discount code"
	MsgCartEmpty      = "Your cart is empty"
	MsgVariantMissing = "Please choose a color and size for every product"
	RemoveQuestion    = "Are you sure you want to remove this product?"
)

// ValidationError reports an unmet checkout precondition.
type ValidationError struct {
	Err     error
	ItemIDs []string
}

func (e *ValidationError) Error() string {
	if len(e.ItemIDs) == 0 {
		return "checkout: " + e.Err.Error()
	}
	return fmt.Sprintf("checkout: %s (items %s)", e.Err, strings.Join(e.ItemIDs, ", "))
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(question string) bool
}

type ConfirmFunc func(question string) bool

func (f ConfirmFunc) Confirm(question string) bool { return f(question) }

// Navigator moves the user to another page.
type Navigator interface {
	Navigate(path string)
}

type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// CouponValidator checks a discount code against the remote endpoint.
type CouponValidator interface {
	Apply(ctx context.Context, code string) (*coupon.ApplyResponse, error)
}

type CartStoreOptions struct {
	Pricing         PricingRules
	CheckoutPath    string
	NotificationTTL time.Duration
	CouponTimeout   time.Duration
	Formatter       *util.PriceFormatter
	// Workers runs ApplyCouponAsync; a plain goroutine is used when nil.
	Workers *ants.Pool
	Now     func() time.Time
}

func (o *CartStoreOptions) withDefaults() {
	if o.Pricing == (PricingRules{}) {
		o.Pricing = DefaultPricingRules
	}
	if o.CheckoutPath == "" {
		o.CheckoutPath = "/checkout"
	}
	if o.NotificationTTL <= 0 {
		o.NotificationTTL = 3 * time.Second
	}
	if o.CouponTimeout <= 0 {
		o.CouponTimeout = 10 * time.Second
	}
	if o.Formatter == nil {
		o.Formatter = util.NewPriceFormatter("en", "", "")
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// CartStore owns the cart's line items and discount. Every mutation
// recomputes the summary, persists the items and publishes an event once the
// lock is released, so listeners may call back into the store.
type CartStore struct {
	mu       sync.Mutex
	items    []model.LineItem
	discount int64

	repo    repository.CartRepository
	coupons CouponValidator
	opts    CartStoreOptions
	events  *eventBus
}

// NewCartStore restores the cart from repo. A failing load is logged and the
// cart starts empty.
func NewCartStore(ctx context.Context, repo repository.CartRepository, coupons CouponValidator, opts CartStoreOptions) *CartStore {
	opts.withDefaults()

	items, err := repo.Load(ctx)
	if err != nil {
		logger.Warn("Could not restore cart, starting empty", map[string]interface{}{
			"error": err.Error(),
		})
		items = []model.LineItem{}
	}

	logger.Info("Cart store initialized", map[string]interface{}{
		"count": len(items),
	})

	return &CartStore{
		items:   items,
		repo:    repo,
		coupons: coupons,
		opts:    opts,
		events:  newEventBus(),
	}
}

// Subscribe registers l for every event; the returned func unsubscribes.
func (s *CartStore) Subscribe(l Listener) func() {
	return s.events.subscribe(l)
}

// SubscriberCount returns the number of registered listeners.
func (s *CartStore) SubscriberCount() int {
	return s.events.len()
}

// Snapshot returns the current summary.
func (s *CartStore) Snapshot() model.CartSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summaryLocked()
}

// Items returns a copy of the line items in insertion order.
func (s *CartStore) Items() []model.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

func (s *CartStore) Discount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discount
}

// Add puts item in the cart. An existing line gains item.Quantity (at least
// one) up to the maximum; a new line is appended with its quantity clamped.
// Non-empty color and size replace the stored ones.
func (s *CartStore) Add(item model.LineItem) bool {
	if item.ID == "" || item.Price < 0 {
		logger.Warn("Rejected invalid cart item", map[string]interface{}{
			"item_id": item.ID,
			"price":   item.Price,
		})
		return false
	}
	requested := max(item.Quantity, model.MinQuantity)

	return s.mutate("add", item.ID, func() bool {
		idx := s.indexLocked(item.ID)
		if idx < 0 {
			item.Quantity = lo.Clamp(requested, model.MinQuantity, model.MaxQuantity)
			s.items = append(s.items, item)
			return true
		}

		existing := &s.items[idx]
		changed := false
		if q := min(existing.Quantity+requested, model.MaxQuantity); q != existing.Quantity {
			existing.Quantity = q
			changed = true
		}
		if item.Color != "" && item.Color != existing.Color {
			existing.Color = item.Color
			changed = true
		}
		if item.Size != "" && item.Size != existing.Size {
			existing.Size = item.Size
			changed = true
		}
		return changed
	})
}

// Increase adds one to the item's quantity unless it is already at the maximum.
func (s *CartStore) Increase(id string) bool {
	return s.mutate("increase", id, func() bool {
		idx := s.indexLocked(id)
		if idx < 0 || s.items[idx].Quantity >= model.MaxQuantity {
			return false
		}
		s.items[idx].Quantity++
		return true
	})
}

// Decrease removes one from the item's quantity unless it is already at the
// minimum.
func (s *CartStore) Decrease(id string) bool {
	return s.mutate("decrease", id, func() bool {
		idx := s.indexLocked(id)
		if idx < 0 || s.items[idx].Quantity <= model.MinQuantity {
			return false
		}
		s.items[idx].Quantity--
		return true
	})
}

// SetQuantity sets the item's quantity when n is within bounds; anything else
// is ignored.
func (s *CartStore) SetQuantity(id string, n int) bool {
	if n < model.MinQuantity || n > model.MaxQuantity {
		logger.Debug("Ignoring out of range quantity", map[string]interface{}{
			"item_id":  id,
			"quantity": n,
		})
		return false
	}
	return s.mutate("set_quantity", id, func() bool {
		idx := s.indexLocked(id)
		if idx < 0 || s.items[idx].Quantity == n {
			return false
		}
		s.items[idx].Quantity = n
		return true
	})
}

// SetVariant records the chosen color and size of an item.
func (s *CartStore) SetVariant(id, color, size string) bool {
	return s.mutate("set_variant", id, func() bool {
		idx := s.indexLocked(id)
		if idx < 0 {
			return false
		}
		item := &s.items[idx]
		if item.Color == color && item.Size == size {
			return false
		}
		item.Color, item.Size = color, size
		return true
	})
}

// Remove deletes the item after confirm approves. A nil confirm means the
// caller already obtained approval.
func (s *CartStore) Remove(id string, confirm Confirmer) bool {
	if !s.Has(id) {
		return false
	}
	if confirm != nil && !confirm.Confirm(RemoveQuestion) {
		logger.Debug("Cart item removal declined", map[string]interface{}{
			"item_id": id,
		})
		return false
	}
	return s.mutate("remove", id, func() bool {
		before := len(s.items)
		s.items = lo.Reject(s.items, func(item model.LineItem, _ int) bool {
			return item.ID == id
		})
		return len(s.items) != before
	})
}

// Has reports whether a line with id exists.
func (s *CartStore) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexLocked(id) >= 0
}

// Clear empties the cart, drops the discount and removes the stored copy.
func (s *CartStore) Clear() bool {
	s.mu.Lock()
	if len(s.items) == 0 && s.discount == 0 {
		s.mu.Unlock()
		return false
	}
	s.items = []model.LineItem{}
	s.discount = 0

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	if err := s.repo.Clear(ctx); err != nil {
		logger.Warn("Failed to clear stored cart", map[string]interface{}{
			"error": err.Error(),
		})
	}
	cancel()

	summary := s.summaryLocked()
	s.mu.Unlock()

	logger.Info("Cart cleared", nil)
	s.events.publish(Event{Type: EventCartChanged, Cart: &summary})
	return true
}

// ApplyCoupon validates code remotely. The lock is not held during the round
// trip; on success the returned discount replaces the current one. Every
// failure leaves the discount untouched and emits an error notification.
func (s *CartStore) ApplyCoupon(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	logger.Info("Applying coupon", map[string]interface{}{
		"code": code,
	})

	if s.coupons == nil {
		s.notify(model.NotificationError, MsgCouponFailed)
		return ErrCouponUnavailable
	}

	resp, err := s.coupons.Apply(ctx, code)
	if err != nil {
		logger.Error("Coupon request failed", err, map[string]interface{}{
			"code": code,
		})
		s.notify(model.NotificationError, MsgCouponFailed)
		return fmt.Errorf("%w: %w", ErrCouponUnavailable, err)
	}

	if !resp.Success {
		logger.Warn("Coupon rejected", map[string]interface{}{
			"code": code,
		})
		s.notify(model.NotificationError, MsgCouponInvalid)
		return ErrCouponRejected
	}

	s.mutate("apply_coupon", code, func() bool {
		s.discount = resp.Discount
		return true
	})
	s.notify(model.NotificationSuccess, MsgCouponApplied)

	logger.Info("Coupon applied", map[string]interface{}{
		"code":     code,
		"discount": resp.Discount,
	})
	return nil
}

// ApplyCouponAsync runs ApplyCoupon in the background with the coupon timeout.
// The outcome is reported through events only.
func (s *CartStore) ApplyCouponAsync(code string) error {
	task := func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.CouponTimeout)
		defer cancel()
		_ = s.ApplyCoupon(ctx, code)
	}

	if s.opts.Workers == nil {
		go task()
		return nil
	}
	if err := s.opts.Workers.Submit(task); err != nil {
		logger.Error("Failed to schedule coupon request", err, map[string]interface{}{
			"code": code,
		})
		s.notify(model.NotificationError, MsgCouponFailed)
		return err
	}
	return nil
}

// Checkout verifies the cart is non-empty and every item has a color and
// size, then sends nav to the checkout path. Unmet preconditions return a
// *ValidationError, emit a notification and do not navigate.
func (s *CartStore) Checkout(nav Navigator) error {
	s.mu.Lock()
	items := cloneItems(s.items)
	summary := s.summaryLocked()
	s.mu.Unlock()

	if len(items) == 0 {
		logger.Warn("Checkout refused: empty cart", nil)
		s.notify(model.NotificationError, MsgCartEmpty)
		return &ValidationError{Err: ErrCartEmpty}
	}

	missing := lo.FilterMap(items, func(item model.LineItem, _ int) (string, bool) {
		return item.ID, !item.HasVariant()
	})
	if len(missing) > 0 {
		logger.Warn("Checkout refused: missing color or size", map[string]interface{}{
			"item_ids": missing,
		})
		s.notify(model.NotificationError, MsgVariantMissing)
		return &ValidationError{Err: ErrVariantMissing, ItemIDs: missing}
	}

	logger.Info("Proceeding to checkout", map[string]interface{}{
		"count":   summary.Count,
		"payable": summary.Payable,
	})
	if nav != nil {
		nav.Navigate(s.opts.CheckoutPath)
	}
	s.events.publish(Event{Type: EventCheckout, Cart: &summary, Redirect: s.opts.CheckoutPath})
	return nil
}

// CheckoutPath returns where a successful checkout navigates.
func (s *CartStore) CheckoutPath() string {
	return s.opts.CheckoutPath
}

const persistTimeout = 5 * time.Second

// mutate runs fn under the lock; when fn reports a change the items are
// persisted before unlocking and a cart.changed event follows.
func (s *CartStore) mutate(op, id string, fn func() bool) bool {
	s.mu.Lock()
	if !fn() {
		s.mu.Unlock()
		return false
	}

	s.persistLocked()
	summary := s.summaryLocked()
	s.mu.Unlock()

	logger.Debug("Cart updated", map[string]interface{}{
		"op":      op,
		"item_id": id,
		"total":   summary.Total,
		"payable": summary.Payable,
	})
	s.events.publish(Event{Type: EventCartChanged, Cart: &summary})
	return true
}

// persistLocked writes the items; failures are logged and otherwise ignored.
func (s *CartStore) persistLocked() {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := s.repo.Save(ctx, s.items); err != nil {
		logger.Warn("Failed to persist cart", map[string]interface{}{
			"error": err.Error(),
			"count": len(s.items),
		})
	}
}

func (s *CartStore) summaryLocked() model.CartSummary {
	return Summarize(s.items, s.discount, s.opts.Pricing, s.opts.Formatter)
}

func (s *CartStore) indexLocked(id string) int {
	_, idx, ok := lo.FindIndexOf(s.items, func(item model.LineItem) bool {
		return item.ID == id
	})
	if !ok {
		return -1
	}
	return idx
}

func (s *CartStore) notify(level model.NotificationLevel, message string) {
	now := s.opts.Now()
	n := model.Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(s.opts.NotificationTTL),
	}
	s.events.publish(Event{Type: EventNotification, Notification: &n})
}

func cloneItems(items []model.LineItem) []model.LineItem {
	out := make([]model.LineItem, len(items))
	copy(out, items)
	return out
}
