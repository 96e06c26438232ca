package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ikkim/storefront/internal/app/model"
	"github.com/ikkim/storefront/internal/app/repository"
	"github.com/ikkim/storefront/internal/storage"
	"github.com/ikkim/storefront/pkg/coupon"
	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCoupons struct {
	resp  *coupon.ApplyResponse
	err   error
	codes []string
	gate  chan struct{}
	mu    sync.Mutex
}

func (f *fakeCoupons) Apply(ctx context.Context, code string) (*coupon.ApplyResponse, error) {
	f.mu.Lock()
	f.codes = append(f.codes, code)
	f.mu.Unlock()

	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.resp, f.err
}

type failingRepo struct{}

func (failingRepo) Load(context.Context) ([]model.LineItem, error) {
	return nil, errors.New("storage down")
}
func (failingRepo) Save(context.Context, []model.LineItem) error { return errors.New("storage down") }
func (failingRepo) Clear(context.Context) error                  { return errors.New("storage down") }

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) listen(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) ofType(t EventType) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func setupCartStoreTest(t *testing.T, coupons CouponValidator, items ...model.LineItem) (*CartStore, repository.CartRepository, *recorder) {
	repo := repository.NewCartRepository(storage.NewMemoryStore(), "cart")
	if len(items) > 0 {
		require.NoError(t, repo.Save(context.Background(), items))
	}

	store := NewCartStore(context.Background(), repo, coupons, CartStoreOptions{})
	rec := &recorder{}
	t.Cleanup(store.Subscribe(rec.listen))
	return store, repo, rec
}

func item(id string, price int64, qty int) model.LineItem {
	return model.LineItem{ID: id, Price: price, Quantity: qty, Color: "red", Size: "M"}
}

func TestCartStore_RestoresPersistedItems(t *testing.T) {
	store, _, _ := setupCartStoreTest(t, nil, item("a", 100000, 2))

	items := store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, int64(200000), store.Snapshot().Total)
}

func TestCartStore_StartsEmptyWhenLoadFails(t *testing.T) {
	store := NewCartStore(context.Background(), failingRepo{}, nil, CartStoreOptions{})

	assert.Empty(t, store.Items())
}

func TestCartStore_Increase(t *testing.T) {
	store, repo, rec := setupCartStoreTest(t, nil, item("a", 100000, 9))

	assert.True(t, store.Increase("a"))
	assert.Equal(t, 10, store.Items()[0].Quantity)

	// Upper bound
	assert.False(t, store.Increase("a"))
	assert.Equal(t, 10, store.Items()[0].Quantity)

	// Unknown item
	assert.False(t, store.Increase("missing"))

	persisted, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, persisted[0].Quantity)
	assert.Len(t, rec.ofType(EventCartChanged), 1)
}

func TestCartStore_Decrease(t *testing.T) {
	store, _, rec := setupCartStoreTest(t, nil, item("a", 100000, 2))

	assert.True(t, store.Decrease("a"))
	assert.Equal(t, 1, store.Items()[0].Quantity)

	// Lower bound
	assert.False(t, store.Decrease("a"))
	assert.Equal(t, 1, store.Items()[0].Quantity)
	assert.False(t, store.Decrease("missing"))
	assert.Len(t, rec.ofType(EventCartChanged), 1)
}

func TestCartStore_SetQuantity(t *testing.T) {
	store, _, _ := setupCartStoreTest(t, nil, item("a", 1000, 3))

	for _, n := range []int{-5, 0, 11, 100} {
		assert.False(t, store.SetQuantity("a", n), "quantity %d", n)
		assert.Equal(t, 3, store.Items()[0].Quantity)
	}

	for n := model.MinQuantity; n <= model.MaxQuantity; n++ {
		store.SetQuantity("a", n)
		assert.Equal(t, n, store.Items()[0].Quantity)
		assert.Equal(t, int64(1000*n), store.Snapshot().Total)
	}

	assert.False(t, store.SetQuantity("missing", 2))
}

func TestCartStore_Add(t *testing.T) {
	store, _, _ := setupCartStoreTest(t, nil)

	assert.True(t, store.Add(model.LineItem{ID: "a", Price: 5000}))
	assert.True(t, store.Add(model.LineItem{ID: "b", Price: 7000, Quantity: 50}))
	assert.True(t, store.Add(model.LineItem{ID: "a", Price: 5000, Quantity: 3, Color: "blue"}))

	items := store.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, 4, items[0].Quantity)
	assert.Equal(t, "blue", items[0].Color)
	assert.Equal(t, "b", items[1].ID)
	assert.Equal(t, model.MaxQuantity, items[1].Quantity)

	// Already at the maximum with nothing else to change
	assert.False(t, store.Add(model.LineItem{ID: "b", Price: 7000}))

	assert.False(t, store.Add(model.LineItem{ID: "", Price: 1}))
	assert.False(t, store.Add(model.LineItem{ID: "c", Price: -1}))
}

func TestCartStore_SetVariant(t *testing.T) {
	store, _, _ := setupCartStoreTest(t, nil, model.LineItem{ID: "a", Price: 1, Quantity: 1})

	assert.True(t, store.SetVariant("a", "black", "XL"))
	assert.True(t, store.Items()[0].HasVariant())
	assert.False(t, store.SetVariant("a", "black", "XL"))
	assert.False(t, store.SetVariant("missing", "black", "XL"))
}

func TestCartStore_Remove(t *testing.T) {
	store, repo, _ := setupCartStoreTest(t, nil, item("a", 1, 1), item("b", 2, 1))

	var asked string
	decline := ConfirmFunc(func(q string) bool {
		asked = q
		return false
	})
	assert.False(t, store.Remove("a", decline))
	assert.Equal(t, RemoveQuestion, asked)
	assert.Len(t, store.Items(), 2)

	accept := ConfirmFunc(func(string) bool { return true })
	assert.True(t, store.Remove("a", accept))
	assert.False(t, store.Remove("a", accept))

	items := store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "b", items[0].ID)

	persisted, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, persisted, 1)

	// nil confirmer means already confirmed
	assert.True(t, store.Remove("b", nil))
	assert.Empty(t, store.Items())
}

func TestCartStore_Clear(t *testing.T) {
	store, repo, rec := setupCartStoreTest(t, &fakeCoupons{resp: &coupon.ApplyResponse{Success: true, Discount: 10}}, item("a", 1, 1))
	require.NoError(t, store.ApplyCoupon(context.Background(), "X"))

	assert.True(t, store.Clear())
	assert.Empty(t, store.Items())
	assert.Zero(t, store.Discount())
	assert.False(t, store.Clear())

	persisted, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, persisted)
	assert.Len(t, rec.ofType(EventCartChanged), 2)
}

func TestCartStore_TotalsAndShipping(t *testing.T) {
	t.Run("above threshold ships free", func(t *testing.T) {
		store, _, _ := setupCartStoreTest(t, nil, item("a", 600000, 1))

		summary := store.Snapshot()
		assert.Equal(t, int64(600000), summary.Total)
		assert.Zero(t, summary.Shipping)
		assert.Equal(t, int64(600000), summary.Payable)
	})

	t.Run("below threshold pays flat fee", func(t *testing.T) {
		store, _, _ := setupCartStoreTest(t, nil, item("a", 100000, 2))

		summary := store.Snapshot()
		assert.Equal(t, int64(200000), summary.Total)
		assert.Equal(t, int64(30000), summary.Shipping)
		assert.Equal(t, int64(230000), summary.Payable)
	})

	t.Run("exactly at threshold still pays", func(t *testing.T) {
		store, _, _ := setupCartStoreTest(t, nil, item("a", 250000, 2))

		assert.Equal(t, int64(30000), store.Snapshot().Shipping)
	})
}

func TestCartStore_TotalInvariantAcrossMutations(t *testing.T) {
	store, _, _ := setupCartStoreTest(t, nil, item("a", 120000, 1), item("b", 45000, 3))

	ops := []func(){
		func() { store.Increase("a") },
		func() { store.SetQuantity("b", 7) },
		func() { store.Decrease("b") },
		func() { store.Add(item("c", 99000, 2)) },
		func() { store.SetQuantity("c", 42) },
		func() { store.Remove("a", nil) },
		func() { store.Increase("c") },
	}

	for _, op := range ops {
		op()

		var want int64
		for _, it := range store.Items() {
			assert.GreaterOrEqual(t, it.Quantity, model.MinQuantity)
			assert.LessOrEqual(t, it.Quantity, model.MaxQuantity)
			want += it.Price * int64(it.Quantity)
		}
		summary := store.Snapshot()
		assert.Equal(t, want, summary.Total)
		assert.Equal(t, summary.Total <= 500000, summary.Shipping == 30000)
		assert.Equal(t, summary.Total > 500000, summary.Shipping == 0)
	}
}

func TestCartStore_ApplyCoupon_Success(t *testing.T) {
	coupons := &fakeCoupons{resp: &coupon.ApplyResponse{Success: true, Discount: 50000}}
	store, _, rec := setupCartStoreTest(t, coupons, item("a", 100000, 2))

	err := store.ApplyCoupon(context.Background(), "  SAVE50  ")
	require.NoError(t, err)

	assert.Equal(t, []string{"SAVE50"}, coupons.codes)
	assert.Equal(t, int64(50000), store.Discount())
	assert.Equal(t, int64(180000), store.Snapshot().Payable)

	notes := rec.ofType(EventNotification)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotificationSuccess, notes[0].Notification.Level)
	assert.Equal(t, MsgCouponApplied, notes[0].Notification.Message)
}

func TestCartStore_ApplyCoupon_Rejected(t *testing.T) {
	coupons := &fakeCoupons{resp: &coupon.ApplyResponse{Success: true, Discount: 20000}}
	store, _, rec := setupCartStoreTest(t, coupons, item("a", 100000, 2))
	require.NoError(t, store.ApplyCoupon(context.Background(), "GOOD"))

	coupons.resp = &coupon.ApplyResponse{Success: false}
	err := store.ApplyCoupon(context.Background(), "BAD")
	assert.ErrorIs(t, err, ErrCouponRejected)
	assert.Equal(t, int64(20000), store.Discount())

	notes := rec.ofType(EventNotification)
	require.Len(t, notes, 2)
	assert.Equal(t, model.NotificationError, notes[1].Notification.Level)
	assert.Equal(t, MsgCouponInvalid, notes[1].Notification.Message)
}

func TestCartStore_ApplyCoupon_TransportError(t *testing.T) {
	coupons := &fakeCoupons{err: coupon.ErrNetworkError}
	store, _, rec := setupCartStoreTest(t, coupons, item("a", 100000, 2))

	err := store.ApplyCoupon(context.Background(), "SAVE")
	assert.ErrorIs(t, err, ErrCouponUnavailable)
	assert.ErrorIs(t, err, coupon.ErrNetworkError)
	assert.Zero(t, store.Discount())
	assert.Empty(t, rec.ofType(EventCartChanged))

	notes := rec.ofType(EventNotification)
	require.Len(t, notes, 1)
	assert.Equal(t, MsgCouponFailed, notes[0].Notification.Message)
}

func TestCartStore_ApplyCoupon_NoService(t *testing.T) {
	store, _, rec := setupCartStoreTest(t, nil)

	assert.ErrorIs(t, store.ApplyCoupon(context.Background(), "X"), ErrCouponUnavailable)
	assert.Len(t, rec.ofType(EventNotification), 1)
}

func TestCartStore_ApplyCoupon_DoesNotBlockMutations(t *testing.T) {
	coupons := &fakeCoupons{
		resp: &coupon.ApplyResponse{Success: true, Discount: 1000},
		gate: make(chan struct{}),
	}
	store, _, _ := setupCartStoreTest(t, coupons, item("a", 100000, 1))

	done := make(chan error, 1)
	go func() {
		done <- store.ApplyCoupon(context.Background(), "SLOW")
	}()

	require.Eventually(t, func() bool {
		coupons.mu.Lock()
		defer coupons.mu.Unlock()
		return len(coupons.codes) == 1
	}, time.Second, 5*time.Millisecond)

	// The round trip is pending; mutations still go through.
	assert.True(t, store.Increase("a"))
	assert.Equal(t, 2, store.Items()[0].Quantity)

	close(coupons.gate)
	require.NoError(t, <-done)

	summary := store.Snapshot()
	assert.Equal(t, int64(1000), summary.Discount)
	assert.Equal(t, int64(200000), summary.Total)
}

func TestCartStore_ApplyCouponAsync(t *testing.T) {
	pool, err := ants.NewPool(2)
	require.NoError(t, err)
	t.Cleanup(pool.Release)

	repo := repository.NewCartRepository(storage.NewMemoryStore(), "cart")
	coupons := &fakeCoupons{resp: &coupon.ApplyResponse{Success: true, Discount: 700}}
	store := NewCartStore(context.Background(), repo, coupons, CartStoreOptions{Workers: pool})

	require.NoError(t, store.ApplyCouponAsync("LATER"))
	assert.Eventually(t, func() bool {
		return store.Discount() == 700
	}, time.Second, 5*time.Millisecond)
}

func TestCartStore_Checkout(t *testing.T) {
	t.Run("empty cart", func(t *testing.T) {
		store, _, rec := setupCartStoreTest(t, nil)
		navigated := false

		err := store.Checkout(NavigatorFunc(func(string) { navigated = true }))

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.ErrorIs(t, err, ErrCartEmpty)
		assert.False(t, navigated)

		notes := rec.ofType(EventNotification)
		require.Len(t, notes, 1)
		assert.Equal(t, MsgCartEmpty, notes[0].Notification.Message)
		assert.Empty(t, rec.ofType(EventCheckout))
	})

	t.Run("missing color or size", func(t *testing.T) {
		store, _, rec := setupCartStoreTest(t, nil,
			item("a", 1, 1),
			model.LineItem{ID: "b", Price: 1, Quantity: 1, Color: "red"},
			model.LineItem{ID: "c", Price: 1, Quantity: 1, Size: "S"},
		)
		navigated := false

		err := store.Checkout(NavigatorFunc(func(string) { navigated = true }))

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.ErrorIs(t, err, ErrVariantMissing)
		assert.Equal(t, []string{"b", "c"}, verr.ItemIDs)
		assert.False(t, navigated)
		assert.Len(t, rec.ofType(EventNotification), 1)
	})

	t.Run("valid cart navigates", func(t *testing.T) {
		store, _, rec := setupCartStoreTest(t, nil, item("a", 1, 1))
		var path string

		err := store.Checkout(NavigatorFunc(func(p string) { path = p }))
		require.NoError(t, err)
		assert.Equal(t, "/checkout", path)

		events := rec.ofType(EventCheckout)
		require.Len(t, events, 1)
		assert.Equal(t, "/checkout", events[0].Redirect)
	})
}

func TestCartStore_PersistFailureKeepsState(t *testing.T) {
	store := NewCartStore(context.Background(), failingRepo{}, nil, CartStoreOptions{})

	assert.True(t, store.Add(item("a", 10, 1)))
	assert.True(t, store.Increase("a"))
	assert.Equal(t, 2, store.Items()[0].Quantity)
}

func TestCartStore_Unsubscribe(t *testing.T) {
	store, _, _ := setupCartStoreTest(t, nil, item("a", 1, 1))

	count := 0
	unsubscribe := store.Subscribe(func(Event) { count++ })
	assert.Equal(t, 2, store.SubscriberCount())

	store.Increase("a")
	unsubscribe()
	unsubscribe()
	store.Increase("a")

	assert.Equal(t, 1, count)
	assert.Equal(t, 1, store.SubscriberCount())
}

func TestCartStore_PanickingListenerDoesNotStopDelivery(t *testing.T) {
	store, _, rec := setupCartStoreTest(t, nil, item("a", 1, 1))
	store.Subscribe(func(Event) { panic("boom") })

	got := false
	store.Subscribe(func(Event) { got = true })

	assert.True(t, store.Increase("a"))
	assert.True(t, got)
	assert.Len(t, rec.ofType(EventCartChanged), 1)
}

func TestCartStore_ListenerMayReadStore(t *testing.T) {
	store, _, _ := setupCartStoreTest(t, nil, item("a", 1, 1))

	var seen int
	store.Subscribe(func(e Event) {
		if e.Type == EventCartChanged {
			seen = store.Items()[0].Quantity
		}
	})

	store.Increase("a")
	assert.Equal(t, 2, seen)
}
