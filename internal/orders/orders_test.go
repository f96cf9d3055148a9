package orders

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mizora-service/internal/apperr"
	"mizora-service/internal/cart"
	"mizora-service/internal/catalog"
	"mizora-service/internal/pricing"
)

func validAddress() ShippingAddress {
	return ShippingAddress{
		FullName:   "  Aiko Tanaka ",
		Address:    "12 Tea Garden Road",
		City:       "Bengaluru",
		State:      "Karnataka",
		PostalCode: "560001",
		Country:    "India",
		Phone:      "+91 98765 43210",
	}
}

func setup(t *testing.T) (*Factory, cart.Conf, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	cc, err := cart.NewConf(cart.NewMemoryStore(), catalog.NewChainedResolver(catalog.NewSeedSource()))
	require.NoError(t, err)
	return NewFactory(store, &cc, pricing.DefaultShippingRule()), cc, store
}

func TestCreateOrderSnapshotsCart(t *testing.T) {
	ctx := context.Background()
	f, cc, store := setup(t)

	_, err := cc.AddItem(ctx, "u1", "1", 1, "100g")
	require.NoError(t, err)
	_, err = cc.AddItem(ctx, "u1", "5", 2, "")
	require.NoError(t, err)

	o, err := f.CreateOrder(ctx, "u1", "aiko@example.com", validAddress())
	require.NoError(t, err)

	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, PaymentPending, o.PaymentStatus)
	assert.Equal(t, "Aiko Tanaka", o.ShippingAddress.FullName)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "Ceremonial Grade Matcha (100g)", o.Items[0].Name)
	assert.Equal(t, 1247.5, o.Items[0].Price)
	assert.Equal(t, "/images/ceremonial_tin_new.jpg", o.Items[0].Image)
	assert.Equal(t, 1247.5+398.0, o.Total)
	assert.Equal(t, 0.0, o.ShippingCost)

	// the cart survives order creation
	c, err := cc.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, c.Items, 2)

	// later cart edits do not reach the stored snapshot
	require.NoError(t, cc.SetQuantity(ctx, "u1", "5", "", 9))
	stored, err := store.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Items[1].Quantity)
	assert.Equal(t, o.Total, stored.Total)
}

func TestCreateOrderChargesShippingUnderThreshold(t *testing.T) {
	ctx := context.Background()
	f, cc, _ := setup(t)
	_, err := cc.AddItem(ctx, "u1", "5", 1, "")
	require.NoError(t, err)

	o, err := f.CreateOrder(ctx, "u1", "", validAddress())
	require.NoError(t, err)
	assert.Equal(t, 199.0, o.Total)
	assert.Equal(t, 50.0, o.ShippingCost)
	assert.Equal(t, 249.0, o.AmountDue())
}

func TestCreateOrderEmptyCart(t *testing.T) {
	f, _, store := setup(t)
	_, err := f.CreateOrder(context.Background(), "u1", "", validAddress())
	assert.True(t, errors.Is(err, apperr.ErrEmptyCart))

	_, total, _ := store.ListByUser(context.Background(), "u1", ListFilter{}.Normalize())
	assert.Zero(t, total)
}

func TestCreateOrderRejectsBadAddress(t *testing.T) {
	ctx := context.Background()
	f, cc, _ := setup(t)
	_, err := cc.AddItem(ctx, "u1", "1", 1, "")
	require.NoError(t, err)

	addr := validAddress()
	addr.PostalCode = "#1"
	_, err = f.CreateOrder(ctx, "u1", "", addr)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, "Invalid postal code format", apperr.Message(err))

	addr = validAddress()
	addr.City = "   "
	_, err = f.CreateOrder(ctx, "u1", "", addr)
	assert.Equal(t, "city is required", apperr.Message(err))
}

func TestAddressSanitize(t *testing.T) {
	long := make([]rune, 250)
	for i := range long {
		long[i] = 'a'
	}
	a := ShippingAddress{FullName: string(long), Address: string(long), PostalCode: " 560 001 "}.Sanitize()
	assert.Len(t, a.FullName, 100)
	assert.Len(t, a.Address, 200)
	assert.Equal(t, "560 001", a.PostalCode)
}

func TestCountryCode(t *testing.T) {
	assert.Equal(t, "IN", ShippingAddress{Country: "India"}.CountryCode())
	assert.Equal(t, "GB", ShippingAddress{Country: " uk "}.CountryCode())
	assert.Equal(t, "NE", ShippingAddress{Country: "Nepal"}.CountryCode())
}

func TestMarkPaidIsCompareAndSet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Create(ctx, Order{ID: "o1", UserID: "u1", Status: StatusPending, PaymentStatus: PaymentPending}))

	var applied int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.MarkPaid(ctx, "o1", "pi_1", "cs_1")
			if err == nil && ok {
				atomic.AddInt32(&applied, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), applied)

	o, err := store.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, PaymentPaid, o.PaymentStatus)
	assert.Equal(t, StatusConfirmed, o.Status)
	assert.Equal(t, "pi_1", o.PaymentIntentID)
	assert.Equal(t, "cs_1", o.CheckoutSessionID)

	// paid is terminal
	ok, err := store.MarkExpired(ctx, "o1")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = store.MarkPaymentFailed(ctx, "o1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAttachPaymentIntent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Create(ctx, Order{ID: "o1", PaymentStatus: PaymentPending, Status: StatusPending, CheckoutSessionID: "cs_1"}))

	ok, err := store.AttachPaymentIntent(ctx, "o1", "pi_1")
	require.NoError(t, err)
	assert.True(t, ok)
	found, err := store.FindByPaymentIntent(ctx, "pi_1")
	require.NoError(t, err)
	assert.Equal(t, "o1", found.ID)

	ok, err = store.AttachPaymentIntent(ctx, "o1", "")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.MarkPaid(ctx, "o1", "pi_2", "cs_1")
	require.NoError(t, err)
	ok, err = store.AttachPaymentIntent(ctx, "o1", "pi_3")
	require.NoError(t, err)
	assert.False(t, ok)
	o, _ := store.Get(ctx, "o1")
	assert.Equal(t, "pi_2", o.PaymentIntentID)

	_, err = store.AttachPaymentIntent(ctx, "missing", "pi_1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMarkPaidKeepsExistingSession(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Create(ctx, Order{ID: "o1", PaymentStatus: PaymentPending, Status: StatusPending, CheckoutSessionID: "cs_orig"}))
	_, err := store.MarkPaid(ctx, "o1", "", "cs_other")
	require.NoError(t, err)
	o, _ := store.Get(ctx, "o1")
	assert.Equal(t, "cs_orig", o.CheckoutSessionID)
}

func TestCancelRules(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	c, err := NewConf(store)
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, Order{ID: "o1", UserID: "u1", Status: StatusConfirmed, PaymentStatus: PaymentPaid}))
	require.NoError(t, store.Create(ctx, Order{ID: "o2", UserID: "u1", Status: StatusShipped, PaymentStatus: PaymentPaid}))

	_, err = c.Cancel(ctx, "u2", "o1")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	o, err := c.Cancel(ctx, "u1", "o1")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, o.Status)

	_, err = c.Cancel(ctx, "u1", "o2")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestListPaginates(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	c, _ := NewConf(store)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		st := StatusPending
		if i%2 == 0 {
			st = StatusConfirmed
		}
		require.NoError(t, store.Create(ctx, Order{ID: string(rune('a' + i)), UserID: "u1", Status: st, CreatedAt: base.Add(time.Duration(i) * time.Hour)}))
	}
	require.NoError(t, store.Create(ctx, Order{ID: "z", UserID: "u2", Status: StatusPending}))

	p, err := c.List(ctx, "u1", ListFilter{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, p.Total)
	assert.Equal(t, 3, p.TotalPages)
	require.Len(t, p.Orders, 2)
	assert.Equal(t, "e", p.Orders[0].ID)

	p, err = c.List(ctx, "u1", ListFilter{Page: 2, Limit: 2, Status: StatusConfirmed})
	require.NoError(t, err)
	assert.Equal(t, 3, p.Total)
	require.Len(t, p.Orders, 1)
	assert.Equal(t, "a", p.Orders[0].ID)

	_, err = c.Get(ctx, "u1", "z")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDiscardOnlyRemovesSessionlessPending(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Create(ctx, Order{ID: "o1", PaymentStatus: PaymentPending}))
	require.NoError(t, store.Create(ctx, Order{ID: "o2", PaymentStatus: PaymentPending, CheckoutSessionID: "cs"}))
	require.NoError(t, store.Discard(ctx, "o1"))
	require.NoError(t, store.Discard(ctx, "o2"))

	_, err := store.Get(ctx, "o1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, "o2")
	assert.NoError(t, err)
}
