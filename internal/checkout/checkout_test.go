package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mizora-service/internal/apperr"
	"mizora-service/internal/cart"
	"mizora-service/internal/catalog"
	"mizora-service/internal/orders"
	"mizora-service/internal/payment"
	"mizora-service/internal/pricing"
)

type fakeProvider struct {
	last payment.SessionRequest
	err  error
}

func (f *fakeProvider) CreateSession(_ context.Context, req payment.SessionRequest) (payment.Session, error) {
	f.last = req
	if f.err != nil {
		return payment.Session{}, f.err
	}
	return payment.Session{ID: "cs_1", URL: "https://pay.example/cs_1"}, nil
}

func (f *fakeProvider) GetSession(context.Context, string) (payment.Session, error) {
	return payment.Session{}, errors.New("not used")
}

func (f *fakeProvider) ParseWebhook([]byte, string) (payment.Event, error) {
	return payment.Event{}, errors.New("not used")
}

// attachFailingStore loses every session link.
type attachFailingStore struct {
	*orders.MemoryStore
}

func (attachFailingStore) AttachSession(context.Context, string, string) error {
	return errors.New("connection reset")
}

func address() orders.ShippingAddress {
	return orders.ShippingAddress{FullName: "Aiko", Address: "12 Tea Garden Road", City: "Bengaluru",
		State: "Karnataka", PostalCode: "560001", Country: "India"}
}

func newService(t *testing.T, provider payment.Provider, store orders.Store) (*Service, cart.Conf) {
	t.Helper()
	cc, err := cart.NewConf(cart.NewMemoryStore(), catalog.NewChainedResolver(catalog.NewSeedSource()))
	require.NoError(t, err)
	rule := pricing.DefaultShippingRule()
	factory := orders.NewFactory(store, &cc, rule)
	bridge := NewBridge(provider, store, rule, "inr", "https://mizora.in/")
	return NewService(factory, bridge, store), cc
}

func TestCheckoutBuildsSession(t *testing.T) {
	ctx := context.Background()
	store := orders.NewMemoryStore()
	provider := &fakeProvider{}
	svc, cc := newService(t, provider, store)

	_, err := cc.AddItem(ctx, "u1", "5", 1, "")
	require.NoError(t, err)
	_, err = cc.AddItem(ctx, "u1", "1", 1, "100g")
	require.NoError(t, err)

	res, err := svc.Checkout(ctx, "u1", "aiko@example.com", address())
	require.NoError(t, err)
	assert.Equal(t, "cs_1", res.SessionID)
	assert.Equal(t, "https://pay.example/cs_1", res.SessionURL)

	req := provider.last
	assert.Equal(t, res.OrderID, req.OrderID)
	assert.Equal(t, "u1", req.UserID)
	assert.Equal(t, "inr", req.Currency)
	require.Len(t, req.LineItems, 2)
	amounts := map[string]int64{}
	for _, li := range req.LineItems {
		amounts[li.Name] = li.UnitAmount
	}
	assert.Equal(t, int64(19900), amounts["Bamboo Whisk (Chasen)"])
	assert.Equal(t, int64(124750), amounts["Ceremonial Grade Matcha (100g)"])
	assert.Equal(t, int64(0), req.ShippingAmount)
	assert.Equal(t, "Free Shipping", req.ShippingLabel)
	assert.Equal(t, "IN", req.Shipping.Country)
	assert.Equal(t, "https://mizora.in/checkout/success?session_id={CHECKOUT_SESSION_ID}&order_id="+res.OrderID, req.SuccessURL)
	assert.Equal(t, "https://mizora.in/checkout/cancel?order_id="+res.OrderID, req.CancelURL)

	o, err := store.Get(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "cs_1", o.CheckoutSessionID)
	assert.Equal(t, orders.PaymentPending, o.PaymentStatus)
}

func TestCheckoutSmallOrderPaysShipping(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{}
	svc, cc := newService(t, provider, orders.NewMemoryStore())
	_, err := cc.AddItem(ctx, "u1", "9", 1, "")
	require.NoError(t, err)

	_, err = svc.Checkout(ctx, "u1", "", address())
	require.NoError(t, err)
	assert.Equal(t, int64(5000), provider.last.ShippingAmount)
	assert.Equal(t, "Standard Shipping", provider.last.ShippingLabel)
	assert.Equal(t, []string{"https://mizora.in/images/sifft_texture_new.jpg"}, provider.last.LineItems[0].Images)
}

func TestCheckoutProviderFailureLeavesNoOrder(t *testing.T) {
	ctx := context.Background()
	store := orders.NewMemoryStore()
	svc, cc := newService(t, &fakeProvider{err: errors.New("stripe down")}, store)
	_, err := cc.AddItem(ctx, "u1", "1", 1, "")
	require.NoError(t, err)

	_, err = svc.Checkout(ctx, "u1", "", address())
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))

	_, total, err := store.ListByUser(ctx, "u1", orders.ListFilter{}.Normalize())
	require.NoError(t, err)
	assert.Zero(t, total)

	c, _ := cc.GetCart(ctx, "u1")
	assert.Len(t, c.Items, 1, "cart is untouched")
}

func TestCheckoutPersistFailureStillReturnsSession(t *testing.T) {
	ctx := context.Background()
	store := attachFailingStore{orders.NewMemoryStore()}
	svc, cc := newService(t, &fakeProvider{}, store)
	_, err := cc.AddItem(ctx, "u1", "1", 1, "")
	require.NoError(t, err)

	res, err := svc.Checkout(ctx, "u1", "", address())
	require.NoError(t, err)
	assert.Equal(t, "cs_1", res.SessionID)

	o, err := store.Get(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Empty(t, o.CheckoutSessionID)
}

func TestCheckoutEmptyCart(t *testing.T) {
	provider := &fakeProvider{}
	svc, _ := newService(t, provider, orders.NewMemoryStore())
	_, err := svc.Checkout(context.Background(), "u1", "", address())
	assert.True(t, errors.Is(err, apperr.ErrEmptyCart))
	assert.Empty(t, provider.last.OrderID, "provider never called")
}
