package handlers

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81/webhook"

	"mizora-service/internal/apperr"
	"mizora-service/internal/auth"
	"mizora-service/internal/cart"
	"mizora-service/internal/catalog"
	"mizora-service/internal/checkout"
	"mizora-service/internal/email"
	"mizora-service/internal/orders"
	"mizora-service/internal/payment"
	"mizora-service/internal/pricing"
	"mizora-service/internal/reconcile"
	"mizora-service/internal/wishlist"
)

const webhookSecret = "whsec_handlers"

// testProvider verifies webhooks like production but serves sessions from memory.
type testProvider struct {
	*payment.StripeProvider
	sessions map[string]payment.Session
	next     int
}

func (p *testProvider) CreateSession(_ context.Context, req payment.SessionRequest) (payment.Session, error) {
	p.next++
	s := payment.Session{
		ID:            fmt.Sprintf("cs_test_%d", p.next),
		URL:           fmt.Sprintf("https://checkout.test/cs_test_%d", p.next),
		PaymentStatus: "unpaid",
		Metadata:      map[string]string{payment.MetaOrderID: req.OrderID, payment.MetaUserID: req.UserID},
	}
	p.sessions[s.ID] = s
	return s, nil
}

func (p *testProvider) GetSession(_ context.Context, id string) (payment.Session, error) {
	s, ok := p.sessions[id]
	if !ok {
		return payment.Session{}, errors.New("no such session")
	}
	return s, nil
}

type app struct {
	r        *gin.Engine
	keys     *auth.Keys
	provider *testProvider
	orders   *orders.MemoryStore
	carts    *cart.MemoryStore
	rec      *reconcile.Reconciler
}

func newApp(t *testing.T) *app {
	t.Helper()
	keys, err := auth.NewKeys("test-secret")
	require.NoError(t, err)
	resolver := catalog.NewChainedResolver(catalog.NewSeedSource())
	cartStore := cart.NewMemoryStore()
	cc, err := cart.NewConf(cartStore, resolver)
	require.NoError(t, err)
	wc, err := wishlist.NewConf(wishlist.NewMemoryStore(), resolver)
	require.NoError(t, err)
	orderStore := orders.NewMemoryStore()
	oc, err := orders.NewConf(orderStore)
	require.NoError(t, err)

	provider := &testProvider{
		StripeProvider: payment.NewStripeProvider("sk_test_unused", webhookSecret, nil),
		sessions:       map[string]payment.Session{},
	}
	rule := pricing.DefaultShippingRule()
	bridge := checkout.NewBridge(provider, orderStore, rule, "inr", "https://mizora.in")
	svc := checkout.NewService(orders.NewFactory(orderStore, &cc, rule), bridge, orderStore)
	rec := reconcile.New(orderStore, &cc, provider, email.LogSender{}, nil, time.Second)

	r := API("/api", keys, Deps{
		Catalog: resolver, Cart: cc, Wishlist: wc, Orders: oc,
		Checkout: svc, Reconciler: rec, Provider: provider, Mode: gin.TestMode,
	})
	return &app{r: r, keys: keys, provider: provider, orders: orderStore, carts: cartStore, rec: rec}
}

func (a *app) token(t *testing.T, userID string) string {
	tok, err := a.keys.GenerateToken(auth.NewClaims(userID, userID+"@example.com", time.Hour))
	require.NoError(t, err)
	return tok
}

func (a *app) do(t *testing.T, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+a.token(t, userID))
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func signed(payload []byte) string {
	now := time.Now()
	return fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(webhook.ComputeSignature(now, payload, webhookSecret)))
}

func (a *app) webhook(t *testing.T, payload []byte, sig string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/webhook/payment", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", sig)
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	return w
}

var shipping = map[string]any{"shippingAddress": map[string]any{
	"fullName": "Aiko Tanaka", "address": "12 Tea Garden Road", "city": "Bengaluru",
	"state": "Karnataka", "postalCode": "560001", "country": "India",
}}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperr.Validation("bad"), http.StatusBadRequest},
		{apperr.New(apperr.KindEmptyCart, "Cart is empty"), http.StatusBadRequest},
		{errors.Join(payment.ErrSignature, errors.New("no v1")), http.StatusBadRequest},
		{fmt.Errorf("get: %w", apperr.NotFound("missing")), http.StatusNotFound},
		{apperr.Unauthorized("nope"), http.StatusUnauthorized},
		{apperr.Wrap(apperr.KindUpstream, "provider down", errors.New("timeout")), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}

func TestPing(t *testing.T) {
	a := newApp(t)
	w := a.do(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProducts(t *testing.T) {
	a := newApp(t)
	w := a.do(t, http.MethodGet, "/api/products", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"], 12)

	w = a.do(t, http.MethodGet, "/api/products/matcha-bowl", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "6", data["id"])

	w = a.do(t, http.MethodGet, "/api/products/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCartRequiresAuth(t *testing.T) {
	a := newApp(t)
	w := a.do(t, http.MethodGet, "/api/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCartEndpoints(t *testing.T) {
	a := newApp(t)

	w := a.do(t, http.MethodPost, "/api/cart", "u1", map[string]any{"productId": "1", "selectedSize": "100g"})
	assert.Equal(t, http.StatusCreated, w.Code)
	w = a.do(t, http.MethodPost, "/api/cart", "u1", map[string]any{"productId": "1", "selectedSize": "100g", "quantity": 2})
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, http.MethodPost, "/api/cart", "u1", map[string]any{"productId": "1", "quantity": 100})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = a.do(t, http.MethodPost, "/api/cart", "u1", map[string]any{"productId": "999", "quantity": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(t, http.MethodGet, "/api/cart", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, 3.0, data["itemCount"])
	assert.Equal(t, 3742.5, data["subtotal"])

	w = a.do(t, http.MethodPut, "/api/cart", "u1", map[string]any{"productId": "1", "selectedSize": "100g", "quantity": 1})
	assert.Equal(t, http.StatusOK, w.Code)
	w = a.do(t, http.MethodPut, "/api/cart", "u1", map[string]any{"productId": "2", "quantity": 4})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = a.do(t, http.MethodPut, "/api/cart", "u1", map[string]any{"productId": "2", "quantity": 0})
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, http.MethodDelete, "/api/cart?productId=1&selectedSize=100g", "u1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = a.do(t, http.MethodDelete, "/api/cart", "u1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = a.do(t, http.MethodDelete, "/api/cart?clearAll=true", "u1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWishlistEndpoints(t *testing.T) {
	a := newApp(t)
	w := a.do(t, http.MethodPost, "/api/wishlist", "u1", map[string]any{"productId": "7"})
	assert.Equal(t, http.StatusCreated, w.Code)
	w = a.do(t, http.MethodPost, "/api/wishlist", "u1", map[string]any{"productId": "7"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, http.MethodGet, "/api/wishlist", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"], 1)

	w = a.do(t, http.MethodDelete, "/api/wishlist?productId=7", "u1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = a.do(t, http.MethodDelete, "/api/wishlist?productId=7", "u1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func checkoutOne(t *testing.T, a *app, userID string) (orderID, sessionID string) {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/cart", userID, map[string]any{"productId": "2", "quantity": 1})
	require.Equal(t, http.StatusCreated, w.Code)
	w = a.do(t, http.MethodPost, "/api/checkout", userID, shipping)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decode(t, w)["data"].(map[string]any)
	return data["orderId"].(string), data["sessionId"].(string)
}

func TestCheckoutAndWebhook(t *testing.T) {
	a := newApp(t)
	orderID, sessionID := checkoutOne(t, a, "u1")

	o, err := a.orders.Get(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, sessionID, o.CheckoutSessionID)
	assert.Equal(t, "u1@example.com", o.CustomerEmail)

	payload := []byte(fmt.Sprintf(`{"id":"evt_1","object":"event","type":"checkout.session.completed",
		"data":{"object":{"id":%q,"object":"checkout.session","payment_status":"paid","payment_intent":"pi_1",
		"metadata":{"orderId":%q,"userId":"u1"}}}}`, sessionID, orderID))

	w := a.webhook(t, payload, "t=1,v1=deadbeef")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid signature", decode(t, w)["error"])
	o, _ = a.orders.Get(context.Background(), orderID)
	assert.Equal(t, orders.PaymentPending, o.PaymentStatus)

	w = a.webhook(t, payload, signed(payload))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["received"])

	w = a.webhook(t, payload, signed(payload))
	require.Equal(t, http.StatusOK, w.Code)
	a.rec.Wait()

	o, _ = a.orders.Get(context.Background(), orderID)
	assert.Equal(t, orders.PaymentPaid, o.PaymentStatus)
	assert.Equal(t, orders.StatusConfirmed, o.Status)
	items, _ := a.carts.ListItems(context.Background(), "u1")
	assert.Empty(t, items)
}

func TestWebhookPaymentFailedAfterCheckout(t *testing.T) {
	a := newApp(t)
	orderID, _ := checkoutOne(t, a, "u1")

	payload := []byte(fmt.Sprintf(`{"id":"evt_f","object":"event","type":"payment_intent.payment_failed",
		"data":{"object":{"id":"pi_declined","object":"payment_intent","metadata":{"orderId":%q,"userId":"u1"}}}}`, orderID))
	w := a.webhook(t, payload, signed(payload))
	require.Equal(t, http.StatusOK, w.Code)

	o, err := a.orders.Get(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, orders.PaymentFailed, o.PaymentStatus)
	assert.Equal(t, "pi_declined", o.PaymentIntentID)
	items, _ := a.carts.ListItems(context.Background(), "u1")
	assert.Len(t, items, 1)
}

func TestWebhookUnknownEventAndUnknownOrder(t *testing.T) {
	a := newApp(t)
	payload := []byte(`{"id":"evt_9","object":"event","type":"customer.created","data":{"object":{}}}`)
	w := a.webhook(t, payload, signed(payload))
	assert.Equal(t, http.StatusOK, w.Code)

	payload = []byte(`{"id":"evt_10","object":"event","type":"checkout.session.completed",
		"data":{"object":{"id":"cs_x","object":"checkout.session","payment_status":"paid","metadata":{"orderId":"ghost"}}}}`)
	w = a.webhook(t, payload, signed(payload))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCheckoutEmptyCart(t *testing.T) {
	a := newApp(t)
	w := a.do(t, http.MethodPost, "/api/checkout", "u1", shipping)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Cart is empty", decode(t, w)["error"])

	w = a.do(t, http.MethodPost, "/api/checkout", "u1", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyPaymentEndpoint(t *testing.T) {
	a := newApp(t)
	orderID, sessionID := checkoutOne(t, a, "u1")
	body := map[string]any{"sessionId": sessionID, "orderId": orderID}

	w := a.do(t, http.MethodPost, "/api/orders/verify-payment", "u2", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(t, http.MethodPost, "/api/orders/verify-payment", "u1", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	res := decode(t, w)
	assert.Equal(t, "unpaid", res["data"].(map[string]any)["paymentStatus"])

	s := a.provider.sessions[sessionID]
	s.PaymentStatus = payment.StatusPaid
	s.PaymentIntentID = "pi_42"
	a.provider.sessions[sessionID] = s

	w = a.do(t, http.MethodPost, "/api/orders/verify-payment", "u1", body)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, true, data["paymentVerified"])

	w = a.do(t, http.MethodPost, "/api/orders/verify-payment", "u1", body)
	require.Equal(t, http.StatusOK, w.Code)
	data = decode(t, w)["data"].(map[string]any)
	assert.Equal(t, true, data["alreadyPaid"])
	a.rec.Wait()
}

func TestOrdersEndpoints(t *testing.T) {
	a := newApp(t)
	orderID, _ := checkoutOne(t, a, "u1")

	w := a.do(t, http.MethodGet, "/api/orders?limit=5", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Len(t, data["orders"], 1)
	assert.Equal(t, 1.0, data["pagination"].(map[string]any)["totalPages"])

	w = a.do(t, http.MethodGet, "/api/orders?status=bogus", "u1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodGet, "/api/orders/"+orderID, "u2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = a.do(t, http.MethodGet, "/api/orders/"+orderID, "u1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, http.MethodPatch, "/api/orders/"+orderID, "u1", map[string]any{"status": "shipped"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = a.do(t, http.MethodPatch, "/api/orders/"+orderID, "u1", map[string]any{"status": "cancelled"})
	require.Equal(t, http.StatusOK, w.Code)
	w = a.do(t, http.MethodPatch, "/api/orders/"+orderID, "u1", map[string]any{"status": "cancelled"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
