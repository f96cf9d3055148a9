// Package checkout opens a hosted payment session for a pending order.
package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"mizora-service/internal/apperr"
	"mizora-service/internal/orders"
	"mizora-service/internal/payment"
	"mizora-service/internal/pricing"
	"mizora-service/pkg/logkey"
)

type Result struct {
	SessionID  string `json:"sessionId"`
	SessionURL string `json:"sessionUrl"`
	OrderID    string `json:"orderId"`
}

type Bridge struct {
	provider payment.Provider
	orders   orders.Store
	shipping pricing.ShippingRule
	currency string
	baseURL  string
}

func NewBridge(provider payment.Provider, store orders.Store, shipping pricing.ShippingRule, currency, baseURL string) *Bridge {
	return &Bridge{
		provider: provider,
		orders:   store,
		shipping: shipping,
		currency: currency,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// CreateCheckoutSession asks the provider for a session covering the order
// and records the session id on it. A failed record is reported but the
// session is still returned; payment confirmation can repair the link from
// the session metadata.
func (b *Bridge) CreateCheckoutSession(ctx context.Context, o orders.Order) (Result, error) {
	req := b.sessionRequest(o)
	s, err := b.provider.CreateSession(ctx, req)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindUpstream, "Failed to create checkout session", err)
	}

	if err := b.orders.AttachSession(ctx, o.ID, s.ID); err != nil {
		inconsistency := apperr.Wrap(apperr.KindInconsistency, "checkout session not recorded on order", err)
		slog.Error("order/session link not persisted",
			slog.String(logkey.OrderID, o.ID), slog.String(logkey.SessionID, s.ID),
			slog.String(logkey.ERROR, inconsistency.Error()))
	}
	return Result{SessionID: s.ID, SessionURL: s.URL, OrderID: o.ID}, nil
}

func (b *Bridge) sessionRequest(o orders.Order) payment.SessionRequest {
	items := make([]payment.LineItem, 0, len(o.Items))
	for _, it := range o.Items {
		li := payment.LineItem{
			Name:       it.Name,
			UnitAmount: pricing.ToMinorUnits(it.Price),
			Quantity:   int64(it.Quantity),
		}
		if img := b.absolute(it.Image); img != "" {
			li.Images = []string{img}
		}
		items = append(items, li)
	}

	addr := o.ShippingAddress
	return payment.SessionRequest{
		OrderID:        o.ID,
		UserID:         o.UserID,
		CustomerEmail:  o.CustomerEmail,
		Currency:       b.currency,
		LineItems:      items,
		ShippingAmount: pricing.ToMinorUnits(o.ShippingCost),
		ShippingLabel:  b.shipping.Label(o.Total),
		Shipping: &payment.ShippingDetails{
			Name:       addr.FullName,
			Phone:      addr.Phone,
			Line1:      addr.Address,
			City:       addr.City,
			State:      addr.State,
			PostalCode: addr.PostalCode,
			Country:    addr.CountryCode(),
		},
		SuccessURL: fmt.Sprintf("%s/checkout/success?session_id={CHECKOUT_SESSION_ID}&order_id=%s", b.baseURL, url.QueryEscape(o.ID)),
		CancelURL:  fmt.Sprintf("%s/checkout/cancel?order_id=%s", b.baseURL, url.QueryEscape(o.ID)),
	}
}

func (b *Bridge) absolute(path string) string {
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return b.baseURL + path
}

// OrderCreator is the order factory as seen by checkout.
type OrderCreator interface {
	CreateOrder(ctx context.Context, userID, email string, addr orders.ShippingAddress) (orders.Order, error)
}

// Service runs the whole checkout: order creation, then session creation.
type Service struct {
	factory OrderCreator
	bridge  *Bridge
	orders  orders.Store
}

func NewService(factory OrderCreator, bridge *Bridge, store orders.Store) *Service {
	return &Service{factory: factory, bridge: bridge, orders: store}
}

// Checkout leaves no order behind when the provider refuses the session.
func (s *Service) Checkout(ctx context.Context, userID, email string, addr orders.ShippingAddress) (Result, error) {
	o, err := s.factory.CreateOrder(ctx, userID, email, addr)
	if err != nil {
		return Result{}, err
	}
	res, err := s.bridge.CreateCheckoutSession(ctx, o)
	if err != nil {
		if derr := s.orders.Discard(context.WithoutCancel(ctx), o.ID); derr != nil {
			slog.Error("failed to discard order after session failure",
				slog.String(logkey.OrderID, o.ID), slog.String(logkey.ERROR, derr.Error()))
		}
		return Result{}, err
	}
	return res, nil
}
