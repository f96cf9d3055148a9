// Package payment adapts the hosted checkout provider to the order flow.
package payment

import (
	"context"

	"mizora-service/internal/apperr"
)

const (
	EventSessionCompleted = "checkout.session.completed"
	EventSessionExpired   = "checkout.session.expired"
	EventPaymentFailed    = "payment_intent.payment_failed"

	StatusPaid = "paid"

	MetaOrderID = "orderId"
	MetaUserID  = "userId"
)

// ErrSignature means the webhook payload could not be authenticated.
var ErrSignature = apperr.New(apperr.KindSignature, "Invalid signature")

type Provider interface {
	CreateSession(ctx context.Context, req SessionRequest) (Session, error)
	GetSession(ctx context.Context, sessionID string) (Session, error)
	// ParseWebhook verifies sigHeader against payload and decodes the event.
	ParseWebhook(payload []byte, sigHeader string) (Event, error)
}

// LineItem amounts are in minor units.
type LineItem struct {
	Name        string
	Description string
	Images      []string
	UnitAmount  int64
	Quantity    int64
}

type ShippingDetails struct {
	Name       string
	Phone      string
	Line1      string
	City       string
	State      string
	PostalCode string
	Country    string // ISO 3166-1 alpha-2
}

type SessionRequest struct {
	OrderID       string
	UserID        string
	CustomerEmail string
	Currency      string
	LineItems     []LineItem

	ShippingAmount int64
	ShippingLabel  string
	Shipping       *ShippingDetails

	SuccessURL string
	CancelURL  string
}

type Session struct {
	ID              string
	URL             string
	Status          string
	PaymentStatus   string
	PaymentIntentID string
	Metadata        map[string]string
}

func (s Session) Paid() bool { return s.PaymentStatus == StatusPaid }

func (s Session) OrderID() string { return s.Metadata[MetaOrderID] }

func (s Session) UserID() string { return s.Metadata[MetaUserID] }

// Event is a verified provider notification. Session is set for
// checkout.session.* events, PaymentIntentID for payment_intent.* events.
// OrderID comes from the payment intent metadata when present.
type Event struct {
	ID              string
	Type            string
	Session         *Session
	PaymentIntentID string
	OrderID         string
}
