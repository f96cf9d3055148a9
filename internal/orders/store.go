package orders

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("order not found")

// Store persists orders. Every Mark* method is a conditional update and
// reports whether it changed the row.
type Store interface {
	Create(ctx context.Context, o Order) error
	Get(ctx context.Context, id string) (Order, error)
	FindBySession(ctx context.Context, sessionID string) (Order, error)
	FindByPaymentIntent(ctx context.Context, paymentIntentID string) (Order, error)
	ListByUser(ctx context.Context, userID string, f ListFilter) ([]Order, int, error)

	AttachSession(ctx context.Context, id, sessionID string) error
	// AttachPaymentIntent records the intent id of an unpaid order so
	// payment_intent events can find it.
	AttachPaymentIntent(ctx context.Context, id, paymentIntentID string) (bool, error)
	// MarkPaid applies only while the order is not yet paid. An empty
	// session id on the order is filled from sessionID.
	MarkPaid(ctx context.Context, id, paymentIntentID, sessionID string) (bool, error)
	// MarkExpired applies only while status and payment status are both pending.
	MarkExpired(ctx context.Context, id string) (bool, error)
	// MarkPaymentFailed never downgrades a paid order.
	MarkPaymentFailed(ctx context.Context, id string) (bool, error)
	Cancel(ctx context.Context, id, userID string) (bool, error)
	// Discard deletes a pending order that never got a checkout session.
	Discard(ctx context.Context, id string) error
}
