package reconcile

import (
	"context"
	"errors"
	"fmt"

	"mizora-service/internal/apperr"
	"mizora-service/internal/orders"
)

type VerifyResult struct {
	Order orders.Order `json:"order"`
	// Paid is false when the provider has not collected the payment yet.
	Paid            bool   `json:"-"`
	AlreadyPaid     bool   `json:"alreadyPaid,omitempty"`
	PaymentVerified bool   `json:"paymentVerified,omitempty"`
	ProviderStatus  string `json:"paymentStatus,omitempty"`
}

// VerifyPayment is the client's fallback after the checkout redirect. Until
// the provider confirms the session is paid only its payment intent id is
// recorded.
func (r *Reconciler) VerifyPayment(ctx context.Context, callerID, sessionID, orderID string) (VerifyResult, error) {
	if sessionID == "" || orderID == "" {
		return VerifyResult{}, apperr.Validation("Missing session ID or order ID")
	}
	o, err := r.orders.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			return VerifyResult{}, apperr.NotFound("Order not found")
		}
		return VerifyResult{}, fmt.Errorf("verify payment: %w", err)
	}
	if o.UserID != callerID {
		return VerifyResult{}, apperr.Unauthorized("Unauthorized")
	}
	if o.IsPaid() {
		return VerifyResult{Order: o, Paid: true, AlreadyPaid: true}, nil
	}
	if o.CheckoutSessionID != "" && o.CheckoutSessionID != sessionID {
		return VerifyResult{}, apperr.Unauthorized("Session does not belong to this order")
	}

	pctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	s, err := r.provider.GetSession(pctx, sessionID)
	if err != nil {
		return VerifyResult{}, apperr.Wrap(apperr.KindUpstream, "Failed to verify payment", err)
	}
	if s.OrderID() != "" && s.OrderID() != orderID {
		return VerifyResult{}, apperr.Unauthorized("Session does not belong to this order")
	}
	if !s.Paid() {
		if err := r.recordPaymentIntent(ctx, o.ID, s.PaymentIntentID); err != nil {
			return VerifyResult{}, err
		}
		return VerifyResult{Order: o, ProviderStatus: s.PaymentStatus}, nil
	}

	out, err := r.ConfirmPayment(ctx, orderID, SourceClientPoll, Evidence{SessionID: s.ID, PaymentIntentID: s.PaymentIntentID})
	if err != nil {
		return VerifyResult{}, err
	}
	return VerifyResult{Order: out.Order, Paid: true, PaymentVerified: out.Applied, AlreadyPaid: !out.Applied}, nil
}
