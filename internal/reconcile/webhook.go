package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"mizora-service/internal/orders"
	"mizora-service/internal/payment"
	"mizora-service/pkg/logkey"
)

// HandleEvent applies a verified provider event. Unknown event types and
// events for unknown orders are logged and dropped.
func (r *Reconciler) HandleEvent(ctx context.Context, ev payment.Event) error {
	log := slog.With(slog.String(logkey.EventType, ev.Type), slog.String("EventID", ev.ID))

	switch ev.Type {
	case payment.EventSessionCompleted, "checkout.session.async_payment_succeeded":
		if ev.Session == nil {
			return nil
		}
		s := ev.Session
		// async methods complete the session before the money arrives
		if s.PaymentStatus == "unpaid" {
			log.Info("session completed without payment yet", slog.String(logkey.SessionID, s.ID))
			o, ok, err := r.orderForSession(ctx, s)
			if err != nil || !ok {
				return err
			}
			return r.recordPaymentIntent(ctx, o.ID, s.PaymentIntentID)
		}
		o, ok, err := r.orderForSession(ctx, s)
		if err != nil || !ok {
			return err
		}
		if uid := s.UserID(); uid != "" && uid != o.UserID {
			log.Warn("session user differs from order owner", slog.String(logkey.OrderID, o.ID), slog.String(logkey.UserID, uid))
		}
		out, err := r.ConfirmPayment(ctx, o.ID, SourceWebhook, Evidence{SessionID: s.ID, PaymentIntentID: s.PaymentIntentID})
		if err != nil {
			return err
		}
		if !out.Applied {
			log.Info("order already paid", slog.String(logkey.OrderID, o.ID))
		}
		return nil

	case payment.EventSessionExpired:
		if ev.Session == nil {
			return nil
		}
		o, ok, err := r.orderForSession(ctx, ev.Session)
		if err != nil || !ok {
			return err
		}
		changed, err := r.orders.MarkExpired(ctx, o.ID)
		if err != nil {
			return fmt.Errorf("expire order %s: %w", o.ID, err)
		}
		log.Info("checkout session expired", slog.String(logkey.OrderID, o.ID), slog.Bool("changed", changed))
		return nil

	case payment.EventPaymentFailed:
		o, found, err := r.orderForPaymentIntent(ctx, ev)
		if err != nil || !found {
			return err
		}
		changed, err := r.orders.MarkPaymentFailed(ctx, o.ID)
		if err != nil {
			return fmt.Errorf("mark payment failed on %s: %w", o.ID, err)
		}
		log.Info("payment failed", slog.String(logkey.OrderID, o.ID), slog.Bool("changed", changed))
		return nil

	default:
		log.Info("Unhandled event type")
		return nil
	}
}

// orderForSession finds the order by metadata, falling back to the stored session id.
func (r *Reconciler) orderForSession(ctx context.Context, s *payment.Session) (orders.Order, bool, error) {
	var (
		o   orders.Order
		err error
	)
	if id := s.OrderID(); id != "" {
		o, err = r.orders.Get(ctx, id)
	} else {
		o, err = r.orders.FindBySession(ctx, s.ID)
	}
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			slog.Warn("no order for checkout session", slog.String(logkey.SessionID, s.ID), slog.String(logkey.OrderID, s.OrderID()))
			return orders.Order{}, false, nil
		}
		return orders.Order{}, false, fmt.Errorf("find order for session %s: %w", s.ID, err)
	}
	return o, true, nil
}

// orderForPaymentIntent finds the order by intent id, falling back to the
// order id in the intent metadata. The intent id is recorded on the way.
func (r *Reconciler) orderForPaymentIntent(ctx context.Context, ev payment.Event) (orders.Order, bool, error) {
	o, err := r.orders.FindByPaymentIntent(ctx, ev.PaymentIntentID)
	if err == nil {
		return o, true, nil
	}
	if !errors.Is(err, orders.ErrNotFound) {
		return orders.Order{}, false, fmt.Errorf("find order by payment intent: %w", err)
	}
	if ev.OrderID != "" {
		o, err = r.orders.Get(ctx, ev.OrderID)
		if err == nil {
			return o, true, r.recordPaymentIntent(ctx, o.ID, ev.PaymentIntentID)
		}
		if !errors.Is(err, orders.ErrNotFound) {
			return orders.Order{}, false, fmt.Errorf("find order %s: %w", ev.OrderID, err)
		}
	}
	slog.Warn("no order for payment intent", slog.String("PaymentIntentID", ev.PaymentIntentID), slog.String(logkey.OrderID, ev.OrderID))
	return orders.Order{}, false, nil
}

func (r *Reconciler) recordPaymentIntent(ctx context.Context, orderID, paymentIntentID string) error {
	if paymentIntentID == "" {
		return nil
	}
	if _, err := r.orders.AttachPaymentIntent(ctx, orderID, paymentIntentID); err != nil {
		return fmt.Errorf("record payment intent on %s: %w", orderID, err)
	}
	return nil
}
