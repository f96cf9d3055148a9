// Package reconcile moves orders to their paid or failed state from either
// provider webhooks or a client asking after the redirect. Both paths share
// ConfirmPayment, whose conditional update makes confirmation idempotent.
package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mizora-service/internal/apperr"
	"mizora-service/internal/email"
	"mizora-service/internal/orders"
	"mizora-service/internal/payment"
	"mizora-service/internal/stores/kafka"
	"mizora-service/pkg/logkey"
)

type Source string

const (
	SourceWebhook    Source = "webhook"
	SourceClientPoll Source = "client_poll"
)

// Evidence is what the provider told us about the payment.
type Evidence struct {
	SessionID       string
	PaymentIntentID string
}

type Outcome struct {
	Order orders.Order
	// Applied is true for the one call that moved the order to paid.
	Applied bool
}

type CartClearer interface {
	Clear(ctx context.Context, userID string) (int64, error)
}

type Producer interface {
	ProduceMessage(ctx context.Context, topic string, key, value []byte) error
}

type Reconciler struct {
	orders   orders.Store
	carts    CartClearer
	provider payment.Provider
	mailer   email.Sender
	events   Producer
	timeout  time.Duration

	wg sync.WaitGroup
}

func New(store orders.Store, carts CartClearer, provider payment.Provider, mailer email.Sender, events Producer, timeout time.Duration) *Reconciler {
	if mailer == nil {
		mailer = email.LogSender{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Reconciler{orders: store, carts: carts, provider: provider, mailer: mailer, events: events, timeout: timeout}
}

// ConfirmPayment marks the order paid if it is not already. Only the call
// that performs the transition clears the cart and announces the order.
func (r *Reconciler) ConfirmPayment(ctx context.Context, orderID string, src Source, ev Evidence) (Outcome, error) {
	applied, err := r.orders.MarkPaid(ctx, orderID, ev.PaymentIntentID, ev.SessionID)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			return Outcome{}, apperr.NotFound("Order not found")
		}
		return Outcome{}, fmt.Errorf("confirm payment: %w", err)
	}
	o, err := r.orders.Get(ctx, orderID)
	if err != nil {
		return Outcome{}, fmt.Errorf("confirm payment: reload order: %w", err)
	}
	if !applied {
		return Outcome{Order: o}, nil
	}

	slog.Info("order paid", slog.String(logkey.OrderID, o.ID), slog.String(logkey.UserID, o.UserID),
		slog.String(logkey.SessionID, o.CheckoutSessionID), slog.String("source", string(src)))

	if n, err := r.carts.Clear(ctx, o.UserID); err != nil {
		slog.Error("failed to clear cart after payment", slog.String(logkey.OrderID, o.ID),
			slog.String(logkey.UserID, o.UserID), slog.String(logkey.ERROR, err.Error()))
	} else {
		slog.Info("cart cleared", slog.String(logkey.UserID, o.UserID), slog.Int64("lines", n))
	}

	r.afterPaid(context.WithoutCancel(ctx), o, src)
	return Outcome{Order: o, Applied: true}, nil
}

// afterPaid sends the confirmation email and order events in the background.
func (r *Reconciler) afterPaid(ctx context.Context, o orders.Order, src Source) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if o.CustomerEmail != "" {
			res := r.mailer.Send(ctx, email.KindOrderConfirmation, o.CustomerEmail, o)
			if !res.Success {
				slog.Error("order confirmation email failed", slog.String(logkey.OrderID, o.ID), slog.String(logkey.ERROR, res.Error))
			}
		}
		if r.events == nil {
			return
		}
		for _, it := range o.Items {
			data, err := json.Marshal(kafka.OrderPaidEvent{
				OrderId:      o.ID,
				UserId:       o.UserID,
				ProductId:    it.ProductID,
				SelectedSize: it.SelectedSize,
				Quantity:     it.Quantity,
				Source:       string(src),
				CreatedAt:    time.Now().UTC(),
			})
			if err != nil {
				slog.Error("failed to marshal OrderPaidEvent", slog.String(logkey.ERROR, err.Error()))
				return
			}
			if err := r.events.ProduceMessage(ctx, kafka.TopicOrderPaid, []byte(o.ID), data); err != nil {
				slog.Error("failed to produce message", slog.String(logkey.OrderID, o.ID), slog.String(logkey.ERROR, err.Error()))
				return
			}
		}
	}()
}

// Wait blocks until background work started by confirmations is done.
func (r *Reconciler) Wait() { r.wg.Wait() }
