package orders

import (
	"context"
	"errors"
	"fmt"

	"mizora-service/internal/apperr"
)

// Conf serves a customer's view of their own orders.
type Conf struct {
	store Store
}

func NewConf(store Store) (*Conf, error) {
	if store == nil {
		return nil, fmt.Errorf("order store is nil")
	}
	return &Conf{store: store}, nil
}

func (c *Conf) List(ctx context.Context, userID string, f ListFilter) (Page, error) {
	f = f.Normalize()
	list, total, err := c.store.ListByUser(ctx, userID, f)
	if err != nil {
		return Page{}, fmt.Errorf("list orders: %w", err)
	}
	return Page{Orders: list, Page: f.Page, Limit: f.Limit, Total: total, TotalPages: totalPages(total, f.Limit)}, nil
}

// Get hides other users' orders behind NotFound.
func (c *Conf) Get(ctx context.Context, userID, id string) (Order, error) {
	o, err := c.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Order{}, apperr.NotFound("Order not found")
		}
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	if o.UserID != userID {
		return Order{}, apperr.NotFound("Order not found")
	}
	return o, nil
}

func (c *Conf) Cancel(ctx context.Context, userID, id string) (Order, error) {
	ok, err := c.store.Cancel(ctx, id, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Order{}, apperr.NotFound("Order not found")
		}
		return Order{}, fmt.Errorf("cancel order: %w", err)
	}
	if !ok {
		return Order{}, apperr.Validation("Order cannot be cancelled")
	}
	return c.Get(ctx, userID, id)
}
