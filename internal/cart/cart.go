package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"mizora-service/internal/apperr"
	"mizora-service/internal/catalog"
	"mizora-service/internal/pricing"
	"mizora-service/pkg/logkey"
)

type Conf struct {
	store    Store
	resolver catalog.Resolver
}

func NewConf(store Store, resolver catalog.Resolver) (Conf, error) {
	if store == nil {
		return Conf{}, fmt.Errorf("cart store is nil")
	}
	if resolver == nil {
		return Conf{}, fmt.Errorf("product resolver is nil")
	}
	return Conf{store: store, resolver: resolver}, nil
}

// GetCart joins the user's lines with current product data. Lines whose
// product no longer resolves are left out of the response but kept in storage.
func (c *Conf) GetCart(ctx context.Context, userID string) (*CartResponse, error) {
	items, err := c.store.ListItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	resp := &CartResponse{Items: []Line{}}
	totals := make([]float64, 0, len(items))
	for _, it := range items {
		p := c.resolver.Resolve(ctx, it.ProductID)
		if p == nil {
			slog.Warn("dropping cart line with unknown product", slog.String(logkey.UserID, userID), slog.String(logkey.ProductID, it.ProductID))
			continue
		}
		unit := pricing.EffectivePrice(p.Price, p.Weight, it.SelectedSize)
		line := Line{
			ID:           it.ID,
			ProductID:    it.ProductID,
			Quantity:     it.Quantity,
			SelectedSize: it.SelectedSize,
			UnitPrice:    unit,
			LineTotal:    pricing.LineTotal(unit, it.Quantity),
			Product:      *p,
		}
		resp.Items = append(resp.Items, line)
		resp.ItemCount += it.Quantity
		totals = append(totals, line.LineTotal)
	}
	resp.Subtotal = pricing.Sum(totals...)
	return resp, nil
}

// AddItem merges quantity into the (product, size) line of the user's cart.
func (c *Conf) AddItem(ctx context.Context, userID, productID string, quantity int, size string) (Item, error) {
	if productID == "" {
		return Item{}, apperr.Validation("productId is required")
	}
	if quantity < 1 || quantity > MaxQuantity {
		return Item{}, apperr.Validation("quantity must be between 1 and %d", MaxQuantity)
	}
	if c.resolver.Resolve(ctx, productID) == nil {
		return Item{}, apperr.NotFound("product %s not found", productID)
	}

	it, err := c.store.Upsert(ctx, userID, productID, size, quantity, MaxQuantity)
	if err != nil {
		if errors.Is(err, ErrQuantityExceeded) {
			return Item{}, apperr.Validation("cannot have more than %d of one item in the cart", MaxQuantity)
		}
		return Item{}, fmt.Errorf("add item: %w", err)
	}
	return it, nil
}

// SetQuantity overwrites a line's quantity. Zero or less removes the line,
// which succeeds even when there is nothing to remove.
func (c *Conf) SetQuantity(ctx context.Context, userID, productID, size string, quantity int) error {
	if productID == "" {
		return apperr.Validation("productId is required")
	}
	if quantity <= 0 {
		return c.Remove(ctx, userID, productID, size)
	}
	if quantity > MaxQuantity {
		return apperr.Validation("quantity must be between 1 and %d", MaxQuantity)
	}
	found, err := c.store.UpdateQuantity(ctx, userID, productID, size, quantity)
	if err != nil {
		return fmt.Errorf("set quantity: %w", err)
	}
	if !found {
		return apperr.NotFound("item not in cart")
	}
	return nil
}

func (c *Conf) Remove(ctx context.Context, userID, productID, size string) error {
	if _, err := c.store.DeleteItem(ctx, userID, productID, size); err != nil {
		return fmt.Errorf("remove item: %w", err)
	}
	return nil
}

// Clear empties the user's cart and reports how many lines went.
func (c *Conf) Clear(ctx context.Context, userID string) (int64, error) {
	n, err := c.store.Clear(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("clear cart: %w", err)
	}
	return n, nil
}
