package wishlist

import (
	"context"
	"fmt"
	"time"

	"mizora-service/internal/apperr"
	"mizora-service/internal/catalog"
)

type Item struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ProductID string    `json:"productId"`
	CreatedAt time.Time `json:"createdAt"`
}

type Entry struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	CreatedAt time.Time       `json:"createdAt"`
	Product   catalog.Product `json:"product"`
}

type Store interface {
	List(ctx context.Context, userID string) ([]Item, error)
	// Add reports false when the product was already saved.
	Add(ctx context.Context, userID, productID string) (bool, error)
	Remove(ctx context.Context, userID, productID string) (bool, error)
}

type Conf struct {
	store    Store
	resolver catalog.Resolver
}

func NewConf(store Store, resolver catalog.Resolver) (Conf, error) {
	if store == nil || resolver == nil {
		return Conf{}, fmt.Errorf("wishlist store and resolver are required")
	}
	return Conf{store: store, resolver: resolver}, nil
}

func (c *Conf) List(ctx context.Context, userID string) ([]Entry, error) {
	items, err := c.store.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	out := make([]Entry, 0, len(items))
	for _, it := range items {
		p := c.resolver.Resolve(ctx, it.ProductID)
		if p == nil {
			continue
		}
		out = append(out, Entry{ID: it.ID, ProductID: it.ProductID, CreatedAt: it.CreatedAt, Product: *p})
	}
	return out, nil
}

// Add saves a product. Saving one twice is not an error; the bool is false then.
func (c *Conf) Add(ctx context.Context, userID, productID string) (bool, error) {
	if productID == "" {
		return false, apperr.Validation("productId is required")
	}
	if c.resolver.Resolve(ctx, productID) == nil {
		return false, apperr.NotFound("product %s not found", productID)
	}
	added, err := c.store.Add(ctx, userID, productID)
	if err != nil {
		return false, fmt.Errorf("add to wishlist: %w", err)
	}
	return added, nil
}

func (c *Conf) Remove(ctx context.Context, userID, productID string) error {
	if productID == "" {
		return apperr.Validation("productId is required")
	}
	removed, err := c.store.Remove(ctx, userID, productID)
	if err != nil {
		return fmt.Errorf("remove from wishlist: %w", err)
	}
	if !removed {
		return apperr.NotFound("item not in wishlist")
	}
	return nil
}
