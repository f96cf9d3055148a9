package cart

import (
	"context"
	"errors"
)

// ErrQuantityExceeded is returned by Store.Upsert when the merged quantity
// would pass the limit. The stored line is left untouched.
var ErrQuantityExceeded = errors.New("cart line quantity limit exceeded")

type Store interface {
	ListItems(ctx context.Context, userID string) ([]Item, error)
	// Upsert adds quantity to the (user, product, size) line, creating it if
	// absent, atomically refusing totals above limit.
	Upsert(ctx context.Context, userID, productID, size string, quantity, limit int) (Item, error)
	// UpdateQuantity reports whether a line existed.
	UpdateQuantity(ctx context.Context, userID, productID, size string, quantity int) (bool, error)
	DeleteItem(ctx context.Context, userID, productID, size string) (bool, error)
	Clear(ctx context.Context, userID string) (int64, error)
}
