package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mizora-service/internal/apperr"
	"mizora-service/internal/cart"
	"mizora-service/internal/pricing"
)

// CartReader is the part of the cart aggregator the factory needs.
type CartReader interface {
	GetCart(ctx context.Context, userID string) (*cart.CartResponse, error)
}

// Factory turns a user's current cart into a pending order.
type Factory struct {
	store    Store
	carts    CartReader
	shipping pricing.ShippingRule
	now      func() time.Time
}

func NewFactory(store Store, carts CartReader, shipping pricing.ShippingRule) *Factory {
	return &Factory{store: store, carts: carts, shipping: shipping, now: func() time.Time { return time.Now().UTC() }}
}

// CreateOrder snapshots the cart with prices resolved now. The cart is not
// cleared; that happens once payment is confirmed.
func (f *Factory) CreateOrder(ctx context.Context, userID, email string, addr ShippingAddress) (Order, error) {
	addr = addr.Sanitize()
	if err := addr.Validate(); err != nil {
		return Order{}, err
	}

	c, err := f.carts.GetCart(ctx, userID)
	if err != nil {
		return Order{}, fmt.Errorf("create order: %w", err)
	}
	if len(c.Items) == 0 {
		return Order{}, apperr.New(apperr.KindEmptyCart, "Cart is empty")
	}

	items := make([]Item, 0, len(c.Items))
	totals := make([]float64, 0, len(c.Items))
	for _, l := range c.Items {
		name := l.Product.Name
		if l.SelectedSize != "" {
			name = fmt.Sprintf("%s (%s)", name, l.SelectedSize)
		}
		it := Item{
			ProductID:    l.ProductID,
			Name:         name,
			Price:        l.UnitPrice,
			Quantity:     l.Quantity,
			Image:        l.Product.FirstImage(),
			SelectedSize: l.SelectedSize,
		}
		items = append(items, it)
		totals = append(totals, it.LineTotal())
	}

	total := pricing.Sum(totals...)
	now := f.now()
	o := Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		CustomerEmail:   email,
		Items:           items,
		Total:           total,
		ShippingCost:    f.shipping.Cost(total),
		ShippingAddress: addr,
		Status:          StatusPending,
		PaymentMethod:   PaymentMethodCard,
		PaymentStatus:   PaymentPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := f.store.Create(ctx, o); err != nil {
		return Order{}, fmt.Errorf("create order: %w", err)
	}
	return o, nil
}
