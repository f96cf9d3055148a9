package orders

import (
	"time"

	"mizora-service/internal/pricing"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

const PaymentMethodCard = "card"

// Order represents an order entity in the database. Items, Total and
// ShippingCost are fixed at creation.
type Order struct {
	ID                string          `json:"id"`
	UserID            string          `json:"userId"`
	CustomerEmail     string          `json:"customerEmail,omitempty"`
	Items             []Item          `json:"items"`
	Total             float64         `json:"total"`        // sum of line totals, shipping excluded
	ShippingCost      float64         `json:"shippingCost"` // charged on top of Total
	ShippingAddress   ShippingAddress `json:"shippingAddress"`
	Status            Status          `json:"status"`
	PaymentMethod     string          `json:"paymentMethod"`
	PaymentStatus     PaymentStatus   `json:"paymentStatus"`
	CheckoutSessionID string          `json:"checkoutSessionId,omitempty"`
	PaymentIntentID   string          `json:"paymentIntentId,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// Item is a snapshot of a cart line at order time.
type Item struct {
	ProductID    string  `json:"productId"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"` // effective unit price
	Quantity     int     `json:"quantity"`
	Image        string  `json:"image"`
	SelectedSize string  `json:"selectedSize,omitempty"`
}

func (i Item) LineTotal() float64 { return pricing.LineTotal(i.Price, i.Quantity) }

// AmountDue is what the customer is charged.
func (o Order) AmountDue() float64 { return pricing.Sum(o.Total, o.ShippingCost) }

// IsPaid is the idempotency guard for payment confirmation.
func (o Order) IsPaid() bool { return o.PaymentStatus == PaymentPaid }

// Cancellable reports whether the customer may still cancel.
func (o Order) Cancellable() bool {
	return o.Status == StatusPending || o.Status == StatusConfirmed
}

// ShortRef is the customer facing order number.
func (o Order) ShortRef() string {
	if len(o.ID) <= 8 {
		return o.ID
	}
	return o.ID[len(o.ID)-8:]
}

var validStatuses = map[Status]bool{
	StatusPending: true, StatusConfirmed: true, StatusProcessing: true,
	StatusShipped: true, StatusDelivered: true, StatusCancelled: true,
}

func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	return st, validStatuses[st]
}

// ListFilter selects a page of one user's orders.
type ListFilter struct {
	Status Status
	Page   int
	Limit  int
}

type Page struct {
	Orders     []Order `json:"orders"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	Total      int     `json:"total"`
	TotalPages int     `json:"totalPages"`
}

func (f ListFilter) Normalize() ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
	if f.Limit > 50 {
		f.Limit = 50
	}
	return f
}

func (f ListFilter) Offset() int { return (f.Page - 1) * f.Limit }

func totalPages(total, limit int) int {
	if total == 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
