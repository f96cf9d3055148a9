package cart

import (
	"time"

	"mizora-service/internal/catalog"
)

const MaxQuantity = 99

// Item is a stored cart line. SelectedSize is "" when the product's own size applies.
type Item struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	ProductID    string    `json:"productId"`
	SelectedSize string    `json:"selectedSize,omitempty"`
	Quantity     int       `json:"quantity"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Line is a cart item joined with its current product record and price.
type Line struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"productId"`
	Quantity     int             `json:"quantity"`
	SelectedSize string          `json:"selectedSize,omitempty"`
	UnitPrice    float64         `json:"unitPrice"`
	LineTotal    float64         `json:"lineTotal"`
	Product      catalog.Product `json:"product"`
}

type CartResponse struct {
	Items     []Line  `json:"items"`
	Subtotal  float64 `json:"subtotal"`
	ItemCount int     `json:"itemCount"`
}
