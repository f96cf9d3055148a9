package kafka

import "time"

const (
	TopicOrderPaid = `order-service.order-paid`
)

// OrderPaidEvent is produced once per order line when an order is paid.
type OrderPaidEvent struct {
	OrderId      string    `json:"order_id"`
	UserId       string    `json:"user_id"`
	ProductId    string    `json:"product_id"`
	SelectedSize string    `json:"selected_size,omitempty"`
	Quantity     int       `json:"quantity"`
	Source       string    `json:"source"`
	CreatedAt    time.Time `json:"created_at"`
}
