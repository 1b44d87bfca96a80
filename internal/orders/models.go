package orders

import (
	"time"

	"github.com/google/uuid"
)

// Item is one line of an order, as serialized into the payment intent's
// order_items metadata by the storefront.
type Item struct {
	ArtworkID string `json:"artwork_id"`
	Title     string `json:"title,omitempty"`
	Quantity  int    `json:"quantity"`
}

// Order is created exactly once per succeeded payment intent. The intent id
// is the idempotency key: redelivered webhooks and the reconciler may both
// try to create the same order, only the first write wins.
type Order struct {
	OrderID         uuid.UUID
	PaymentIntentID string
	UserID          string
	AmountCents     int64
	Currency        string
	Items           []Item
	CreatedAt       time.Time
}
