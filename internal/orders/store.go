package orders

import "context"

// Store persists orders keyed by payment intent id.
type Store interface {
	// CreateFromIntent inserts the order unless one already exists for the
	// same payment intent id. Returns created=false on the duplicate path,
	// which is a success: the effect already happened.
	CreateFromIntent(ctx context.Context, o *Order) (created bool, err error)
	// GetByIntentID returns nil when no order exists for the intent.
	GetByIntentID(ctx context.Context, intentID string) (*Order, error)
}
