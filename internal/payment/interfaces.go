package payment

import (
	"context"
	"time"

	"github.com/chris-diam/diamantakis-server/internal/orders"
)

// Gateway abstracts the payment provider. It is a stateless proxy: one
// remote resource per CreateIntent call, no local persistence.
type Gateway interface {
	// CreateIntent creates one payment intent at the provider. The request
	// amount must already be validated and converted to minor units.
	CreateIntent(ctx context.Context, req CreateIntentRequest) (*PaymentIntent, error)
	// RetrieveIntent fetches the current intent state from the provider.
	// Returns ErrNotFound when the provider does not know the id.
	RetrieveIntent(ctx context.Context, id string) (*PaymentIntent, error)
}

// RecordStore persists local payment records.
type RecordStore interface {
	// CreateRecord records the intent BEFORE the client is handed the secret,
	// so the reconciler can find attempts whose webhook never arrived.
	CreateRecord(ctx context.Context, rec *Record) error
	// GetByIntentID correlates an incoming webhook with our record.
	GetByIntentID(ctx context.Context, intentID string) (*Record, error)
	// UpdateStatus transitions a record; implementations must refuse to
	// overwrite SUCCEEDED.
	UpdateStatus(ctx context.Context, intentID string, status RecordStatus, errCode, errMsg *string) error
	// ListStalePending fetches PENDING records older than the cutoff for the
	// reconciliation worker.
	ListStalePending(ctx context.Context, limit int, olderThan time.Duration) ([]*Record, error)
}

// Notifier announces a newly created order to downstream consumers
// (confirmation emails etc). Publish failures must never fail the webhook.
type Notifier interface {
	OrderCreated(ctx context.Context, o *orders.Order) error
}
