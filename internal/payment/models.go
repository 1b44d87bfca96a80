package payment

import (
	"time"

	"github.com/google/uuid"
)

// PaymentIntent is our view of a provider-side payment intent. The provider
// owns the lifecycle; we only read the status back, never write it.
type PaymentIntent struct {
	ID           string            // opaque provider id, e.g. "pi_3M..."
	ClientSecret string            // handed to the browser to complete payment
	AmountCents  int64             // minor currency units
	Currency     string            // ISO 4217, lowercase
	Status       string            // provider-defined, treated as opaque
	Metadata     map[string]string // carries user_id and order_items
	ErrorCode    *string           // from last_payment_error, if any
	ErrorMessage *string
}

// IntentStatus is what the status endpoint returns to clients.
// Amount is converted back to major units at this boundary.
type IntentStatus struct {
	Status   string            `json:"status"`
	Amount   float64           `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata"`
}

// WebhookEvent is a verified provider event. Intent is the PaymentIntent
// snapshot embedded in the event payload; it is nil for event types that do
// not carry one.
type WebhookEvent struct {
	Type   string
	Intent *PaymentIntent
}

// RecordStatus tracks a locally recorded payment attempt.
// PENDING -> SUCCEEDED | FAILED. Terminal states are never overwritten.
type RecordStatus string

const (
	RecordPending   RecordStatus = "PENDING"
	RecordSucceeded RecordStatus = "SUCCEEDED"
	RecordFailed    RecordStatus = "FAILED"
)

// Record is the local bookkeeping row for an intent this system created.
// The webhook handlers and the reconciliation worker both converge records
// through the same finalize path, keyed by the provider intent id.
type Record struct {
	RecordID     uuid.UUID
	IntentID     string
	UserID       string
	AmountCents  int64
	Currency     string
	Status       RecordStatus
	ErrorCode    *string
	ErrorMessage *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateIntentRequest carries validated input into the gateway.
// AmountCents must already be in minor units.
type CreateIntentRequest struct {
	AmountCents int64
	Currency    string
	Metadata    map[string]string
}
