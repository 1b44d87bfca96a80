package stripe

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/chris-diam/diamantakis-server/internal/payment"
)

// EventTypeSucceeded and EventTypeFailed are the event types this system
// reacts to; everything else is acknowledged and ignored.
const (
	EventTypeSucceeded = "payment_intent.succeeded"
	EventTypeFailed    = "payment_intent.payment_failed"
)

// Processor verifies Stripe webhook signatures and maps events into the
// domain. The zero value is unusable; construct with New or NewUnverified.
type Processor struct {
	secret string
	verify bool
}

// New returns a verifying processor. secret is the endpoint's signing secret
// ("whsec_...").
func New(secret string) *Processor {
	return &Processor{secret: secret, verify: true}
}

// NewUnverified returns a processor that trusts the parsed body directly.
// Test environments only; config validation refuses to start production
// without a signing secret.
func NewUnverified() *Processor {
	return &Processor{}
}

func (p *Processor) Provider() string {
	return "stripe"
}

// VerifyAndParse authenticates payload against sigHeader and maps the event.
// The signature is computed over the exact raw bytes, so callers must pass
// the body untouched.
func (p *Processor) VerifyAndParse(payload []byte, sigHeader string) (*payment.WebhookEvent, error) {
	var event stripe.Event
	if p.verify {
		ev, err := webhook.ConstructEvent(payload, sigHeader, p.secret)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", payment.ErrSignature, err)
		}
		event = ev
	} else if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: malformed webhook body", payment.ErrValidation)
	}

	out := &payment.WebhookEvent{Type: string(event.Type)}
	if event.Data != nil && len(event.Data.Raw) > 0 {
		var pi stripe.PaymentIntent
		// Non-intent payloads (disputes, charges, ...) simply leave Intent nil;
		// the dispatcher acknowledges them without side effects.
		if err := json.Unmarshal(event.Data.Raw, &pi); err == nil && pi.ID != "" {
			out.Intent = intentFromEvent(&pi)
		}
	}
	return out, nil
}

func intentFromEvent(pi *stripe.PaymentIntent) *payment.PaymentIntent {
	out := &payment.PaymentIntent{
		ID:          pi.ID,
		AmountCents: pi.Amount,
		Currency:    string(pi.Currency),
		Status:      string(pi.Status),
		Metadata:    pi.Metadata,
	}
	if pi.LastPaymentError != nil {
		code := string(pi.LastPaymentError.Code)
		msg := pi.LastPaymentError.Msg
		out.ErrorCode = &code
		out.ErrorMessage = &msg
	}
	return out
}
