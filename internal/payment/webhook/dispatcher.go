package webhook

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/chris-diam/diamantakis-server/internal/payment"
)

// HandlerFunc applies the side effects of one event type.
type HandlerFunc func(ctx context.Context, intent *payment.PaymentIntent) error

// Dispatcher routes verified events to per-type handlers. Event types with
// no registered handler are logged and acknowledged so the provider does not
// keep retrying events we deliberately ignore.
type Dispatcher struct {
	handlers map[string]HandlerFunc
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]HandlerFunc)}
}

// Register binds a handler to an event type. Not safe for concurrent use;
// call during startup only.
func (d *Dispatcher) Register(eventType string, h HandlerFunc) {
	d.handlers[eventType] = h
}

// Dispatch routes one verified event. A nil return means the HTTP layer
// should acknowledge with 200; any error means 500 so the provider
// redelivers later.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *payment.WebhookEvent) error {
	h, ok := d.handlers[ev.Type]
	if !ok {
		log.Info().Str("event_type", ev.Type).Msg("ignoring unhandled webhook event type")
		return nil
	}
	if ev.Intent == nil {
		log.Warn().Str("event_type", ev.Type).Msg("webhook event carries no payment intent")
		return nil
	}

	if err := h(ctx, ev.Intent); err != nil {
		if errors.Is(err, payment.ErrMetadataParse) {
			// Degraded but acknowledged: the payment state at the provider is
			// what it is, redelivering the same malformed metadata cannot help.
			log.Error().Err(err).Str("event_type", ev.Type).Str("intent_id", ev.Intent.ID).
				Msg("webhook handled with degraded outcome")
			return nil
		}
		return fmt.Errorf("%s handler: %w", ev.Type, err)
	}
	return nil
}
