package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/chris-diam/diamantakis-server/internal/orders"
)

// gatewayTimeout bounds every outbound call to the payment provider so a
// slow provider cannot hang our request handlers.
const gatewayTimeout = 30 * time.Second

// GuestUserID is stamped into intent metadata when no authenticated user is
// attached to the request (guest checkout).
const GuestUserID = "guest"

// Service owns the payment intent lifecycle as observed by this system:
// intent creation, status polling, and the webhook-driven reconciliation
// handlers. It never writes intent status at the provider, only reads it.
type Service struct {
	gateway  Gateway
	records  RecordStore
	orders   orders.Store
	notifier Notifier

	// sf dedupes concurrent webhook deliveries for the same intent id. Redelivery
	// that arrives after the flight completes is handled by the store-level
	// idempotency keys instead.
	sf singleflight.Group
}

// NewService wires the payment service. notifier may be nil when no broker
// is configured; order notifications are then skipped.
func NewService(gateway Gateway, records RecordStore, orderStore orders.Store, notifier Notifier) *Service {
	return &Service{
		gateway:  gateway,
		records:  records,
		orders:   orderStore,
		notifier: notifier,
	}
}

// CreateIntent validates input, creates one intent at the provider and
// records it locally as PENDING. amount is in major currency units.
func (s *Service) CreateIntent(ctx context.Context, userID string, amount float64, currency string, metadata map[string]string) (*PaymentIntent, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive: %w", ErrValidation)
	}
	if currency == "" {
		currency = "eur"
	}
	if userID == "" {
		userID = GuestUserID
	}

	md := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		md[k] = v
	}
	md["user_id"] = userID

	gwCtx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	intent, err := s.gateway.CreateIntent(gwCtx, CreateIntentRequest{
		AmountCents: ToMinorUnits(amount),
		Currency:    currency,
		Metadata:    md,
	})
	if err != nil {
		return nil, err
	}

	rec := &Record{
		IntentID:    intent.ID,
		UserID:      userID,
		AmountCents: intent.AmountCents,
		Currency:    intent.Currency,
		Status:      RecordPending,
	}
	if err := s.records.CreateRecord(ctx, rec); err != nil {
		// The intent exists at the provider either way; the client can still
		// pay. We lose reconciler coverage for this one intent, so log loudly.
		log.Error().Err(err).Str("intent_id", intent.ID).Msg("payment record insert failed")
	}

	return intent, nil
}

// GetIntentStatus polls the provider for the current intent state. Amount is
// converted back to major units for the client.
func (s *Service) GetIntentStatus(ctx context.Context, id string) (*IntentStatus, error) {
	gwCtx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	intent, err := s.gateway.RetrieveIntent(gwCtx, id)
	if err != nil {
		return nil, err
	}
	return &IntentStatus{
		Status:   intent.Status,
		Amount:   ToMajorUnits(intent.AmountCents),
		Currency: intent.Currency,
		Metadata: intent.Metadata,
	}, nil
}

// HandleSucceeded applies the side effects of a succeeded payment. It must
// stay correct under at-least-once webhook delivery and under races with the
// reconciliation worker: the order table's unique key on the intent id is the
// final arbiter, the order-existence guard and singleflight just cut the work
// short.
func (s *Service) HandleSucceeded(ctx context.Context, intent *PaymentIntent) error {
	_, err, _ := s.sf.Do(intent.ID, func() (interface{}, error) {
		return nil, s.finalizeSucceeded(ctx, intent)
	})
	return err
}

func (s *Service) finalizeSucceeded(ctx context.Context, intent *PaymentIntent) error {
	// The order is the real side effect, so its existence is the redelivery
	// guard. The record status alone cannot be trusted here: a delivery that
	// failed between bookkeeping writes would otherwise ack without an order.
	existing, err := s.orders.GetByIntentID(ctx, intent.ID)
	if err != nil {
		return fmt.Errorf("%w: order lookup for %s: %v", ErrProcessing, intent.ID, err)
	}
	if existing != nil {
		// Retried in case an earlier delivery crashed between the order insert
		// and the record update; the store refuses regressions either way.
		if err := s.records.UpdateStatus(ctx, intent.ID, RecordSucceeded, nil, nil); err != nil {
			log.Warn().Err(err).Str("intent_id", intent.ID).Msg("record settle on redelivery failed")
		}
		log.Debug().Str("intent_id", intent.ID).Msg("webhook redelivery for finalized intent")
		return nil
	}

	rec, err := s.records.GetByIntentID(ctx, intent.ID)
	if err != nil {
		return fmt.Errorf("%w: record lookup for %s: %v", ErrProcessing, intent.ID, err)
	}
	if rec == nil {
		// Intent not created through this system (or the record insert failed).
		// We still honor the payment; the order unique key keeps us idempotent.
		log.Warn().Str("intent_id", intent.ID).Msg("no local record for succeeded intent")
	}

	order, err := s.orderFromIntent(intent)
	if err != nil {
		// Malformed order_items must not block acknowledgement: the payment
		// succeeded regardless of our bookkeeping, and the dispatcher downgrades
		// ErrMetadataParse to an ack. Settle the record so the reconciler does
		// not keep replaying metadata that can never parse.
		if uerr := s.records.UpdateStatus(ctx, intent.ID, RecordSucceeded, nil, nil); uerr != nil {
			log.Warn().Err(uerr).Str("intent_id", intent.ID).Msg("record settle for malformed metadata failed")
		}
		return err
	}

	created, err := s.orders.CreateFromIntent(ctx, order)
	if err != nil {
		// The record stays PENDING so redelivery or the reconciler can finish
		// the job.
		return fmt.Errorf("%w: order create for %s: %v", ErrProcessing, intent.ID, err)
	}

	// Settle the record only after the order is durably in place. If this
	// update is lost the order-existence guard settles it on the next pass.
	if err := s.records.UpdateStatus(ctx, intent.ID, RecordSucceeded, nil, nil); err != nil {
		log.Warn().Err(err).Str("intent_id", intent.ID).Msg("record settle after order create failed")
	}

	if !created {
		log.Info().Str("intent_id", intent.ID).Msg("order already exists, skipping")
		return nil
	}

	log.Info().
		Str("intent_id", intent.ID).
		Str("user_id", order.UserID).
		Int64("amount_cents", order.AmountCents).
		Msg("order created from succeeded payment")

	if s.notifier != nil {
		if err := s.notifier.OrderCreated(ctx, order); err != nil {
			// Confirmation delivery is best effort; never fail the webhook.
			log.Warn().Err(err).Str("order_id", order.OrderID.String()).Msg("order notification failed")
		}
	}
	return nil
}

// HandleFailed records the failure. It never returns an error: a failure to
// bookkeep a failed payment must not cascade into webhook retries.
func (s *Service) HandleFailed(ctx context.Context, intent *PaymentIntent) error {
	logEvt := log.Info().Str("intent_id", intent.ID).Str("user_id", metadataUserID(intent))
	if intent.ErrorCode != nil {
		logEvt = logEvt.Str("error_code", *intent.ErrorCode)
	}
	if intent.ErrorMessage != nil {
		logEvt = logEvt.Str("error_message", *intent.ErrorMessage)
	}
	logEvt.Msg("payment failed")

	if err := s.records.UpdateStatus(ctx, intent.ID, RecordFailed, intent.ErrorCode, intent.ErrorMessage); err != nil {
		log.Warn().Err(err).Str("intent_id", intent.ID).Msg("failed payment record update failed")
	}
	return nil
}

func (s *Service) orderFromIntent(intent *PaymentIntent) (*orders.Order, error) {
	order := &orders.Order{
		OrderID:         uuid.New(),
		PaymentIntentID: intent.ID,
		UserID:          metadataUserID(intent),
		AmountCents:     intent.AmountCents,
		Currency:        intent.Currency,
	}
	raw, ok := intent.Metadata["order_items"]
	if !ok || raw == "" {
		return order, nil
	}
	var items []orders.Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: order_items for %s: %v", ErrMetadataParse, intent.ID, err)
	}
	order.Items = items
	return order, nil
}

func metadataUserID(intent *PaymentIntent) string {
	if id := intent.Metadata["user_id"]; id != "" {
		return id
	}
	return GuestUserID
}
