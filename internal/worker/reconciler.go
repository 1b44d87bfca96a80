package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/chris-diam/diamantakis-server/internal/payment"
)

// gatewayTimeout bounds each provider call so one stuck request cannot stall
// a whole reconciliation batch.
const gatewayTimeout = 30 * time.Second

// Reconciler repairs the gap between our records and the provider when a
// webhook never arrives: payments stuck in PENDING are re-checked against the
// provider and pushed through the same finalize path the webhook uses.
type Reconciler struct {
	service *payment.Service
	records payment.RecordStore
	gateway payment.Gateway

	interval    time.Duration
	staleAfter  time.Duration
	batchSize   int
	workerCount int
}

func NewReconciler(service *payment.Service, records payment.RecordStore, gateway payment.Gateway) *Reconciler {
	return &Reconciler{
		service:     service,
		records:     records,
		gateway:     gateway,
		interval:    5 * time.Minute,
		staleAfter:  5 * time.Minute,
		batchSize:   50,
		workerCount: 5,
	}
}

// Start runs the reconciliation loop until ctx is cancelled. Blocking call.
func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", r.interval).Msg("payment reconciler started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("payment reconciler stopping")
			return
		case <-ticker.C:
			r.processBatch(ctx)
		}
	}
}

func (r *Reconciler) processBatch(ctx context.Context) {
	stale, err := r.records.ListStalePending(ctx, r.batchSize, r.staleAfter)
	if err != nil {
		log.Error().Err(err).Msg("reconciler: listing stale pending records failed")
		return
	}
	if len(stale) == 0 {
		return
	}
	log.Info().Int("count", len(stale)).Msg("reconciler: syncing stuck payments")

	jobs := make(chan *payment.Record, len(stale))
	var wg sync.WaitGroup
	for w := 0; w < r.workerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				if err := r.syncRecord(ctx, rec); err != nil {
					log.Warn().Err(err).Str("intent_id", rec.IntentID).Msg("reconciler: sync failed")
				}
			}
		}()
	}
	for _, rec := range stale {
		jobs <- rec
	}
	close(jobs)
	wg.Wait()
}

// syncRecord asks the provider what really happened to one stuck payment and
// converges our state to match.
func (r *Reconciler) syncRecord(ctx context.Context, rec *payment.Record) error {
	gwCtx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	intent, err := r.gateway.RetrieveIntent(gwCtx, rec.IntentID)
	if err != nil {
		if errors.Is(err, payment.ErrNotFound) {
			// The provider has no such intent; nothing will ever finalize it.
			code := "intent_missing"
			msg := "provider does not know this intent"
			return r.records.UpdateStatus(ctx, rec.IntentID, payment.RecordFailed, &code, &msg)
		}
		return fmt.Errorf("gateway check: %w", err)
	}

	switch intent.Status {
	case "succeeded":
		// Same idempotent path as the webhook; a racing delivery is harmless.
		return r.service.HandleSucceeded(ctx, intent)
	case "canceled":
		return r.service.HandleFailed(ctx, intent)
	default:
		// Still in flight (processing, requires_action, ...). Leave it for the
		// next cycle.
		return nil
	}
}
