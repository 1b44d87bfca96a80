package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chris-diam/diamantakis-server/internal/payment"
)

// PaymentStore persists local payment records in the payments table.
type PaymentStore struct {
	db *sql.DB
}

func NewPaymentStore(db *sql.DB) *PaymentStore {
	return &PaymentStore{db: db}
}

func (ps *PaymentStore) CreateRecord(ctx context.Context, rec *payment.Record) error {
	if rec.RecordID == uuid.Nil {
		rec.RecordID = uuid.New()
	}
	query := `
		INSERT INTO payments (record_id, intent_id, user_id, status, amount_cents, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	_, err := ps.db.ExecContext(ctx, query,
		rec.RecordID,
		rec.IntentID,
		rec.UserID,
		rec.Status,
		rec.AmountCents,
		rec.Currency,
	)
	if err != nil {
		return fmt.Errorf("db: create payment record: %w", err)
	}
	return nil
}

// GetByIntentID returns (nil, nil) when no record exists for the intent.
func (ps *PaymentStore) GetByIntentID(ctx context.Context, intentID string) (*payment.Record, error) {
	query := `
		SELECT record_id, intent_id, user_id, status, amount_cents, currency, error_code, error_message, created_at, updated_at
		FROM payments
		WHERE intent_id = $1
	`
	rec := &payment.Record{}
	err := ps.db.QueryRowContext(ctx, query, intentID).Scan(
		&rec.RecordID,
		&rec.IntentID,
		&rec.UserID,
		&rec.Status,
		&rec.AmountCents,
		&rec.Currency,
		&rec.ErrorCode,
		&rec.ErrorMessage,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db: get payment record: %w", err)
	}
	return rec, nil
}

// UpdateStatus transitions a record. A record that already reached SUCCEEDED
// is never overwritten; the WHERE clause enforces it at the database, not
// just in memory.
func (ps *PaymentStore) UpdateStatus(ctx context.Context, intentID string, status payment.RecordStatus, errCode, errMsg *string) error {
	query := `
		UPDATE payments
		SET status = $1,
		    error_code = $2,
		    error_message = $3,
		    updated_at = NOW()
		WHERE intent_id = $4 AND status <> 'SUCCEEDED'
	`
	_, err := ps.db.ExecContext(ctx, query, status, errCode, errMsg, intentID)
	if err != nil {
		return fmt.Errorf("db: update payment record: %w", err)
	}
	return nil
}

// ListStalePending fetches PENDING records created before now-olderThan,
// oldest first, for the reconciliation worker.
func (ps *PaymentStore) ListStalePending(ctx context.Context, limit int, olderThan time.Duration) ([]*payment.Record, error) {
	cutoff := time.Now().Add(-olderThan)
	query := `
		SELECT record_id, intent_id, user_id, status, amount_cents, currency, error_code, error_message, created_at, updated_at
		FROM payments
		WHERE status = 'PENDING' AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2
	`
	rows, err := ps.db.QueryContext(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("db: list stale pending payments: %w", err)
	}
	defer rows.Close()

	var recs []*payment.Record
	for rows.Next() {
		rec := &payment.Record{}
		if err := rows.Scan(
			&rec.RecordID,
			&rec.IntentID,
			&rec.UserID,
			&rec.Status,
			&rec.AmountCents,
			&rec.Currency,
			&rec.ErrorCode,
			&rec.ErrorMessage,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("db: scan payment record: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db: iterate payment records: %w", err)
	}
	return recs, nil
}
