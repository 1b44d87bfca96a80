package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/chris-diam/diamantakis-server/internal/orders"
)

// OrderStore persists orders. The orders table carries a UNIQUE constraint on
// payment_intent_id; that constraint is the idempotency guarantee for
// at-least-once webhook delivery.
type OrderStore struct {
	db *sql.DB
}

func NewOrderStore(db *sql.DB) *OrderStore {
	return &OrderStore{db: db}
}

// CreateFromIntent inserts the order unless one already exists for the same
// payment intent. ON CONFLICT DO NOTHING makes redelivery a no-op; the
// returned flag tells the caller whether this call actually created it.
func (os *OrderStore) CreateFromIntent(ctx context.Context, o *orders.Order) (bool, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return false, fmt.Errorf("db: marshal order items: %w", err)
	}
	query := `
		INSERT INTO orders (order_id, payment_intent_id, user_id, amount_cents, currency, items, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (payment_intent_id) DO NOTHING
	`
	res, err := os.db.ExecContext(ctx, query,
		o.OrderID,
		o.PaymentIntentID,
		o.UserID,
		o.AmountCents,
		o.Currency,
		items,
	)
	if err != nil {
		return false, fmt.Errorf("db: create order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db: create order rows affected: %w", err)
	}
	return n == 1, nil
}

// GetByIntentID returns (nil, nil) when no order exists for the intent.
func (os *OrderStore) GetByIntentID(ctx context.Context, intentID string) (*orders.Order, error) {
	query := `
		SELECT order_id, payment_intent_id, user_id, amount_cents, currency, items, created_at
		FROM orders
		WHERE payment_intent_id = $1
	`
	o := &orders.Order{}
	var items []byte
	err := os.db.QueryRowContext(ctx, query, intentID).Scan(
		&o.OrderID,
		&o.PaymentIntentID,
		&o.UserID,
		&o.AmountCents,
		&o.Currency,
		&items,
		&o.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db: get order: %w", err)
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, fmt.Errorf("db: unmarshal order items: %w", err)
		}
	}
	return o, nil
}
