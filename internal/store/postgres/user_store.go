package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/chris-diam/diamantakis-server/internal/users"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func (us *UserStore) Create(ctx context.Context, u *users.User) error {
	query := `
		INSERT INTO users (user_id, name, email, display_name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`
	_, err := us.db.ExecContext(ctx, query, u.ID, u.Name, u.Email, u.DisplayName, u.PasswordHash)
	if err != nil {
		var pqErr *pq.Error
		// 23505 = unique_violation; a concurrent signup beat us to the email.
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return users.ErrEmailTaken
		}
		return fmt.Errorf("db: create user: %w", err)
	}
	return nil
}

func (us *UserStore) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return us.getOne(ctx, `SELECT user_id, name, email, display_name, password_hash, created_at FROM users WHERE email = $1`, email)
}

func (us *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*users.User, error) {
	return us.getOne(ctx, `SELECT user_id, name, email, display_name, password_hash, created_at FROM users WHERE user_id = $1`, id)
}

func (us *UserStore) getOne(ctx context.Context, query string, arg interface{}) (*users.User, error) {
	u := &users.User{}
	err := us.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.DisplayName,
		&u.PasswordHash,
		&u.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, users.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db: get user: %w", err)
	}
	return u, nil
}
