package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/chris-diam/diamantakis-server/internal/catalog"
)

type ArtworkStore struct {
	db *sql.DB
}

func NewArtworkStore(db *sql.DB) *ArtworkStore {
	return &ArtworkStore{db: db}
}

const artworkColumns = `artwork_id, title, description, category, price_cents, width_cm, height_cm, depth_cm, materials, created_at, updated_at`

func (as *ArtworkStore) List(ctx context.Context, f catalog.ListFilter) ([]*catalog.Artwork, error) {
	orderBy := "created_at DESC"
	switch f.Sort {
	case "price":
		orderBy = "price_cents ASC"
	case "-price":
		orderBy = "price_cents DESC"
	case "created_at":
		orderBy = "created_at ASC"
	case "-created_at", "":
		orderBy = "created_at DESC"
	}

	query := fmt.Sprintf(`
		SELECT %s FROM artworks
		WHERE ($1 = '' OR category = $1)
		ORDER BY %s
		LIMIT $2 OFFSET $3
	`, artworkColumns, orderBy)

	offset := (f.Page - 1) * f.Limit
	rows, err := as.db.QueryContext(ctx, query, f.Category, f.Limit, offset)
	if err != nil {
		return nil, fmt.Errorf("db: list artworks: %w", err)
	}
	defer rows.Close()

	var out []*catalog.Artwork
	for rows.Next() {
		a, err := scanArtwork(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db: iterate artworks: %w", err)
	}
	return out, nil
}

func (as *ArtworkStore) Get(ctx context.Context, id uuid.UUID) (*catalog.Artwork, error) {
	query := fmt.Sprintf(`SELECT %s FROM artworks WHERE artwork_id = $1`, artworkColumns)
	a, err := scanArtwork(as.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (as *ArtworkStore) Create(ctx context.Context, a *catalog.Artwork) error {
	query := `
		INSERT INTO artworks (artwork_id, title, description, category, price_cents, width_cm, height_cm, depth_cm, materials, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`
	_, err := as.db.ExecContext(ctx, query,
		a.ID,
		a.Title,
		a.Description,
		a.Category,
		a.PriceCents,
		a.Dimensions.Width,
		a.Dimensions.Height,
		a.Dimensions.Depth,
		pq.Array(a.Materials),
	)
	if err != nil {
		return fmt.Errorf("db: create artwork: %w", err)
	}
	return nil
}

func (as *ArtworkStore) Update(ctx context.Context, id uuid.UUID, upd *catalog.ArtworkUpdate) (*catalog.Artwork, error) {
	query := `
		UPDATE artworks
		SET title       = COALESCE($2, title),
		    description = COALESCE($3, description),
		    category    = COALESCE($4, category),
		    price_cents = COALESCE($5, price_cents),
		    width_cm    = COALESCE($6, width_cm),
		    height_cm   = COALESCE($7, height_cm),
		    depth_cm    = COALESCE($8, depth_cm),
		    materials   = COALESCE($9, materials),
		    updated_at  = NOW()
		WHERE artwork_id = $1
	`
	var width, height, depth *float64
	if upd.Dimensions != nil {
		width, height, depth = upd.Dimensions.Width, upd.Dimensions.Height, upd.Dimensions.Depth
	}
	var materials interface{}
	if upd.Materials != nil {
		materials = pq.Array(upd.Materials)
	}
	res, err := as.db.ExecContext(ctx, query, id, upd.Title, upd.Description, upd.Category, upd.PriceCents, width, height, depth, materials)
	if err != nil {
		return nil, fmt.Errorf("db: update artwork: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("db: update artwork rows affected: %w", err)
	}
	if n == 0 {
		return nil, catalog.ErrNotFound
	}
	return as.Get(ctx, id)
}

func (as *ArtworkStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := as.db.ExecContext(ctx, `DELETE FROM artworks WHERE artwork_id = $1`, id)
	if err != nil {
		return fmt.Errorf("db: delete artwork: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db: delete artwork rows affected: %w", err)
	}
	if n == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanArtwork(row rowScanner) (*catalog.Artwork, error) {
	a := &catalog.Artwork{}
	err := row.Scan(
		&a.ID,
		&a.Title,
		&a.Description,
		&a.Category,
		&a.PriceCents,
		&a.Dimensions.Width,
		&a.Dimensions.Height,
		&a.Dimensions.Depth,
		pq.Array(&a.Materials),
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("db: scan artwork: %w", err)
	}
	return a, nil
}
