package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Store persists artworks.
type Store interface {
	List(ctx context.Context, f ListFilter) ([]*Artwork, error)
	Get(ctx context.Context, id uuid.UUID) (*Artwork, error)
	Create(ctx context.Context, a *Artwork) error
	Update(ctx context.Context, id uuid.UUID, upd *ArtworkUpdate) (*Artwork, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

func (s *Service) List(ctx context.Context, f ListFilter) ([]*Artwork, error) {
	if f.Category != "" && !validCategory(f.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalid, f.Category)
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > maxPageLimit {
		f.Limit = defaultPageLimit
	}
	return s.store.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Artwork, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, a *Artwork) (*Artwork, error) {
	if a.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if a.Description == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalid)
	}
	if !validCategory(a.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalid, a.Category)
	}
	if a.PriceCents <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", ErrInvalid)
	}
	a.ID = uuid.New()
	if err := s.store.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, upd *ArtworkUpdate) (*Artwork, error) {
	if upd.Category != nil && !validCategory(*upd.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalid, *upd.Category)
	}
	if upd.PriceCents != nil && *upd.PriceCents <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", ErrInvalid)
	}
	return s.store.Update(ctx, id, upd)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}
