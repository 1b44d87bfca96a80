package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	artworks map[uuid.UUID]*Artwork
	lastList ListFilter
}

func newMemStore() *memStore {
	return &memStore{artworks: make(map[uuid.UUID]*Artwork)}
}

func (m *memStore) List(ctx context.Context, f ListFilter) ([]*Artwork, error) {
	m.lastList = f
	var out []*Artwork
	for _, a := range m.artworks {
		if f.Category == "" || a.Category == f.Category {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) Get(ctx context.Context, id uuid.UUID) (*Artwork, error) {
	a, ok := m.artworks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

func (m *memStore) Create(ctx context.Context, a *Artwork) error {
	m.artworks[a.ID] = a
	return nil
}

func (m *memStore) Update(ctx context.Context, id uuid.UUID, upd *ArtworkUpdate) (*Artwork, error) {
	a, ok := m.artworks[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Title != nil {
		a.Title = *upd.Title
	}
	if upd.PriceCents != nil {
		a.PriceCents = *upd.PriceCents
	}
	return a, nil
}

func (m *memStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.artworks[id]; !ok {
		return ErrNotFound
	}
	delete(m.artworks, id)
	return nil
}

func validArtwork() *Artwork {
	return &Artwork{
		Title:       "Olive grove at dusk",
		Description: "Oil on canvas",
		Category:    CategoryPainting,
		PriceCents:  45000,
		Materials:   []string{"oil", "canvas"},
	}
}

func TestCreateAssignsID(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)

	a, err := svc.Create(context.Background(), validArtwork())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.Contains(t, store.artworks, a.ID)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*Artwork)
	}{
		{"missing title", func(a *Artwork) { a.Title = "" }},
		{"missing description", func(a *Artwork) { a.Description = "" }},
		{"bad category", func(a *Artwork) { a.Category = "tapestry" }},
		{"zero price", func(a *Artwork) { a.PriceCents = 0 }},
		{"negative price", func(a *Artwork) { a.PriceCents = -100 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := validArtwork()
			tc.mutate(a)
			_, err := svc.Create(ctx, a)
			require.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestListDefaultsPagination(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)

	_, err := svc.List(context.Background(), ListFilter{Page: 0, Limit: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, store.lastList.Page)
	assert.Equal(t, defaultPageLimit, store.lastList.Limit)

	_, err = svc.List(context.Background(), ListFilter{Page: 2, Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 2, store.lastList.Page)
	assert.Equal(t, defaultPageLimit, store.lastList.Limit, "oversized limits are clamped")
}

func TestListRejectsUnknownCategory(t *testing.T) {
	svc := NewService(newMemStore())
	_, err := svc.List(context.Background(), ListFilter{Category: "frescoes"})
	require.ErrorIs(t, err, ErrInvalid)
}

func TestUpdateValidation(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	a, err := svc.Create(context.Background(), validArtwork())
	require.NoError(t, err)

	bad := "tapestry"
	_, err = svc.Update(context.Background(), a.ID, &ArtworkUpdate{Category: &bad})
	require.ErrorIs(t, err, ErrInvalid)

	price := int64(-5)
	_, err = svc.Update(context.Background(), a.ID, &ArtworkUpdate{PriceCents: &price})
	require.ErrorIs(t, err, ErrInvalid)

	title := "Olive grove at dawn"
	updated, err := svc.Update(context.Background(), a.ID, &ArtworkUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Olive grove at dawn", updated.Title)
}

func TestDeleteMissing(t *testing.T) {
	svc := NewService(newMemStore())
	err := svc.Delete(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}
