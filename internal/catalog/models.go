package catalog

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("artwork not found")
	ErrInvalid  = errors.New("invalid artwork input")
)

// Categories the gallery sells.
const (
	CategoryPainting  = "painting"
	CategorySculpture = "sculpture"
	CategoryJewelry   = "jewelry"
)

func validCategory(c string) bool {
	switch c {
	case CategoryPainting, CategorySculpture, CategoryJewelry:
		return true
	}
	return false
}

// Dimensions in centimeters; all fields optional.
type Dimensions struct {
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
	Depth  *float64 `json:"depth,omitempty"`
}

// Artwork is one catalog entry. Price is stored in minor units and exposed
// in major units at the HTTP boundary, same convention as payments.
type Artwork struct {
	ID          uuid.UUID
	Title       string
	Description string
	Category    string
	PriceCents  int64
	Dimensions  Dimensions
	Materials   []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ArtworkUpdate is a partial update; nil fields are left unchanged.
type ArtworkUpdate struct {
	Title       *string
	Description *string
	Category    *string
	PriceCents  *int64
	Dimensions  *Dimensions
	Materials   []string
}

// ListFilter narrows and pages the catalog listing.
type ListFilter struct {
	Category string
	Sort     string // "price", "-price", "created_at", "-created_at"
	Page     int
	Limit    int
}
