package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/chris-diam/diamantakis-server/internal/catalog"
	"github.com/chris-diam/diamantakis-server/internal/payment"
)

type ArtworksHandler struct {
	service *catalog.Service
}

func NewArtworksHandler(service *catalog.Service) *ArtworksHandler {
	return &ArtworksHandler{service: service}
}

// artworkJSON is the wire shape; price crosses the boundary in major units.
type artworkJSON struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Category    string             `json:"category"`
	Price       float64            `json:"price"`
	Dimensions  catalog.Dimensions `json:"dimensions"`
	Materials   []string           `json:"materials,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

func toArtworkJSON(a *catalog.Artwork) artworkJSON {
	return artworkJSON{
		ID:          a.ID.String(),
		Title:       a.Title,
		Description: a.Description,
		Category:    a.Category,
		Price:       payment.ToMajorUnits(a.PriceCents),
		Dimensions:  a.Dimensions,
		Materials:   a.Materials,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

type artworkRequest struct {
	Title       *string             `json:"title"`
	Description *string             `json:"description"`
	Category    *string             `json:"category"`
	Price       *float64            `json:"price"`
	Dimensions  *catalog.Dimensions `json:"dimensions"`
	Materials   []string            `json:"materials"`
}

func (h *ArtworksHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	artworks, err := h.service.List(r.Context(), catalog.ListFilter{
		Category: q.Get("category"),
		Sort:     q.Get("sort"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]artworkJSON, 0, len(artworks))
	for _, a := range artworks {
		out = append(out, toArtworkJSON(a))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"results": len(out),
		"data":    map[string]interface{}{"artworks": out},
	})
}

func (h *ArtworksHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "NotFoundError", "artwork not found")
		return
	}
	a, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   map[string]interface{}{"artwork": toArtworkJSON(a)},
	})
}

func (h *ArtworksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req artworkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "malformed request body")
		return
	}

	a := &catalog.Artwork{}
	if req.Title != nil {
		a.Title = *req.Title
	}
	if req.Description != nil {
		a.Description = *req.Description
	}
	if req.Category != nil {
		a.Category = *req.Category
	}
	if req.Price != nil {
		a.PriceCents = payment.ToMinorUnits(*req.Price)
	}
	if req.Dimensions != nil {
		a.Dimensions = *req.Dimensions
	}
	a.Materials = req.Materials

	created, err := h.service.Create(r.Context(), a)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"status": "success",
		"data":   map[string]interface{}{"artwork": toArtworkJSON(created)},
	})
}

func (h *ArtworksHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "NotFoundError", "artwork not found")
		return
	}
	var req artworkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "malformed request body")
		return
	}

	upd := &catalog.ArtworkUpdate{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Dimensions:  req.Dimensions,
		Materials:   req.Materials,
	}
	if req.Price != nil {
		cents := payment.ToMinorUnits(*req.Price)
		upd.PriceCents = &cents
	}

	a, err := h.service.Update(r.Context(), id, upd)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   map[string]interface{}{"artwork": toArtworkJSON(a)},
	})
}

func (h *ArtworksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "NotFoundError", "artwork not found")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
