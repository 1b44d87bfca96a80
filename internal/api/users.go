package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/chris-diam/diamantakis-server/internal/users"
)

type UsersHandler struct {
	service *users.Service
}

func NewUsersHandler(service *users.Service) *UsersHandler {
	return &UsersHandler{service: service}
}

func (h *UsersHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req users.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "malformed request body")
		return
	}
	u, token, err := h.service.Signup(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"status": "success",
		"token":  token,
		"data":   map[string]interface{}{"user": u},
	})
}

func (h *UsersHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "malformed request body")
		return
	}
	u, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"token":  token,
		"data":   map[string]interface{}{"user": u},
	})
}

func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AuthenticationError", "invalid user identity")
		return
	}
	u, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   map[string]interface{}{"user": u},
	})
}
