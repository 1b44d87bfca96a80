package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/chris-diam/diamantakis-server/internal/catalog"
	"github.com/chris-diam/diamantakis-server/internal/payment"
	"github.com/chris-diam/diamantakis-server/internal/users"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("encoding response failed")
	}
}

// errorBody is the error shape for every endpoint: the taxonomy name in
// "error", a human-readable "message".
type errorBody struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, errorBody{Status: "error", Error: kind, Message: msg})
}

// writeDomainError maps domain errors onto the HTTP taxonomy:
// ValidationError 400, SignatureError 400, NotFoundError 404,
// ProcessingError 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, payment.ErrValidation),
		errors.Is(err, catalog.ErrInvalid),
		errors.Is(err, users.ErrInvalid):
		writeError(w, http.StatusBadRequest, "ValidationError", err.Error())
	case errors.Is(err, payment.ErrSignature):
		writeError(w, http.StatusBadRequest, "SignatureError", "webhook signature verification failed")
	case errors.Is(err, payment.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, users.ErrNotFound):
		writeError(w, http.StatusNotFound, "NotFoundError", err.Error())
	case errors.Is(err, users.ErrEmailTaken):
		writeError(w, http.StatusBadRequest, "ValidationError", err.Error())
	case errors.Is(err, users.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "AuthenticationError", err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "ProcessingError", "internal server error")
	}
}
