package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chris-diam/diamantakis-server/internal/payment"
	"github.com/chris-diam/diamantakis-server/internal/payment/webhook"
)

// maxWebhookBody bounds how much of a webhook delivery we are willing to
// read. Stripe events are small; anything bigger is not for us.
const maxWebhookBody = 1 << 20

type PaymentsHandler struct {
	service    *payment.Service
	processor  webhook.Processor
	dispatcher *webhook.Dispatcher
}

func NewPaymentsHandler(service *payment.Service, processor webhook.Processor, dispatcher *webhook.Dispatcher) *PaymentsHandler {
	return &PaymentsHandler{service: service, processor: processor, dispatcher: dispatcher}
}

type createIntentRequest struct {
	// Pointer so a missing amount is distinguishable from zero; both are
	// rejected, but with an explicit message.
	Amount   *float64          `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata"`
}

// CreateIntent handles POST /payments/create-payment-intent.
func (h *PaymentsHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req createIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "malformed request body")
		return
	}
	if req.Amount == nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "amount is required")
		return
	}

	intent, err := h.service.CreateIntent(r.Context(), UserID(r.Context()), *req.Amount, req.Currency, req.Metadata)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":       "success",
		"clientSecret": intent.ClientSecret,
	})
}

// Status handles GET /payments/status/{paymentIntentId}.
func (h *PaymentsHandler) Status(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "paymentIntentId")
	status, err := h.service.GetIntentStatus(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   status,
	})
}

// Webhook handles POST /payments/webhook. The body is read raw and passed to
// the verifier untouched: the signature covers exact bytes.
func (h *PaymentsHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "unreadable webhook body")
		return
	}

	event, err := h.processor.VerifyAndParse(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		// 400, never acknowledged: the provider's retry mechanism redelivers.
		writeDomainError(w, err)
		return
	}

	if err := h.dispatcher.Dispatch(r.Context(), event); err != nil {
		// 500 so the provider retries delivery later.
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
