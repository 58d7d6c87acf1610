package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-service/internal/order"
)

type PaymentCallbackRequest struct {
	OrderID string `json:"order_id"`
}

// PaymentCallbackHandler receives the gateway's asynchronous success/failure
// notifications. Redelivery of an already-processed callback answers 200 so
// the gateway stops retrying; only genuine processing failures answer 5xx.
type PaymentCallbackHandler struct {
	svc order.Service
}

func NewPaymentCallbackHandler(svc order.Service) *PaymentCallbackHandler {
	return &PaymentCallbackHandler{svc: svc}
}

func (h *PaymentCallbackHandler) RegisterRoutes(router chi.Router) {
	router.Post("/payments/mock-callback/success", h.handleSuccess)
	router.Post("/payments/mock-callback/failure", h.handleFailure)
}

func (h *PaymentCallbackHandler) handleSuccess(w http.ResponseWriter, r *http.Request) {
	h.handleCallback(w, r, h.svc.HandlePaymentSuccess)
}

func (h *PaymentCallbackHandler) handleFailure(w http.ResponseWriter, r *http.Request) {
	h.handleCallback(w, r, h.svc.HandlePaymentFailure)
}

func (h *PaymentCallbackHandler) handleCallback(w http.ResponseWriter, r *http.Request, process func(ctx context.Context, orderID uuid.UUID) error) {
	var req PaymentCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid callback payload")
		return
	}

	orderID, err := uuid.FromString(req.OrderID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "order_id must be a valid UUID")
		return
	}

	if err := process(r.Context(), orderID); err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			respondWithError(w, http.StatusNotFound, "order not found")
			return
		}

		log.Error().Err(err).Stringer("order_id", orderID).Msg("Failed to process payment callback")
		respondWithError(w, http.StatusInternalServerError, "failed to process callback")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
