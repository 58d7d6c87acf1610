package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-service/internal/order"
)

type DeliveryInfoRequest struct {
	ReceiverName    string `json:"receiver_name" validate:"required"`
	Address         string `json:"address" validate:"required"`
	AddressDetail   string `json:"address_detail"`
	DeliveryMessage string `json:"delivery_message"`
}

type PlaceOrderRequest struct {
	MemberID      uuid.UUID           `json:"member_id" validate:"required"`
	ProductID     uuid.UUID           `json:"product_id" validate:"required"`
	Quantity      int                 `json:"quantity" validate:"required,gt=0"`
	Delivery      DeliveryInfoRequest `json:"delivery" validate:"required"`
	PaymentMethod string              `json:"payment_method" validate:"required"`
}

type PlaceCartOrderRequest struct {
	MemberID      uuid.UUID           `json:"member_id" validate:"required"`
	Delivery      DeliveryInfoRequest `json:"delivery" validate:"required"`
	PaymentMethod string              `json:"payment_method" validate:"required"`
}

type CancelOrderRequest struct {
	MemberID uuid.UUID `json:"member_id" validate:"required"`
}

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	svc      order.Service
	validate *validator.Validate
}

func NewOrderHandler(svc order.Service) *OrderHandler {
	return &OrderHandler{
		svc:      svc,
		validate: validator.New(),
	}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Post("/orders", h.handlePlaceOrder)
	router.Post("/orders/cart", h.handlePlaceCartOrder)
	router.Post("/orders/{id}/cancel", h.handleCancelOrder)
	router.Get("/orders/{id}", h.handleGetOrderDetails)
	router.Get("/orders", h.handleGetOrdersByMember)
}

func (h *OrderHandler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	initiation, err := h.svc.PlaceOrder(r.Context(), req.MemberID, req.ProductID, req.Quantity, deliveryInfo(req.Delivery), req.PaymentMethod)
	if err != nil {
		log.Warn().Err(err).Stringer("member_id", req.MemberID).Msg("Failed to place order")
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, initiation)
}

func (h *OrderHandler) handlePlaceCartOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceCartOrderRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	initiation, err := h.svc.PlaceCartOrder(r.Context(), req.MemberID, deliveryInfo(req.Delivery), req.PaymentMethod)
	if err != nil {
		log.Warn().Err(err).Stringer("member_id", req.MemberID).Msg("Failed to place cart order")
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, initiation)
}

func (h *OrderHandler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	var req CancelOrderRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.svc.CancelOrder(r.Context(), req.MemberID, orderID); err != nil {
		log.Warn().Err(err).Stringer("order_id", orderID).Msg("Failed to cancel order")
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "canceled"})
}

func (h *OrderHandler) handleGetOrderDetails(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	memberID, ok := parseMemberIDQuery(w, r)
	if !ok {
		return
	}

	details, err := h.svc.GetOrderDetails(r.Context(), memberID, orderID)
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, details)
}

func (h *OrderHandler) handleGetOrdersByMember(w http.ResponseWriter, r *http.Request) {
	memberID, ok := parseMemberIDQuery(w, r)
	if !ok {
		return
	}

	summaries, err := h.svc.GetOrdersByMember(r.Context(), memberID)
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, summaries)
}

func (h *OrderHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if ok {
			respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
				Error:   "Validation failed",
				Details: formatValidationErrors(validationErrors),
			})
		} else {
			log.Error().Err(err).Msg("Unexpected error type during validation")
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		}
		return false
	}

	return true
}

func deliveryInfo(req DeliveryInfoRequest) order.DeliveryInfo {
	return order.DeliveryInfo{
		ReceiverName:    req.ReceiverName,
		Address:         req.Address,
		AddressDetail:   req.AddressDetail,
		DeliveryMessage: req.DeliveryMessage,
	}
}

func parseUUIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)
	id, err := uuid.FromString(raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func parseMemberIDQuery(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.URL.Query().Get("member_id")
	if raw == "" {
		respondWithError(w, http.StatusBadRequest, "member_id is required")
		return uuid.Nil, false
	}

	id, err := uuid.FromString(raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "member_id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
