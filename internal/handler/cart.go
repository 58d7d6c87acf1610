package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-service/internal/cart"
)

type AddCartItemRequest struct {
	MemberID  uuid.UUID `json:"member_id" validate:"required"`
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

type UpdateCartItemRequest struct {
	MemberID uuid.UUID `json:"member_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,gt=0"`
}

// CartHandler handles HTTP requests for the shopping cart.
type CartHandler struct {
	svc      cart.Service
	validate *validator.Validate
}

func NewCartHandler(svc cart.Service) *CartHandler {
	return &CartHandler{
		svc:      svc,
		validate: validator.New(),
	}
}

func (h *CartHandler) RegisterRoutes(router chi.Router) {
	router.Get("/cart", h.handleGetCart)
	router.Post("/cart/items", h.handleAddItem)
	router.Put("/cart/items/{productId}", h.handleUpdateItem)
	router.Delete("/cart/items/{productId}", h.handleRemoveItem)
	router.Delete("/cart", h.handleClear)
}

func (h *CartHandler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	memberID, ok := parseMemberIDQuery(w, r)
	if !ok {
		return
	}

	c, err := h.svc.GetCartWithItems(r.Context(), memberID)
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, c)
}

func (h *CartHandler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req AddCartItemRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.svc.AddItem(r.Context(), req.MemberID, req.ProductID, req.Quantity); err != nil {
		log.Warn().Err(err).Stringer("member_id", req.MemberID).Msg("Failed to add cart item")
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

func (h *CartHandler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseUUIDParam(w, r, "productId")
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.svc.UpdateItemQuantity(r.Context(), req.MemberID, productID, req.Quantity); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *CartHandler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseUUIDParam(w, r, "productId")
	if !ok {
		return
	}

	memberID, ok := parseMemberIDQuery(w, r)
	if !ok {
		return
	}

	if err := h.svc.RemoveItem(r.Context(), memberID, productID); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (h *CartHandler) handleClear(w http.ResponseWriter, r *http.Request) {
	memberID, ok := parseMemberIDQuery(w, r)
	if !ok {
		return
	}

	if err := h.svc.Clear(r.Context(), memberID); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (h *CartHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
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
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		}
		return false
	}

	return true
}
