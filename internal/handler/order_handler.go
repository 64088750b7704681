package handler

import (
	"encoding/json"
	"net/http"

	"mero-kart/internal/middleware"
	"mero-kart/internal/model"
	"mero-kart/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// GetByID handles GET /api/orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request, orderID uuid.UUID) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "caller identity is required", h.logger)
		return
	}

	order, err := h.service.GetOrder(r.Context(), orderID, caller)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Pay handles POST /api/orders/{id}/pay requests. The body carries either a
// direct-callback confirmation ({transactionRef, status}) or the correlation
// id a redirect-based payment returned with ({correlationId}).
func (h *OrderHandler) Pay(w http.ResponseWriter, r *http.Request, orderID uuid.UUID) {
	var proof model.PaymentProof
	if err := json.NewDecoder(r.Body).Decode(&proof); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{
			Error:   model.ErrCodeInvalidJSON,
			Message: "invalid request body",
		})
		return
	}

	// Redirect returns arrive with the id in the query string as well; the
	// body wins when both are present.
	if proof.CorrelationID == "" {
		if refID := r.URL.Query().Get("refId"); refID != "" {
			proof.CorrelationID = refID
		}
	}

	order, err := h.service.ApplyPayment(r.Context(), orderID, proof)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Deliver handles POST /api/orders/{id}/deliver requests. Admin only.
func (h *OrderHandler) Deliver(w http.ResponseWriter, r *http.Request, orderID uuid.UUID) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "caller identity is required", h.logger)
		return
	}

	order, err := h.service.MarkDelivered(r.Context(), orderID, caller)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// InitiateEsewa handles POST /api/orders/{id}/esewa requests, returning the
// form the browser submits to the external payment page.
func (h *OrderHandler) InitiateEsewa(w http.ResponseWriter, r *http.Request, orderID uuid.UUID) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "caller identity is required", h.logger)
		return
	}

	form, err := h.service.InitiateRedirectPayment(r.Context(), orderID, caller)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, form)
}
