package handler

import (
	"net/http"

	"mero-kart/internal/payment"

	"github.com/rs/zerolog"
)

// ConfigHandler serves gateway bootstrap configuration to clients.
type ConfigHandler struct {
	paypal *payment.PayPalAdapter
	logger zerolog.Logger
}

// NewConfigHandler creates a new config handler.
func NewConfigHandler(paypal *payment.PayPalAdapter, logger zerolog.Logger) *ConfigHandler {
	return &ConfigHandler{
		paypal: paypal,
		logger: logger.With().Str("handler", "config").Logger(),
	}
}

// PayPalClientID handles GET /api/config/paypal requests. Clients use the id
// to load the PayPal SDK script once per session.
func (h *ConfigHandler) PayPalClientID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"clientId": h.paypal.ClientID()})
}
