package router

import (
	"net/http"
	"strings"

	"mero-kart/internal/auth"
	"mero-kart/internal/handler"
	"mero-kart/internal/middleware"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	orderHandler *handler.OrderHandler,
	configHandler *handler.ConfigHandler,
	gate auth.Gate,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	mux.HandleFunc("/api/config/paypal", configHandler.PayPalClientID)

	// Order routes: /api/orders/{id} plus the pay, esewa and deliver
	// sub-resources.
	orderRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/orders"), "/")
		if rest == "" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		parts := strings.Split(rest, "/")
		orderID, err := uuid.Parse(parts[0])
		if err != nil {
			http.Error(w, "invalid order ID format", http.StatusBadRequest)
			return
		}

		switch {
		case len(parts) == 1 && r.Method == http.MethodGet:
			orderHandler.GetByID(w, r, orderID)
		case len(parts) == 2 && parts[1] == "pay" && r.Method == http.MethodPost:
			orderHandler.Pay(w, r, orderID)
		case len(parts) == 2 && parts[1] == "esewa" && r.Method == http.MethodPost:
			orderHandler.InitiateEsewa(w, r, orderID)
		case len(parts) == 2 && parts[1] == "deliver" && r.Method == http.MethodPost:
			orderHandler.Deliver(w, r, orderID)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}

	mux.HandleFunc("/api/orders", orderRouteHandler)
	mux.HandleFunc("/api/orders/", orderRouteHandler)

	// Apply middleware in order: Recovery -> Logging -> CORS -> APIKeyAuth -> Identity
	var h http.Handler = mux
	h = middleware.Identity(gate, logger)(h)
	h = middleware.APIKeyAuth(apiKey, logger)(h)
	h = middleware.CORS(h)
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger)(h)

	return h
}
