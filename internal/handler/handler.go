package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"mero-kart/internal/model"

	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string, logger zerolog.Logger) {
	logger.Error().Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: model.ErrCodeInternalError, Message: message})
}

// writeServiceError maps a service error to an HTTP response. Domain errors
// carry their own code and status; anything else is an internal error.
func writeServiceError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		status := domainStatus(domainErr.Code)
		logger.Warn().
			Str("code", domainErr.Code).
			Int("status", status).
			Msg("domain error")
		writeJSON(w, status, model.ErrorResponse{Error: domainErr.Code, Message: domainErr.Message})
		return
	}

	logger.Error().Err(err).Msg("internal error")
	writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
		Error:   model.ErrCodeInternalError,
		Message: "internal server error",
	})
}

// domainStatus maps domain error codes to HTTP status codes.
func domainStatus(code string) int {
	switch code {
	case model.ErrCodeOrderNotFound, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeOrderNotPaid:
		return http.StatusPreconditionFailed
	case model.ErrCodeCorrelationConflict, model.ErrCodeOrderAlreadyPaid:
		return http.StatusConflict
	case model.ErrCodeInvalidProof, model.ErrCodeInvalidJSON, model.ErrCodePricingMismatch, model.ErrCodeCorrelationUnknown:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
