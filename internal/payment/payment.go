package payment

import (
	"context"

	"mero-kart/internal/model"
)

// DirectGateway validates payment confirmations delivered synchronously by
// the buyer's client (the client talks to the provider SDK itself and submits
// the signed result).
type DirectGateway interface {
	// ValidateProof checks the confirmation payload. Returns
	// model.ErrInvalidProof when the payload is malformed or not successful.
	ValidateProof(proof model.PaymentProof) error

	// Method returns the payment method this gateway confirms.
	Method() model.PaymentMethod
}

// RedirectGateway handles payments completed on an external page the browser
// is redirected to, correlated back to the order out of band.
type RedirectGateway interface {
	// BuildRedirect constructs the form the browser submits to the external
	// payment page for the given order and correlation id.
	BuildRedirect(order *model.Order, correlationID string) RedirectForm

	// Verify confirms the transaction with the gateway before any payment is
	// applied. Failures of any kind map to model.ErrInvalidProof.
	Verify(ctx context.Context, correlationID string, amount float64) error

	// Method returns the payment method this gateway confirms.
	Method() model.PaymentMethod
}

// RedirectForm describes an outbound payment form submission.
type RedirectForm struct {
	Action string            `json:"action"`
	Fields map[string]string `json:"fields"`
}
