package service

import (
	"context"

	"mero-kart/internal/auth"
	"mero-kart/internal/model"
	"mero-kart/internal/payment"

	"github.com/google/uuid"
)

// OrderService defines the order state machine: NEW -> PAID -> DELIVERED,
// linear, no skipping. All transitions are idempotent at this boundary.
type OrderService interface {
	// GetOrder retrieves an order view for the buyer or an admin.
	GetOrder(ctx context.Context, id uuid.UUID, caller auth.Identity) (*model.OrderResponse, error)

	// ApplyPayment applies a validated payment confirmation to the order.
	// Re-applying a confirmation to an already-paid order is a no-op success
	// that returns the stored paid state unchanged.
	ApplyPayment(ctx context.Context, id uuid.UUID, proof model.PaymentProof) (*model.OrderResponse, error)

	// MarkDelivered transitions a paid order to delivered. Admin only;
	// idempotent once delivered.
	MarkDelivered(ctx context.Context, id uuid.UUID, caller auth.Identity) (*model.OrderResponse, error)

	// InitiateRedirectPayment issues a payment correlation for the order and
	// returns the form the browser submits to the external gateway.
	InitiateRedirectPayment(ctx context.Context, id uuid.UUID, caller auth.Identity) (*payment.RedirectForm, error)
}
