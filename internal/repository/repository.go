package repository

import (
	"context"
	"time"

	"mero-kart/internal/model"

	"github.com/google/uuid"
)

// OrderRepository defines the interface for order data access operations.
// Mutations are conditional updates: they apply only when the order's state
// flag is in its expected prior state, so concurrent duplicates collapse to a
// single effective write.
type OrderRepository interface {
	// Create inserts a new order with its item snapshot. This is the seam used
	// by the (out-of-scope) checkout collaborator; it enforces the pricing
	// total invariant at the only point where pricing is written.
	Create(ctx context.Context, order *model.Order, items []model.OrderItem) error

	// GetByID retrieves an order by its ID along with its items.
	// Returns (nil, nil, nil) when the order does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error)

	// MarkPaid transitions the order to paid in a single conditional update.
	// Returns false when no row changed, i.e. the order is absent or already
	// paid; the caller re-reads once to tell the two apart.
	MarkPaid(ctx context.Context, id uuid.UUID, update model.PaymentUpdate) (bool, error)

	// MarkDelivered transitions a paid, undelivered order to delivered.
	// Returns false when no row changed.
	MarkDelivered(ctx context.Context, id uuid.UUID, deliveredAt time.Time) (bool, error)
}

// UserRepository defines the interface for user lookups. Only identity and
// role are needed here; account administration lives elsewhere.
type UserRepository interface {
	// GetByID retrieves a user by ID. Returns (nil, nil) when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}
