package correlator

import (
	"context"

	"github.com/google/uuid"
)

// Correlator binds redirect-based payment sessions back to pending orders.
// Each issued correlation id can be consumed at most once.
type Correlator interface {
	// Issue generates a fresh correlation id for the order and stores the
	// mapping. Fails with model.ErrCorrelationConflict if the order already
	// has a pending correlation.
	Issue(ctx context.Context, orderID uuid.UUID) (string, error)

	// Consume atomically looks up and removes the mapping, returning the
	// order it belonged to. Fails with model.ErrCorrelationUnknown if the id
	// was never issued or has already been consumed; callers treat that as
	// the duplicate-return signal, not a hard error.
	Consume(ctx context.Context, correlationID string) (uuid.UUID, error)
}
