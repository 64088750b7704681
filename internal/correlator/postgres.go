package correlator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mero-kart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// uniqueViolation is the PostgreSQL error code for unique constraint failures.
const uniqueViolation = "23505"

// pgCorrelator implements Correlator against the payment_correlations table.
type pgCorrelator struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresCorrelator creates a new PostgreSQL-backed correlator.
func NewPostgresCorrelator(pool *pgxpool.Pool, logger zerolog.Logger) Correlator {
	return &pgCorrelator{
		pool:   pool,
		logger: logger.With().Str("component", "correlator").Logger(),
	}
}

// Issue generates a fresh correlation id for the order and stores the mapping.
// The mapping insert and the pending-id stamp on the order row share one
// transaction so a reload of the order page always sees a consistent pair.
func (c *pgCorrelator) Issue(ctx context.Context, orderID uuid.UUID) (string, error) {
	correlationID, err := NewCorrelationID()
	if err != nil {
		return "", err
	}

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to begin transaction")
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
				c.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	insertQuery := `
		INSERT INTO payment_correlations (correlation_id, order_id, created_at)
		VALUES ($1, $2, $3)
	`

	_, err = tx.Exec(ctx, insertQuery, correlationID, orderID, time.Now())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			c.logger.Debug().
				Str("order_id", orderID.String()).
				Msg("order already has a pending correlation")
			err = model.ErrCorrelationConflict
			return "", err
		}
		c.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to insert correlation")
		return "", fmt.Errorf("failed to insert correlation: %w", err)
	}

	stampQuery := `
		UPDATE orders
		SET correlation_id = $2, updated_at = $3
		WHERE id = $1 AND is_paid = FALSE
	`

	_, err = tx.Exec(ctx, stampQuery, orderID, correlationID, time.Now())
	if err != nil {
		c.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to stamp correlation on order")
		return "", fmt.Errorf("failed to stamp correlation on order: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		c.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to commit transaction")
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	c.logger.Info().
		Str("order_id", orderID.String()).
		Str("correlation_id", correlationID).
		Msg("correlation issued")

	return correlationID, nil
}

// Consume atomically looks up and removes the mapping. DELETE ... RETURNING
// makes lookup and invalidation one statement, so two concurrent returns with
// the same id can never both succeed.
func (c *pgCorrelator) Consume(ctx context.Context, correlationID string) (uuid.UUID, error) {
	query := `
		DELETE FROM payment_correlations
		WHERE correlation_id = $1
		RETURNING order_id
	`

	var orderID uuid.UUID
	err := c.pool.QueryRow(ctx, query, correlationID).Scan(&orderID)
	if err != nil {
		if err == pgx.ErrNoRows {
			c.logger.Debug().
				Str("correlation_id", correlationID).
				Msg("correlation unknown or already consumed")
			return uuid.Nil, model.ErrCorrelationUnknown
		}
		c.logger.Error().Err(err).Str("correlation_id", correlationID).Msg("failed to consume correlation")
		return uuid.Nil, fmt.Errorf("failed to consume correlation: %w", err)
	}

	c.logger.Info().
		Str("correlation_id", correlationID).
		Str("order_id", orderID.String()).
		Msg("correlation consumed")

	return orderID, nil
}
