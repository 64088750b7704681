package repository

import (
	"context"
	"fmt"
	"time"

	"mero-kart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// Create inserts a new order with its item snapshot in a single transaction.
func (r *orderRepository) Create(ctx context.Context, order *model.Order, items []model.OrderItem) error {
	if !order.Pricing.ConsistentTotal() {
		r.logger.Warn().
			Str("order_id", order.ID.String()).
			Float64("total", order.Pricing.Total).
			Msg("rejected order with inconsistent total")
		return model.ErrPricingMismatch
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
				r.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	orderQuery := `
		INSERT INTO orders (
			id, buyer_id, items_subtotal, shipping_fee, tax, total,
			payment_method, is_paid, is_delivered, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, FALSE, $8, $8)
	`

	_, err = tx.Exec(ctx, orderQuery,
		order.ID,
		order.BuyerID,
		order.Pricing.ItemsSubtotal,
		order.Pricing.ShippingFee,
		order.Pricing.Tax,
		order.Pricing.Total,
		order.PaymentMethod,
		order.CreatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, name, unit_price, quantity, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(itemQuery, item.ID, item.OrderID, item.ProductID, item.Name, item.UnitPrice, item.Quantity, item.ImageURL)
	}

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < len(items); i++ {
		if _, execErr := results.Exec(); execErr != nil {
			results.Close()
			err = fmt.Errorf("failed to create order item: %w", execErr)
			r.logger.Error().
				Err(execErr).
				Str("order_id", order.ID.String()).
				Str("product_id", items[i].ProductID).
				Msg("failed to create order item")
			return err
		}
	}
	if err = results.Close(); err != nil {
		return fmt.Errorf("failed to flush order item batch: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Int("item_count", len(items)).
		Msg("order created successfully")

	return nil
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error) {
	orderQuery := `
		SELECT id, buyer_id, items_subtotal, shipping_fee, tax, total,
		       payment_method, is_paid, paid_at, transaction_ref,
		       is_delivered, delivered_at, correlation_id, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var order model.Order
	err := r.pool.QueryRow(ctx, orderQuery, id).Scan(
		&order.ID,
		&order.BuyerID,
		&order.Pricing.ItemsSubtotal,
		&order.Pricing.ShippingFee,
		&order.Pricing.Tax,
		&order.Pricing.Total,
		&order.PaymentMethod,
		&order.IsPaid,
		&order.PaidAt,
		&order.TransactionRef,
		&order.IsDelivered,
		&order.DeliveredAt,
		&order.CorrelationID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, nil, fmt.Errorf("failed to query order: %w", err)
	}

	itemsQuery := `
		SELECT id, order_id, product_id, name, unit_price, quantity, image_url
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, itemsQuery, id)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Msg("failed to query order items")
		return nil, nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.UnitPrice, &item.Quantity, &item.ImageURL)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return &order, items, nil
}

// MarkPaid transitions the order to paid in a single conditional update.
// The WHERE clause is the compare-and-set: only an unpaid row is changed, so
// duplicate confirmations racing each other collapse to one effective write.
func (r *orderRepository) MarkPaid(ctx context.Context, id uuid.UUID, update model.PaymentUpdate) (bool, error) {
	query := `
		UPDATE orders
		SET is_paid = TRUE,
		    paid_at = $2,
		    payment_method = $3,
		    transaction_ref = $4,
		    correlation_id = NULL,
		    updated_at = $2
		WHERE id = $1 AND is_paid = FALSE
	`

	tag, err := r.pool.Exec(ctx, query, id, update.PaidAt, update.Method, update.TransactionRef)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to mark order paid")
		return false, fmt.Errorf("failed to mark order paid: %w", err)
	}

	if tag.RowsAffected() == 0 {
		r.logger.Debug().Str("order_id", id.String()).Msg("mark paid affected no rows")
		return false, nil
	}

	r.logger.Info().
		Str("order_id", id.String()).
		Str("method", string(update.Method)).
		Str("transaction_ref", update.TransactionRef).
		Msg("order marked as paid")

	return true, nil
}

// MarkDelivered transitions a paid, undelivered order to delivered.
func (r *orderRepository) MarkDelivered(ctx context.Context, id uuid.UUID, deliveredAt time.Time) (bool, error) {
	query := `
		UPDATE orders
		SET is_delivered = TRUE,
		    delivered_at = $2,
		    updated_at = $2
		WHERE id = $1 AND is_paid = TRUE AND is_delivered = FALSE
	`

	tag, err := r.pool.Exec(ctx, query, id, deliveredAt)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to mark order delivered")
		return false, fmt.Errorf("failed to mark order delivered: %w", err)
	}

	if tag.RowsAffected() == 0 {
		r.logger.Debug().Str("order_id", id.String()).Msg("mark delivered affected no rows")
		return false, nil
	}

	r.logger.Info().Str("order_id", id.String()).Msg("order marked as delivered")

	return true, nil
}
