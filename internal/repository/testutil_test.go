package repository

import (
	"context"
	"testing"
	"time"

	"mero-kart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL test container, connection pool and schema.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "failed to start postgres container")

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err, "failed to create connection pool")

	require.NoError(t, pool.Ping(ctx))

	createSchema(t, pool)

	cleanup := func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

// createSchema creates the fulfillment schema for testing.
func createSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			role TEXT NOT NULL CHECK (role IN ('customer', 'admin'))
		);

		CREATE TABLE IF NOT EXISTS orders (
			id UUID PRIMARY KEY,
			buyer_id UUID NOT NULL REFERENCES users(id),
			items_subtotal DECIMAL(10,2) NOT NULL CHECK (items_subtotal >= 0),
			shipping_fee DECIMAL(10,2) NOT NULL CHECK (shipping_fee >= 0),
			tax DECIMAL(10,2) NOT NULL CHECK (tax >= 0),
			total DECIMAL(10,2) NOT NULL CHECK (total >= 0),
			payment_method TEXT NOT NULL DEFAULT '',
			is_paid BOOLEAN NOT NULL DEFAULT FALSE,
			paid_at TIMESTAMPTZ,
			transaction_ref TEXT,
			is_delivered BOOLEAN NOT NULL DEFAULT FALSE,
			delivered_at TIMESTAMPTZ,
			correlation_id TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS order_items (
			id UUID PRIMARY KEY,
			order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			product_id TEXT NOT NULL,
			name TEXT NOT NULL,
			unit_price DECIMAL(10,2) NOT NULL CHECK (unit_price >= 0),
			quantity INTEGER NOT NULL CHECK (quantity > 0),
			image_url TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS payment_correlations (
			correlation_id TEXT PRIMARY KEY,
			order_id UUID NOT NULL UNIQUE REFERENCES orders(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`

	_, err := pool.Exec(ctx, schema)
	require.NoError(t, err)
}

// seedUser inserts a user for tests that need a buyer or admin.
func seedUser(t *testing.T, pool *pgxpool.Pool, role model.Role) *model.User {
	t.Helper()

	user := &model.User{
		ID:    uuid.New(),
		Name:  "Test User",
		Email: "test@example.com",
		Role:  role,
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO users (id, name, email, role) VALUES ($1, $2, $3, $4)`,
		user.ID, user.Name, user.Email, string(user.Role))
	require.NoError(t, err)

	return user
}

// newTestOrder builds an unpaid order for the given buyer.
func newTestOrder(buyerID uuid.UUID) (*model.Order, []model.OrderItem) {
	now := time.Now()
	order := &model.Order{
		ID:      uuid.New(),
		BuyerID: buyerID,
		Pricing: model.Pricing{
			ItemsSubtotal: 100,
			ShippingFee:   10,
			Tax:           9,
			Total:         119,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	items := []model.OrderItem{
		{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: "P001",
			Name:      "Ilam Tea",
			UnitPrice: 50,
			Quantity:  2,
			ImageURL:  "/images/tea.jpg",
		},
	}

	return order, items
}
