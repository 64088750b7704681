package integration

import (
	"context"
	"testing"
	"time"

	"mero-kart/internal/model"
	"mero-kart/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container, connection pool and schema.
func SetupTestDB(t *testing.T) *TestDB {
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
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	createSchema(t, pool)

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// createSchema creates the database schema for testing.
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

// SeedUser inserts a user with the given role.
func SeedUser(t *testing.T, pool *pgxpool.Pool, name string, role model.Role) *model.User {
	t.Helper()

	user := &model.User{
		ID:    uuid.New(),
		Name:  name,
		Email: name + "@example.com",
		Role:  role,
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO users (id, name, email, role) VALUES ($1, $2, $3, $4)`,
		user.ID, user.Name, user.Email, string(user.Role))
	require.NoError(t, err)

	return user
}

// SeedOrder creates an unpaid order for the buyer through the repository.
func SeedOrder(t *testing.T, pool *pgxpool.Pool, buyerID uuid.UUID) *model.Order {
	t.Helper()

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

	repo := repository.NewOrderRepository(pool, zerolog.Nop())
	require.NoError(t, repo.Create(context.Background(), order, items))

	return order
}
