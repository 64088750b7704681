package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"mero-kart/internal/config"
	"mero-kart/internal/database"
	"mero-kart/internal/model"
	"mero-kart/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// seed_demo_data creates the schema and inserts a small demo data set:
// one admin, two customers and three orders in different lifecycle states
// (unpaid, paid, delivered). Run with: go run scripts/seed_demo_data.go
func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := config.NewLogger(cfg.Logger)

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := createSchema(ctx, pool); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}
	fmt.Println("Schema created")

	admin := &model.User{ID: uuid.New(), Name: "Admin", Email: "admin@merokart.test", Role: model.RoleAdmin}
	sita := &model.User{ID: uuid.New(), Name: "Sita Sharma", Email: "sita@merokart.test", Role: model.RoleCustomer}
	hari := &model.User{ID: uuid.New(), Name: "Hari Thapa", Email: "hari@merokart.test", Role: model.RoleCustomer}

	for _, user := range []*model.User{admin, sita, hari} {
		if err := insertUser(ctx, pool, user); err != nil {
			log.Fatalf("Failed to insert user %s: %v", user.Email, err)
		}
		fmt.Printf("Created %-8s %s (%s)\n", string(user.Role), user.Name, user.ID)
	}

	orderRepo := repository.NewOrderRepository(pool, logger)

	// Unpaid order for Sita.
	unpaid := demoOrder(sita.ID, 100, 10, 9)
	if err := orderRepo.Create(ctx, unpaid.order, unpaid.items); err != nil {
		log.Fatalf("Failed to create unpaid order: %v", err)
	}
	fmt.Printf("Created unpaid order    %s\n", unpaid.order.ID)

	// Paid order for Sita.
	paid := demoOrder(sita.ID, 250, 0, 22.5)
	if err := orderRepo.Create(ctx, paid.order, paid.items); err != nil {
		log.Fatalf("Failed to create paid order: %v", err)
	}
	if _, err := orderRepo.MarkPaid(ctx, paid.order.ID, model.PaymentUpdate{
		Method:         model.PaymentMethodPayPal,
		TransactionRef: "DEMO-TX-" + paid.order.ID.String()[:8],
		PaidAt:         time.Now(),
	}); err != nil {
		log.Fatalf("Failed to mark order paid: %v", err)
	}
	fmt.Printf("Created paid order      %s\n", paid.order.ID)

	// Paid and delivered order for Hari.
	delivered := demoOrder(hari.ID, 80, 10, 7.2)
	if err := orderRepo.Create(ctx, delivered.order, delivered.items); err != nil {
		log.Fatalf("Failed to create delivered order: %v", err)
	}
	if _, err := orderRepo.MarkPaid(ctx, delivered.order.ID, model.PaymentUpdate{
		Method:         model.PaymentMethodEsewa,
		TransactionRef: "DEMO-TX-" + delivered.order.ID.String()[:8],
		PaidAt:         time.Now().Add(-24 * time.Hour),
	}); err != nil {
		log.Fatalf("Failed to mark order paid: %v", err)
	}
	if _, err := orderRepo.MarkDelivered(ctx, delivered.order.ID, time.Now()); err != nil {
		log.Fatalf("Failed to mark order delivered: %v", err)
	}
	fmt.Printf("Created delivered order %s\n", delivered.order.ID)

	fmt.Println("\nDemo data seeded successfully!")
	fmt.Printf("\nAdmin user id:    %s\n", admin.ID)
	fmt.Printf("Customer (Sita):  %s\n", sita.ID)
	fmt.Printf("Customer (Hari):  %s\n", hari.ID)
	fmt.Println("\nPass the user id in the X-User-ID header to act as that user.")
}

type demoOrderSet struct {
	order *model.Order
	items []model.OrderItem
}

func demoOrder(buyerID uuid.UUID, subtotal, shipping, tax float64) demoOrderSet {
	now := time.Now()
	order := &model.Order{
		ID:      uuid.New(),
		BuyerID: buyerID,
		Pricing: model.Pricing{
			ItemsSubtotal: subtotal,
			ShippingFee:   shipping,
			Tax:           tax,
			Total:         subtotal + shipping + tax,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	items := []model.OrderItem{
		{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: "P001",
			Name:      "Ilam Tea 500g",
			UnitPrice: subtotal / 2,
			Quantity:  2,
			ImageURL:  "/images/ilam-tea.jpg",
		},
	}

	return demoOrderSet{order: order, items: items}
}

func insertUser(ctx context.Context, pool *pgxpool.Pool, user *model.User) error {
	_, err := pool.Exec(ctx,
		`INSERT INTO users (id, name, email, role) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO NOTHING`,
		user.ID, user.Name, user.Email, string(user.Role))
	return err
}

func createSchema(ctx context.Context, pool *pgxpool.Pool) error {
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
	return err
}
