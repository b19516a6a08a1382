package integration

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/safar/go-commerce/internal/config"
	"github.com/safar/go-commerce/internal/models"
	"github.com/safar/go-commerce/internal/store"
)

func setupTestDB(t *testing.T) (*sql.DB, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:14-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	postgres, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}

	host, err := postgres.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := postgres.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	if err := runMigrations(dsn); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			t.Logf("Failed to close database: %v", err)
		}
		if err := postgres.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return db, cleanup
}

func runMigrations(dsn string) error {
	m, err := migrate.New("file://../../migrations", dsn)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

func testPricer() *store.Pricer {
	return store.NewPricer(config.PricingConfig{
		FreeShippingThreshold: decimal.NewFromInt(100),
		FlatShippingFee:       decimal.NewFromInt(10),
		TaxRate:               decimal.NewFromFloat(0.10),
	})
}

func createTestUser(t *testing.T, db *sql.DB, email string, isAdmin bool) *models.User {
	t.Helper()

	user, err := store.CreateUser(context.Background(), db, email, "Test User", isAdmin)
	if err != nil {
		t.Fatalf("Create user %s: %v", email, err)
	}
	return user
}

func createTestCategory(t *testing.T, db *sql.DB) *models.Category {
	t.Helper()

	category, err := store.CreateCategory(context.Background(), db, "Test Category", "")
	if err != nil {
		t.Fatalf("Create category: %v", err)
	}
	return category
}

func createTestProduct(t *testing.T, db *sql.DB, sku, price string, stock int, categoryID int64) *models.Product {
	t.Helper()

	product, err := store.CreateProduct(context.Background(), db, store.CreateProductRequest{
		SKU:        sku,
		Name:       "Product " + sku,
		CategoryID: categoryID,
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
	})
	if err != nil {
		t.Fatalf("Create product %s: %v", sku, err)
	}
	return product
}

func addToCart(t *testing.T, db *sql.DB, userID, productID int64, quantity int) {
	t.Helper()

	if _, err := store.AddCartItem(context.Background(), db, userID, productID, quantity); err != nil {
		t.Fatalf("Add product %d to cart: %v", productID, err)
	}
}

func testShipping() models.ShippingInfo {
	return models.ShippingInfo{
		Address:  "1 Test St",
		City:     "Sydney",
		State:    "NSW",
		Postcode: "2000",
		Country:  "Australia",
	}
}
