package integration

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/safar/go-commerce/internal/database"
	"github.com/safar/go-commerce/internal/store"
)

func TestConcurrentDebitsNeverGoNegative(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	category := createTestCategory(t, db)
	product := createTestProduct(t, db, "INV-001", "10.00", 10, category.ID)

	concurrency := 8
	var wg sync.WaitGroup
	results := make(chan error, concurrency)

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			results <- database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
				return store.DebitStock(ctx, tx, product.ID, 2)
			})
		}()
	}

	wg.Wait()
	close(results)

	successCount := 0
	for err := range results {
		if err == nil {
			successCount++
		} else if !errors.Is(err, database.ErrInsufficientStock) {
			t.Errorf("Unexpected error: %v", err)
		}
	}

	if successCount != 5 {
		t.Errorf("Expected exactly 5 successful debits, got %d", successCount)
	}

	productAfter, err := store.GetProduct(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Get product: %v", err)
	}
	if productAfter.Stock != 0 {
		t.Errorf("Expected stock 0, got %d", productAfter.Stock)
	}
}

func TestCreditStock(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	category := createTestCategory(t, db)
	product := createTestProduct(t, db, "INV-002", "10.00", 3, category.ID)

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		return store.CreditStock(ctx, tx, product.ID, 4)
	})
	if err != nil {
		t.Fatalf("Credit stock: %v", err)
	}

	productAfter, err := store.GetProduct(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Get product: %v", err)
	}
	if productAfter.Stock != 7 {
		t.Errorf("Expected stock 7, got %d", productAfter.Stock)
	}

	err = database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		return store.CreditStock(ctx, tx, product.ID+999, 1)
	})
	if !errors.Is(err, database.ErrProductNotFound) {
		t.Errorf("Expected product not found, got: %v", err)
	}
}

func TestAdjustStockOptimisticLocking(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	category := createTestCategory(t, db)
	product := createTestProduct(t, db, "INV-003", "10.00", 50, category.ID)

	if err := store.AdjustStock(ctx, db, product.ID, 40, product.Version); err != nil {
		t.Fatalf("First adjust should succeed: %v", err)
	}

	err := store.AdjustStock(ctx, db, product.ID, 30, product.Version)
	if !errors.Is(err, database.ErrOptimisticLockFailed) {
		t.Errorf("Expected optimistic lock failure, got: %v", err)
	}

	productAfter, err := store.GetProduct(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Get product: %v", err)
	}
	if productAfter.Stock != 40 {
		t.Errorf("Expected stock 40, got %d", productAfter.Stock)
	}
}

func TestDeactivateProductHidesFromCatalog(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	category := createTestCategory(t, db)
	product := createTestProduct(t, db, "INV-004", "10.00", 5, category.ID)

	if err := store.DeactivateProduct(ctx, db, product.ID); err != nil {
		t.Fatalf("Deactivate product: %v", err)
	}

	if _, err := store.GetActiveProduct(ctx, db, product.ID); !errors.Is(err, database.ErrProductNotFound) {
		t.Errorf("Expected deactivated product to look absent, got: %v", err)
	}

	// The row itself survives for historical order items.
	kept, err := store.GetProduct(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Get product: %v", err)
	}
	if kept.IsActive {
		t.Error("Product should be inactive")
	}

	page, err := store.ListProducts(ctx, db, store.ListProductsOptions{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("List products: %v", err)
	}
	if page.Total != 0 {
		t.Errorf("Active listing should be empty, got %d", page.Total)
	}

	adminPage, err := store.ListProducts(ctx, db, store.ListProductsOptions{Page: 1, PageSize: 10, IncludeInactive: true})
	if err != nil {
		t.Fatalf("List products incl. inactive: %v", err)
	}
	if adminPage.Total != 1 {
		t.Errorf("Admin listing should include the tombstone, got %d", adminPage.Total)
	}
}

func TestListProductsByCategory(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	categoryA := createTestCategory(t, db)
	categoryB, err := store.CreateCategory(ctx, db, "Other Category", "")
	if err != nil {
		t.Fatalf("Create category: %v", err)
	}

	createTestProduct(t, db, "INV-005", "10.00", 5, categoryA.ID)
	createTestProduct(t, db, "INV-006", "10.00", 5, categoryA.ID)
	createTestProduct(t, db, "INV-007", "10.00", 5, categoryB.ID)

	page, err := store.ListProducts(ctx, db, store.ListProductsOptions{Page: 1, PageSize: 10, CategoryID: categoryA.ID})
	if err != nil {
		t.Fatalf("List products: %v", err)
	}
	if page.Total != 2 {
		t.Errorf("Expected 2 products in category, got %d", page.Total)
	}
}
