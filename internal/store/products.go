package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/safar/go-commerce/internal/database"
	"github.com/safar/go-commerce/internal/models"
)

const productColumns = `id, sku, name, description, category_id, price, stock, is_active, created_at, updated_at, version`

func scanProduct(row interface{ Scan(...interface{}) error }, product *models.Product) error {
	return row.Scan(
		&product.ID,
		&product.SKU,
		&product.Name,
		&product.Description,
		&product.CategoryID,
		&product.Price,
		&product.Stock,
		&product.IsActive,
		&product.CreatedAt,
		&product.UpdatedAt,
		&product.Version,
	)
}

type CreateProductRequest struct {
	SKU         string
	Name        string
	Description string
	CategoryID  int64
	Price       decimal.Decimal
	Stock       int
}

func CreateProduct(ctx context.Context, db *sql.DB, req CreateProductRequest) (*models.Product, error) {
	if req.Stock < 0 {
		return nil, database.ErrInvalidQuantity
	}

	product := &models.Product{}

	query := `
		INSERT INTO products (sku, name, description, category_id, price, stock, is_active, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, NOW(), NOW(), 1)
		RETURNING ` + productColumns

	err := scanProduct(db.QueryRowContext(ctx, query,
		req.SKU, req.Name, req.Description, req.CategoryID, req.Price, req.Stock), product)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("sku %s: %w", req.SKU, database.ErrDuplicateSKU)
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	return product, nil
}

// GetProduct is the catalog read used by the cart and the order pipeline:
// price, stock and active flag as of the call.
func GetProduct(ctx context.Context, db *sql.DB, id int64) (*models.Product, error) {
	product := &models.Product{}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	err := scanProduct(db.QueryRowContext(ctx, query, id), product)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

// GetActiveProduct rejects tombstoned products with the same error as a
// missing row, so callers cannot distinguish deleted from never-existed.
func GetActiveProduct(ctx context.Context, db *sql.DB, id int64) (*models.Product, error) {
	product, err := GetProduct(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, database.ErrProductNotFound
	}
	return product, nil
}

type ListProductsOptions struct {
	Page            int
	PageSize        int
	CategoryID      int64 // 0 means all categories
	IncludeInactive bool
}

func ListProducts(ctx context.Context, db *sql.DB, opts ListProductsOptions) (*OffsetPage, error) {
	var total int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products
		 WHERE ($1 OR is_active)
		   AND ($2::bigint = 0 OR category_id = $2)`,
		opts.IncludeInactive, opts.CategoryID).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	offset := (opts.Page - 1) * opts.PageSize
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE ($1 OR is_active)
		  AND ($2::bigint = 0 OR category_id = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := db.QueryContext(ctx, query, opts.IncludeInactive, opts.CategoryID, opts.PageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var product models.Product
		if err := scanProduct(rows, &product); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return newOffsetPage(products, total, opts.Page, opts.PageSize), nil
}

type UpdateProductRequest struct {
	Name        string
	Description string
	CategoryID  int64
	Price       decimal.Decimal
}

// UpdateProduct changes catalog fields only. Stock is owned by the inventory
// ledger and is deliberately not updatable here.
func UpdateProduct(ctx context.Context, db *sql.DB, id int64, req UpdateProductRequest) (*models.Product, error) {
	product := &models.Product{}

	query := `
		UPDATE products
		SET name = $1, description = $2, category_id = $3, price = $4,
		    version = version + 1, updated_at = NOW()
		WHERE id = $5
		RETURNING ` + productColumns

	err := scanProduct(db.QueryRowContext(ctx, query,
		req.Name, req.Description, req.CategoryID, req.Price, id), product)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	return product, nil
}

// DeactivateProduct tombstones a product instead of deleting it, so existing
// order items keep a valid product reference.
func DeactivateProduct(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE products
		 SET is_active = FALSE, version = version + 1, updated_at = NOW()
		 WHERE id = $1`,
		id)
	if err != nil {
		return fmt.Errorf("deactivate product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrProductNotFound
	}

	return nil
}
