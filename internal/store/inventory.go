package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/safar/go-commerce/internal/database"
)

// The functions in this file are the only code that mutates products.stock.
// Order creation debits through DebitStock, cancellation credits through
// CreditStock, and admin corrections go through AdjustStock; nothing else
// may touch the column.

// LockLine is a product row pinned for the duration of an order transaction.
type LockLine struct {
	ProductID int64
	Name      string
	Price     decimal.Decimal
	Stock     int
	IsActive  bool
}

// LockProduct fetches a product row under FOR UPDATE so that the stock read,
// the price snapshot and the later debit happen against the same row image.
func LockProduct(ctx context.Context, tx *sql.Tx, productID int64) (*LockLine, error) {
	line := &LockLine{}

	query := `
		SELECT id, name, price, stock, is_active
		FROM products
		WHERE id = $1
		FOR UPDATE`

	err := tx.QueryRowContext(ctx, query, productID).Scan(
		&line.ProductID,
		&line.Name,
		&line.Price,
		&line.Stock,
		&line.IsActive,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("product %d: %w", productID, database.ErrProductNotFound)
		}
		return nil, fmt.Errorf("lock product %d: %w", productID, err)
	}

	return line, nil
}

// DebitStock decrements stock by quantity as a single conditional update.
// The stock >= quantity predicate makes the decrement and its validation one
// atomic step; zero affected rows means the stock would have gone negative.
func DebitStock(ctx context.Context, tx *sql.Tx, productID int64, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("product %d: %w", productID, database.ErrInvalidQuantity)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE products
		 SET stock = stock - $1,
		     updated_at = NOW()
		 WHERE id = $2
		   AND stock >= $1`,
		quantity, productID)
	if err != nil {
		return fmt.Errorf("debit stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("product %d: %w", productID, database.ErrInsufficientStock)
	}

	return nil
}

// CreditStock restores stock released by a cancelled order. The increment is
// unconditional since it mirrors a prior debit of the same quantity.
func CreditStock(ctx context.Context, tx *sql.Tx, productID int64, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("product %d: %w", productID, database.ErrInvalidQuantity)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE products
		 SET stock = stock + $1,
		     updated_at = NOW()
		 WHERE id = $2`,
		quantity, productID)
	if err != nil {
		return fmt.Errorf("credit stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("product %d: %w", productID, database.ErrProductNotFound)
	}

	return nil
}

// AdjustStock sets an absolute stock level, guarded by the product version so
// concurrent admin corrections cannot silently overwrite each other.
func AdjustStock(ctx context.Context, db *sql.DB, productID int64, newStock, version int) error {
	if newStock < 0 {
		return fmt.Errorf("product %d: %w", productID, database.ErrInvalidQuantity)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE products
		 SET stock = $1, version = version + 1, updated_at = NOW()
		 WHERE id = $2 AND version = $3`,
		newStock, productID, version)
	if err != nil {
		return fmt.Errorf("adjust stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrOptimisticLockFailed
	}

	return nil
}
