package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/go-commerce/internal/database"
	"github.com/safar/go-commerce/internal/models"
)

func GetCartItems(ctx context.Context, db *sql.DB, userID int64) ([]models.CartItem, error) {
	query := `
		SELECT ci.id, ci.user_id, ci.product_id, ci.quantity, ci.created_at, ci.updated_at,
		       p.id, p.sku, p.name, p.description, p.category_id, p.price, p.stock, p.is_active,
		       p.created_at, p.updated_at, p.version
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.created_at`

	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	defer rows.Close()

	var items []models.CartItem
	for rows.Next() {
		var item models.CartItem
		var product models.Product
		err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.ProductID,
			&item.Quantity,
			&item.CreatedAt,
			&item.UpdatedAt,
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
		if err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		item.Product = &product
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

// AddCartItem adds a product to the cart, merging with an existing line for
// the same product. The stock check here is advisory UX only; the inventory
// ledger re-checks authoritatively at order time.
func AddCartItem(ctx context.Context, db *sql.DB, userID, productID int64, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, database.ErrInvalidQuantity
	}

	product, err := GetActiveProduct(ctx, db, productID)
	if err != nil {
		return nil, err
	}

	item := &models.CartItem{}

	err = database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var existingQuantity int
		err := tx.QueryRowContext(ctx,
			`SELECT quantity FROM cart_items WHERE user_id = $1 AND product_id = $2 FOR UPDATE`,
			userID, productID).Scan(&existingQuantity)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("get existing cart line: %w", err)
		}

		newQuantity := existingQuantity + quantity
		if newQuantity > product.Stock {
			return fmt.Errorf("product %d: %w", productID, database.ErrInsufficientStock)
		}

		query := `
			INSERT INTO cart_items (user_id, product_id, quantity, created_at, updated_at)
			VALUES ($1, $2, $3, NOW(), NOW())
			ON CONFLICT (user_id, product_id)
			DO UPDATE SET quantity = $3, updated_at = NOW()
			RETURNING id, user_id, product_id, quantity, created_at, updated_at`

		return tx.QueryRowContext(ctx, query, userID, productID, newQuantity).Scan(
			&item.ID,
			&item.UserID,
			&item.ProductID,
			&item.Quantity,
			&item.CreatedAt,
			&item.UpdatedAt,
		)
	})
	if err != nil {
		return nil, err
	}

	item.Product = product
	return item, nil
}

func UpdateCartItem(ctx context.Context, db *sql.DB, userID, cartItemID int64, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, database.ErrInvalidQuantity
	}

	item := &models.CartItem{}

	var productID int64
	err := db.QueryRowContext(ctx,
		`SELECT product_id FROM cart_items WHERE id = $1 AND user_id = $2`,
		cartItemID, userID).Scan(&productID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrCartItemNotFound
		}
		return nil, fmt.Errorf("get cart item: %w", err)
	}

	product, err := GetActiveProduct(ctx, db, productID)
	if err != nil {
		return nil, err
	}

	if quantity > product.Stock {
		return nil, fmt.Errorf("product %d: %w", productID, database.ErrInsufficientStock)
	}

	query := `
		UPDATE cart_items
		SET quantity = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3
		RETURNING id, user_id, product_id, quantity, created_at, updated_at`

	err = db.QueryRowContext(ctx, query, quantity, cartItemID, userID).Scan(
		&item.ID,
		&item.UserID,
		&item.ProductID,
		&item.Quantity,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrCartItemNotFound
		}
		return nil, fmt.Errorf("update cart item: %w", err)
	}

	item.Product = product
	return item, nil
}

func RemoveCartItem(ctx context.Context, db *sql.DB, userID, cartItemID int64) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE id = $1 AND user_id = $2`,
		cartItemID, userID)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrCartItemNotFound
	}

	return nil
}

func ClearCart(ctx context.Context, db *sql.DB, userID int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

type cartLine struct {
	ProductID int64
	Quantity  int
}

// cartLinesForUpdate snapshots the user's cart inside the order transaction.
// Rows come back ordered by product id so every order transaction acquires
// product locks in the same order.
func cartLinesForUpdate(ctx context.Context, tx *sql.Tx, userID int64) ([]cartLine, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT product_id, quantity
		 FROM cart_items
		 WHERE user_id = $1
		 ORDER BY product_id
		 FOR UPDATE`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("lock cart lines: %w", err)
	}
	defer rows.Close()

	var lines []cartLine
	for rows.Next() {
		var line cartLine
		if err := rows.Scan(&line.ProductID, &line.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return lines, nil
}

func clearCartTx(ctx context.Context, tx *sql.Tx, userID int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
