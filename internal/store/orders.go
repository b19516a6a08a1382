package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/safar/go-commerce/internal/database"
	"github.com/safar/go-commerce/internal/models"
)

const orderColumns = `id, user_id, order_number, status, total_amount, payment_method,
	shipping_address, shipping_city, shipping_state, shipping_postcode, shipping_country,
	shipping_fee, tax, notes, created_at, updated_at, version`

func scanOrder(row interface{ Scan(...interface{}) error }, order *models.Order) error {
	return row.Scan(
		&order.ID,
		&order.UserID,
		&order.OrderNumber,
		&order.Status,
		&order.TotalAmount,
		&order.PaymentMethod,
		&order.Shipping.Address,
		&order.Shipping.City,
		&order.Shipping.State,
		&order.Shipping.Postcode,
		&order.Shipping.Country,
		&order.ShippingFee,
		&order.Tax,
		&order.Notes,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.Version,
	)
}

const orderNumberAttempts = 5

func generateOrderNumber() string {
	u := uuid.New()
	return "ORD-" + strings.ToUpper(hex.EncodeToString(u[:4]))
}

// newOrderNumber picks a token not yet present in orders. The token carries
// 32 bits of entropy, so collisions are rare but real; the existence check
// runs inside the order transaction and the unique index backs it up.
func newOrderNumber(ctx context.Context, tx *sql.Tx) (string, error) {
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		number := generateOrderNumber()

		var exists bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM orders WHERE order_number = $1)`,
			number).Scan(&exists)
		if err != nil {
			return "", fmt.Errorf("check order number: %w", err)
		}
		if !exists {
			return number, nil
		}
	}
	return "", database.ErrDuplicateOrderNumber
}

type CreateOrderRequest struct {
	UserID        int64
	PaymentMethod models.PaymentMethod
	Shipping      models.ShippingInfo
	Notes         string
}

// CreateOrder turns the user's cart into a persisted pending order.
//
// Everything happens in one serializable transaction: cart snapshot, product
// validation, pricing, order and item writes, stock debit, cart clearing.
// Any failure rolls the whole unit back, so a partially created order or a
// partially debited product is never observable. Serialization conflicts are
// retried by the transaction helper.
func CreateOrder(ctx context.Context, db *sql.DB, pricer *Pricer, req CreateOrderRequest) (*models.Order, error) {
	if !req.PaymentMethod.Valid() {
		return nil, fmt.Errorf("payment method %q: %w", req.PaymentMethod, database.ErrInvalidPaymentMethod)
	}

	var order *models.Order

	err := database.WithRetry(ctx, db, database.SerializableTxOptions(), func(tx *sql.Tx) error {
		var active bool
		err := tx.QueryRowContext(ctx,
			`SELECT is_active FROM users WHERE id = $1`,
			req.UserID).Scan(&active)
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrUserNotFound
			}
			return fmt.Errorf("check user: %w", err)
		}
		if !active {
			return database.ErrUserNotFound
		}

		lines, err := cartLinesForUpdate(ctx, tx, req.UserID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return database.ErrCartEmpty
		}

		priceLines := make([]PriceLine, 0, len(lines))
		for _, line := range lines {
			if line.Quantity < 1 {
				return fmt.Errorf("product %d: %w", line.ProductID, database.ErrInvalidQuantity)
			}

			product, err := LockProduct(ctx, tx, line.ProductID)
			if err != nil {
				return err
			}
			if !product.IsActive {
				return fmt.Errorf("product %d: %w", line.ProductID, database.ErrProductNotFound)
			}
			if product.Stock < line.Quantity {
				return fmt.Errorf("product %d (%s): %w", product.ProductID, product.Name, database.ErrInsufficientStock)
			}

			priceLines = append(priceLines, PriceLine{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitPrice: product.Price,
			})
		}

		quote := pricer.Quote(priceLines)

		orderNumber, err := newOrderNumber(ctx, tx)
		if err != nil {
			return err
		}

		order = &models.Order{}
		err = scanOrder(tx.QueryRowContext(ctx,
			`INSERT INTO orders (user_id, order_number, status, total_amount, payment_method,
			     shipping_address, shipping_city, shipping_state, shipping_postcode, shipping_country,
			     shipping_fee, tax, notes, created_at, updated_at, version)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW(), 1)
			 RETURNING `+orderColumns,
			req.UserID, orderNumber, models.OrderStatusPending, quote.Total, req.PaymentMethod,
			req.Shipping.Address, req.Shipping.City, req.Shipping.State, req.Shipping.Postcode,
			req.Shipping.Country, quote.ShippingFee, quote.Tax, req.Notes), order)
		if err != nil {
			// The unique index catches the window between the existence
			// check and the insert.
			if database.IsUniqueViolation(err) {
				return database.ErrDuplicateOrderNumber
			}
			return fmt.Errorf("create order: %w", err)
		}

		for _, line := range quote.Lines {
			var item models.OrderItem
			err = tx.QueryRowContext(ctx,
				`INSERT INTO order_items (order_id, product_id, quantity, unit_price, total_price, created_at)
				 VALUES ($1, $2, $3, $4, $5, NOW())
				 RETURNING id, order_id, product_id, quantity, unit_price, total_price, created_at`,
				order.ID, line.ProductID, line.Quantity, line.UnitPrice, line.TotalPrice).Scan(
				&item.ID,
				&item.OrderID,
				&item.ProductID,
				&item.Quantity,
				&item.UnitPrice,
				&item.TotalPrice,
				&item.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
			order.Items = append(order.Items, item)
		}

		for _, line := range quote.Lines {
			if err := DebitStock(ctx, tx, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}

		return clearCartTx(ctx, tx, req.UserID)
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}

// CancelOrder reverses a pending order: status flips to cancelled and every
// item's quantity is credited back to stock, atomically with the status write.
func CancelOrder(ctx context.Context, db *sql.DB, actor *models.User, orderID int64) error {
	return database.WithRetry(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var ownerID int64
		var status models.OrderStatus

		err := tx.QueryRowContext(ctx,
			`SELECT user_id, status FROM orders WHERE id = $1 FOR UPDATE`,
			orderID).Scan(&ownerID, &status)
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrOrderNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}

		if !actor.IsAdmin && actor.ID != ownerID {
			return database.ErrForbidden
		}

		if !CanCancel(status) {
			return fmt.Errorf("order is %s: %w", status, database.ErrInvalidStatusTransition)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE orders
			 SET status = $1, version = version + 1, updated_at = NOW()
			 WHERE id = $2`,
			models.OrderStatusCancelled, orderID)
		if err != nil {
			return fmt.Errorf("cancel order: %w", err)
		}

		return creditOrderItems(ctx, tx, orderID)
	})
}

func creditOrderItems(ctx context.Context, tx *sql.Tx, orderID int64) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT product_id, quantity FROM order_items WHERE order_id = $1 ORDER BY product_id`,
		orderID)
	if err != nil {
		return fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	var lines []cartLine
	for rows.Next() {
		var line cartLine
		if err := rows.Scan(&line.ProductID, &line.Quantity); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}

	for _, line := range lines {
		if err := CreditStock(ctx, tx, line.ProductID, line.Quantity); err != nil {
			return err
		}
	}

	return nil
}

// UpdateOrderStatus applies an administrative status change, guarded by the
// transition rules. Cancelling through this path restores stock the same way
// a user cancellation does.
func UpdateOrderStatus(ctx context.Context, db *sql.DB, orderID int64, newStatus models.OrderStatus, strict bool) (*models.Order, error) {
	var order *models.Order

	err := database.WithRetry(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var status models.OrderStatus
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM orders WHERE id = $1 FOR UPDATE`,
			orderID).Scan(&status)
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrOrderNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}

		if !CanTransition(status, newStatus, strict) {
			return fmt.Errorf("%s -> %s: %w", status, newStatus, database.ErrInvalidStatusTransition)
		}

		order = &models.Order{}
		err = scanOrder(tx.QueryRowContext(ctx,
			`UPDATE orders
			 SET status = $1, version = version + 1, updated_at = NOW()
			 WHERE id = $2
			 RETURNING `+orderColumns,
			newStatus, orderID), order)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}

		if newStatus == models.OrderStatusCancelled {
			if err := creditOrderItems(ctx, tx, orderID); err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}

// GetOrder returns an order with its items. Only the owning user or an admin
// may read it.
func GetOrder(ctx context.Context, db *sql.DB, actor *models.User, id int64) (*models.Order, error) {
	order := &models.Order{}

	err := scanOrder(db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id), order)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if !actor.IsAdmin && actor.ID != order.UserID {
		return nil, database.ErrForbidden
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, order_id, product_id, quantity, unit_price, total_price, created_at
		 FROM order_items
		 WHERE order_id = $1
		 ORDER BY id`,
		id)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Quantity,
			&item.UnitPrice,
			&item.TotalPrice,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return order, nil
}

// ListOrders pages over orders newest first. Admins see every order, other
// users only their own.
func ListOrders(ctx context.Context, db *sql.DB, actor *models.User, page, pageSize int) (*OffsetPage, error) {
	var total int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE ($1 OR user_id = $2)`,
		actor.IsAdmin, actor.ID).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE ($1 OR user_id = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`

	rows, err := db.QueryContext(ctx, query, actor.IsAdmin, actor.ID, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return newOffsetPage(orders, total, page, pageSize), nil
}

// ListOrdersCursor is keyset pagination over a single user's order history,
// for clients that page deep enough that offsets get slow.
func ListOrdersCursor(ctx context.Context, db *sql.DB, userID int64, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		  AND (created_at, id) < ($2, $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4`

	rows, err := db.QueryContext(ctx, query, userID, cursorData.CreatedAt, cursorData.ID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		lastOrder := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{
			CreatedAt: lastOrder.CreatedAt,
			ID:        lastOrder.ID,
		})
	}

	return &CursorPage{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}
