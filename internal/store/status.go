package store

import (
	"github.com/safar/go-commerce/internal/models"
)

// strictTransitions is the forward fulfillment chain. Cancellation is only
// reachable before the order ships.
var strictTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:    {models.OrderStatusPaid, models.OrderStatusCancelled},
	models.OrderStatusPaid:       {models.OrderStatusProcessing, models.OrderStatusCancelled},
	models.OrderStatusProcessing: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:    {models.OrderStatusDelivered},
	models.OrderStatusDelivered:  {},
	models.OrderStatusCancelled:  {},
}

// CanTransition reports whether an administrative status update from one
// status to another is legal.
//
// The permissive mode mirrors the historically observed behavior: any status
// may be set from any status, except that cancelled is terminal and pending
// cannot be re-entered. Strict mode additionally confines updates to the
// forward fulfillment chain.
func CanTransition(from, to models.OrderStatus, strict bool) bool {
	if !to.Valid() || from == to {
		return false
	}
	if from == models.OrderStatusCancelled || to == models.OrderStatusPending {
		return false
	}

	if !strict {
		return true
	}

	for _, allowed := range strictTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CanCancel reports whether a user-initiated cancellation is legal. Only
// pending orders can be cancelled by their owner; the stock debit has not
// yet been acted on at that point.
func CanCancel(status models.OrderStatus) bool {
	return status == models.OrderStatusPending
}
