package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/safar/go-commerce/internal/database"
)

func (a *app) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		a.logger.Error("failed to encode response", "error", err)
	}
}

func (a *app) writeError(w http.ResponseWriter, status int, message string) {
	a.writeJSON(w, status, map[string]string{"error": message})
}

// writeStoreError maps the store's sentinel errors onto HTTP statuses. The
// error text is surfaced as-is so stock conflicts keep naming the product.
func (a *app) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrUserNotFound),
		errors.Is(err, database.ErrCategoryNotFound),
		errors.Is(err, database.ErrProductNotFound),
		errors.Is(err, database.ErrOrderNotFound),
		errors.Is(err, database.ErrCartItemNotFound):
		a.writeError(w, http.StatusNotFound, err.Error())

	case errors.Is(err, database.ErrInsufficientStock),
		errors.Is(err, database.ErrInvalidStatusTransition),
		errors.Is(err, database.ErrDuplicateOrderNumber),
		errors.Is(err, database.ErrOptimisticLockFailed),
		errors.Is(err, database.ErrDuplicateEmail),
		errors.Is(err, database.ErrDuplicateSKU):
		a.writeError(w, http.StatusConflict, err.Error())

	case errors.Is(err, database.ErrForbidden):
		a.writeError(w, http.StatusForbidden, err.Error())

	case errors.Is(err, database.ErrCartEmpty),
		errors.Is(err, database.ErrInvalidQuantity),
		errors.Is(err, database.ErrInvalidPaymentMethod):
		a.writeError(w, http.StatusBadRequest, err.Error())

	default:
		a.logger.Error("internal error", "error", err)
		a.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
