package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/safar/go-commerce/internal/models"
	"github.com/safar/go-commerce/internal/store"
)

func (a *app) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PaymentMethod models.PaymentMethod `json:"payment_method"`
		models.ShippingInfo
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actor := currentUser(r)
	order, err := store.CreateOrder(r.Context(), a.db, a.pricer, store.CreateOrderRequest{
		UserID:        actor.ID,
		PaymentMethod: req.PaymentMethod,
		Shipping:      req.ShippingInfo,
		Notes:         req.Notes,
	})
	if err != nil {
		a.writeStoreError(w, err)
		return
	}

	a.logger.Info("order created",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"user_id", actor.ID,
		"total", order.TotalAmount)
	a.writeJSON(w, http.StatusCreated, order)
}

func (a *app) handleListOrders(w http.ResponseWriter, r *http.Request) {
	actor := currentUser(r)

	// Keyset pagination for a user's own history when a cursor is supplied;
	// offset pagination otherwise.
	if r.URL.Query().Has("cursor") {
		cursor := r.URL.Query().Get("cursor")
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit < 1 || limit > 100 {
			limit = 20
		}

		result, err := store.ListOrdersCursor(r.Context(), a.db, actor.ID, cursor, limit)
		if err != nil {
			a.writeStoreError(w, err)
			return
		}
		a.writeJSON(w, http.StatusOK, result)
		return
	}

	page, pageSize := queryPage(r)
	result, err := store.ListOrders(r.Context(), a.db, actor, page, pageSize)
	if err != nil {
		a.writeStoreError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, result)
}

func (a *app) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	order, err := store.GetOrder(r.Context(), a.db, currentUser(r), id)
	if err != nil {
		a.writeStoreError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, order)
}

func (a *app) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	var req struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Status.Valid() {
		a.writeError(w, http.StatusBadRequest, "invalid order status")
		return
	}

	order, err := store.UpdateOrderStatus(r.Context(), a.db, id, req.Status, a.cfg.Orders.StrictTransitions)
	if err != nil {
		a.writeStoreError(w, err)
		return
	}

	a.logger.Info("order status updated", "order_id", order.ID, "status", order.Status)
	a.writeJSON(w, http.StatusOK, order)
}

func (a *app) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	actor := currentUser(r)
	if err := store.CancelOrder(r.Context(), a.db, actor, id); err != nil {
		a.writeStoreError(w, err)
		return
	}

	a.logger.Info("order cancelled", "order_id", id, "user_id", actor.ID)
	a.writeJSON(w, http.StatusOK, map[string]string{"message": "order cancelled"})
}
