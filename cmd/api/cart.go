package main

import (
	"encoding/json"
	"net/http"

	"github.com/safar/go-commerce/internal/store"
)

func (a *app) handleGetCart(w http.ResponseWriter, r *http.Request) {
	items, err := store.GetCartItems(r.Context(), a.db, currentUser(r).ID)
	if err != nil {
		a.writeStoreError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, items)
}

func (a *app) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := store.AddCartItem(r.Context(), a.db, currentUser(r).ID, req.ProductID, req.Quantity)
	if err != nil {
		a.writeStoreError(w, err)
		return
	}

	a.writeJSON(w, http.StatusCreated, item)
}

func (a *app) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid cart item ID")
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := store.UpdateCartItem(r.Context(), a.db, currentUser(r).ID, id, req.Quantity)
	if err != nil {
		a.writeStoreError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, item)
}

func (a *app) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid cart item ID")
		return
	}

	if err := store.RemoveCartItem(r.Context(), a.db, currentUser(r).ID, id); err != nil {
		a.writeStoreError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]string{"message": "item removed from cart"})
}

func (a *app) handleClearCart(w http.ResponseWriter, r *http.Request) {
	if err := store.ClearCart(r.Context(), a.db, currentUser(r).ID); err != nil {
		a.writeStoreError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]string{"message": "cart cleared"})
}
