package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/safar/go-commerce/internal/store"
)

func (a *app) handleListCategories(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("include_inactive") == "true"

	categories, err := store.ListCategories(r.Context(), a.db, includeInactive)
	if err != nil {
		a.writeStoreError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, categories)
}

func (a *app) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		a.writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	category, err := store.CreateCategory(r.Context(), a.db, req.Name, req.Description)
	if err != nil {
		a.writeStoreError(w, err)
		return
	}

	a.writeJSON(w, http.StatusCreated, category)
}

func (a *app) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid category ID")
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	category, err := store.UpdateCategory(r.Context(), a.db, id, req.Name, req.Description)
	if err != nil {
		a.writeStoreError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, category)
}

func (a *app) handleDeactivateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid category ID")
		return
	}

	if err := store.DeactivateCategory(r.Context(), a.db, id); err != nil {
		a.writeStoreError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]string{"message": "category deactivated"})
}

func (a *app) handleListProducts(w http.ResponseWriter, r *http.Request) {
	page, pageSize := queryPage(r)
	categoryID, _ := strconv.ParseInt(r.URL.Query().Get("category_id"), 10, 64)

	result, err := store.ListProducts(r.Context(), a.db, store.ListProductsOptions{
		Page:            page,
		PageSize:        pageSize,
		CategoryID:      categoryID,
		IncludeInactive: r.URL.Query().Get("include_inactive") == "true",
	})
	if err != nil {
		a.writeStoreError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, result)
}

func (a *app) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	product, err := store.GetActiveProduct(r.Context(), a.db, id)
	if err != nil {
		a.writeStoreError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, product)
}

type productRequest struct {
	SKU         string  `json:"sku"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	CategoryID  int64   `json:"category_id"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
}

func (a *app) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SKU == "" || req.Name == "" {
		a.writeError(w, http.StatusBadRequest, "sku and name are required")
		return
	}

	product, err := store.CreateProduct(r.Context(), a.db, store.CreateProductRequest{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Price:       decimal.NewFromFloat(req.Price),
		Stock:       req.Stock,
	})
	if err != nil {
		a.writeStoreError(w, err)
		return
	}

	a.logger.Info("product created", "product_id", product.ID, "sku", product.SKU)
	a.writeJSON(w, http.StatusCreated, product)
}

func (a *app) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := store.UpdateProduct(r.Context(), a.db, id, store.UpdateProductRequest{
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Price:       decimal.NewFromFloat(req.Price),
	})
	if err != nil {
		a.writeStoreError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, product)
}

func (a *app) handleDeactivateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	if err := store.DeactivateProduct(r.Context(), a.db, id); err != nil {
		a.writeStoreError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]string{"message": "product deactivated"})
}

func (a *app) handleAdjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	var req struct {
		Stock   int `json:"stock"`
		Version int `json:"version"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.AdjustStock(r.Context(), a.db, id, req.Stock, req.Version); err != nil {
		a.writeStoreError(w, err)
		return
	}

	product, err := store.GetProduct(r.Context(), a.db, id)
	if err != nil {
		a.writeStoreError(w, err)
		return
	}

	a.logger.Info("stock adjusted", "product_id", id, "stock", product.Stock)
	a.writeJSON(w, http.StatusOK, product)
}
