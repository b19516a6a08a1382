package main

import (
	"encoding/json"
	"net/http"

	"github.com/safar/go-commerce/internal/store"
)

func (a *app) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Name == "" {
		a.writeError(w, http.StatusBadRequest, "email and name are required")
		return
	}

	user, err := store.CreateUser(r.Context(), a.db, req.Email, req.Name, false)
	if err != nil {
		a.writeStoreError(w, err)
		return
	}

	a.logger.Info("user created", "user_id", user.ID)
	a.writeJSON(w, http.StatusCreated, user)
}

func (a *app) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page, pageSize := queryPage(r)

	result, err := store.ListUsers(r.Context(), a.db, page, pageSize)
	if err != nil {
		a.writeStoreError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, result)
}

func (a *app) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	actor := currentUser(r)
	if !actor.IsAdmin && actor.ID != id {
		a.writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	user, err := store.GetUser(r.Context(), a.db, id)
	if err != nil {
		a.writeStoreError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, user)
}
