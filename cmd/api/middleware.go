package main

import (
	"context"
	"net/http"
	"strconv"

	"github.com/safar/go-commerce/internal/models"
	"github.com/safar/go-commerce/internal/store"
)

type contextKey string

const userContextKey contextKey = "user"

// requireUser resolves the acting user from the X-User-ID header. The
// gateway in front of this service owns authentication; this is only the
// identity boundary.
func (a *app) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idStr := r.Header.Get("X-User-ID")
		if idStr == "" {
			a.writeError(w, http.StatusUnauthorized, "missing X-User-ID header")
			return
		}

		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			a.writeError(w, http.StatusUnauthorized, "invalid X-User-ID header")
			return
		}

		user, err := store.GetUser(r.Context(), a.db, id)
		if err != nil {
			a.writeError(w, http.StatusUnauthorized, "unknown user")
			return
		}

		if !user.IsActive {
			a.writeError(w, http.StatusForbidden, "user is deactivated")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

func (a *app) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return a.requireUser(func(w http.ResponseWriter, r *http.Request) {
		if !currentUser(r).IsAdmin {
			a.writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next(w, r)
	})
}

func currentUser(r *http.Request) *models.User {
	return r.Context().Value(userContextKey).(*models.User)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func queryPage(r *http.Request) (page, pageSize int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
