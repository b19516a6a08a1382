package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/safar/go-commerce/internal/config"
	"github.com/safar/go-commerce/internal/database"
	"github.com/safar/go-commerce/internal/store"
)

type app struct {
	db     *sql.DB
	cfg    *config.Config
	pricer *store.Pricer
	logger *slog.Logger
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("connected to database")

	a := &app{
		db:     db,
		cfg:    cfg,
		pricer: store.NewPricer(cfg.Pricing),
		logger: logger,
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      a.routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

func (a *app) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /users", a.handleCreateUser)
	mux.HandleFunc("GET /users", a.requireAdmin(a.handleListUsers))
	mux.HandleFunc("GET /users/{id}", a.requireUser(a.handleGetUser))

	mux.HandleFunc("GET /categories", a.handleListCategories)
	mux.HandleFunc("POST /categories", a.requireAdmin(a.handleCreateCategory))
	mux.HandleFunc("PUT /categories/{id}", a.requireAdmin(a.handleUpdateCategory))
	mux.HandleFunc("DELETE /categories/{id}", a.requireAdmin(a.handleDeactivateCategory))

	mux.HandleFunc("GET /products", a.handleListProducts)
	mux.HandleFunc("GET /products/{id}", a.handleGetProduct)
	mux.HandleFunc("POST /products", a.requireAdmin(a.handleCreateProduct))
	mux.HandleFunc("PUT /products/{id}", a.requireAdmin(a.handleUpdateProduct))
	mux.HandleFunc("DELETE /products/{id}", a.requireAdmin(a.handleDeactivateProduct))
	mux.HandleFunc("PATCH /products/{id}/stock", a.requireAdmin(a.handleAdjustStock))

	mux.HandleFunc("GET /cart", a.requireUser(a.handleGetCart))
	mux.HandleFunc("POST /cart", a.requireUser(a.handleAddCartItem))
	mux.HandleFunc("PUT /cart/{id}", a.requireUser(a.handleUpdateCartItem))
	mux.HandleFunc("DELETE /cart/{id}", a.requireUser(a.handleRemoveCartItem))
	mux.HandleFunc("DELETE /cart", a.requireUser(a.handleClearCart))

	mux.HandleFunc("POST /orders", a.requireUser(a.handleCreateOrder))
	mux.HandleFunc("GET /orders", a.requireUser(a.handleListOrders))
	mux.HandleFunc("GET /orders/{id}", a.requireUser(a.handleGetOrder))
	mux.HandleFunc("PATCH /orders/{id}/status", a.requireAdmin(a.handleUpdateOrderStatus))
	mux.HandleFunc("DELETE /orders/{id}", a.requireUser(a.handleCancelOrder))

	return mux
}
