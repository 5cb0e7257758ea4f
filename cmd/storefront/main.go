// @title        shopmall storefront API
// @version      1.0
// @description  Cart, order and payment reconciliation service for the shopmall storefront.
// @BasePath     /
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/YAREUGO/shopmall/internal/cart"
	"github.com/YAREUGO/shopmall/internal/catalog"
	"github.com/YAREUGO/shopmall/internal/config"
	"github.com/YAREUGO/shopmall/internal/events"
	"github.com/YAREUGO/shopmall/internal/httpx"
	"github.com/YAREUGO/shopmall/internal/identity"
	"github.com/YAREUGO/shopmall/internal/order"
	"github.com/YAREUGO/shopmall/internal/payment"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg := config.Load()

	pool, err := pgxpool.New(context.Background(), cfg.PostgresDSN)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	var publisher *events.Publisher
	if cfg.KafkaBrokers != "" {
		publisher = events.NewPublisher(strings.Split(cfg.KafkaBrokers, ","))
		defer func() { _ = publisher.Close() }()
	}

	catalogRepo := catalog.NewPGRepo(pool)
	cartSvc := cart.NewService(cart.NewPGRepo(pool), catalogRepo, logger)
	orderRepo := order.NewPGRepo(pool)
	orderSvc := order.NewService(orderRepo, catalogRepo, cartSvc, publisher, logger)
	paymentSvc := payment.NewService(orderRepo, cartSvc, publisher, logger)
	verifier := identity.NewClient(cfg.IdentityBaseURL, cfg.IdentityTimeout)
	syncer := identity.NewSyncer(identity.NewPGRepo(pool), logger)

	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(), httpx.Metrics())

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", httpx.MetricsHandler())
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	registerRoutes(r, routeDeps{
		catalog:       catalogRepo,
		cart:          cartSvc,
		orders:        orderSvc,
		payments:      paymentSvc,
		verifier:      verifier,
		syncer:        syncer,
		featuredLimit: cfg.FeaturedLimit,
		logger:        logger,
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting storefront service", "addr", cfg.HTTPAddr)
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
