package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/storefront/config"
	"github.com/ikkim/storefront/internal/app/controller"
	"github.com/ikkim/storefront/internal/app/model"
	"github.com/ikkim/storefront/internal/app/repository"
	"github.com/ikkim/storefront/internal/app/service"
	"github.com/ikkim/storefront/internal/catalog"
	"github.com/ikkim/storefront/internal/router"
	"github.com/ikkim/storefront/internal/scheduler"
	ws "github.com/ikkim/storefront/internal/websocket"
	"github.com/ikkim/storefront/pkg/coupon"
	"github.com/ikkim/storefront/pkg/logger"
	"github.com/ikkim/storefront/pkg/rabbitmq"
	"github.com/ikkim/storefront/pkg/util"
	"github.com/panjf2000/ants/v2"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := cfg.Log.Level
	if logLevel == "" {
		logLevel = "info"
		if cfg.Server.Environment == "development" {
			logLevel = "debug"
		}
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      cfg.Log.Format,
		EnableColor: true,
	})

	logger.Info("Starting storefront cart server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
		"storage":     cfg.Storage.Driver,
	})

	ctx := context.Background()

	// Storage backend
	kv, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize storage", err, map[string]interface{}{
			"driver": cfg.Storage.Driver,
		})
	}
	defer closeStore()

	// Worker pool for coupon requests and event forwarding
	pool, err := ants.NewPool(cfg.Worker.PoolSize)
	if err != nil {
		logger.Fatal("Failed to create worker pool", err)
	}
	defer pool.Release()

	// Coupon service client
	var coupons service.CouponValidator
	couponClient, err := coupon.NewClient(coupon.Config{
		BaseURL: cfg.Coupon.BaseURL,
		Path:    cfg.Coupon.Path,
		Timeout: cfg.Coupon.Timeout,
	})
	if err != nil {
		logger.Warn("Coupon client disabled", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		coupons = couponClient
	}

	// Cart
	cartRepo := repository.NewCartRepository(kv, cfg.Cart.StorageKey)
	store := service.NewCartStore(ctx, cartRepo, coupons, service.CartStoreOptions{
		Pricing: service.PricingRules{
			ShippingThreshold: cfg.Cart.ShippingThreshold,
			ShippingFee:       cfg.Cart.ShippingFee,
		},
		CheckoutPath:    cfg.Cart.CheckoutPath,
		NotificationTTL: cfg.Cart.NotificationTTL,
		CouponTimeout:   cfg.Coupon.Timeout,
		Formatter:       util.NewPriceFormatter(cfg.Cart.Locale, cfg.Cart.Currency, cfg.Cart.FreeShippingLabel),
		Workers:         pool,
	})

	notifications := service.NewNotificationCenter(store, nil)
	defer notifications.Close()

	// Catalog
	var loader scheduler.ProductLoader
	var products []model.Product
	if cfg.Catalog.File != "" {
		loader = func() ([]model.Product, error) {
			return catalog.LoadXLSX(cfg.Catalog.File)
		}
		if products, err = loader(); err != nil {
			logger.Warn("Failed to load catalog, starting with an empty grid", map[string]interface{}{
				"file":  cfg.Catalog.File,
				"error": err.Error(),
			})
		}
	}
	catalogService := service.NewCatalogService(store, products)

	// Optional event forwarding
	if cfg.RabbitMQ.URL != "" {
		publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			logger.Warn("Event forwarding disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer publisher.Close()
			forwarder := service.NewEventForwarder(store, publisher, pool)
			defer forwarder.Close()
		}
	}

	// Scheduler
	cartScheduler := scheduler.NewCartScheduler(catalogService, loader, cfg.Catalog.RefreshCron, notifications)
	if err := cartScheduler.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", err)
	}
	defer cartScheduler.Stop()

	// Websocket hub
	hub := ws.NewHub(store)
	go hub.Run()
	defer hub.Stop()

	// Setup router
	r := router.NewRouter(
		controller.NewCartController(store),
		controller.NewProductController(catalogService, store),
		controller.NewNotificationController(notifications),
		controller.NewWebSocketController(hub, cfg.CORS.AllowedOrigins),
		cfg,
	)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r.Setup(),
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	logger.Info("Server stopped successfully", nil)
}
