package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fjod/athometyre/internal/auth"
	"github.com/fjod/athometyre/internal/booking"
	"github.com/fjod/athometyre/internal/cache"
	"github.com/fjod/athometyre/internal/cart"
	"github.com/fjod/athometyre/internal/catalog"
	"github.com/fjod/athometyre/internal/checkout"
	"github.com/fjod/athometyre/internal/config"
	"github.com/fjod/athometyre/internal/content"
	"github.com/fjod/athometyre/internal/dashboard"
	h "github.com/fjod/athometyre/internal/http"
	"github.com/fjod/athometyre/internal/i18n"
	"github.com/fjod/athometyre/internal/inventory"
	"github.com/fjod/athometyre/internal/orders"
	"github.com/fjod/athometyre/internal/payment"
	"github.com/fjod/athometyre/internal/publisher"
	"github.com/fjod/athometyre/internal/repository"
	"github.com/fjod/athometyre/pkg/logger"
	"github.com/fjod/athometyre/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New("storefront", cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("storefront stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	repo, err := repository.NewRepository(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer repo.Close()
	repo.SetCheckoutLockTimeout(cfg.CheckoutLockTimeout)

	if err := repo.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database migrations completed")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancelPing()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	log.Info("redis ping succeeded", slog.String("addr", cfg.RedisAddr))

	tokens, err := auth.NewTokens(cfg.JWTSecret)
	if err != nil {
		return err
	}
	pages, err := content.Default()
	if err != nil {
		return fmt.Errorf("failed to load content pages: %w", err)
	}
	bundle, err := i18n.Default()
	if err != nil {
		return fmt.Errorf("failed to load translations: %w", err)
	}
	if !bundle.Supports(cfg.DefaultLanguage) {
		return fmt.Errorf("DEFAULT_LANGUAGE %q has no translation table", cfg.DefaultLanguage)
	}

	var gateway payment.Gateway
	if cfg.PaymentGatewayURL == "" {
		log.Warn("PAYMENT_GATEWAY_URL not set, using the approve-all fake gateway")
		gateway = payment.NewFakeGateway()
	} else {
		gateway = payment.NewHTTPGateway(cfg.PaymentGatewayURL, cfg.PaymentGatewayKey, nil, log)
	}

	m := metrics.NewServerMetrics("storefront", nil)

	cartService := cart.NewService(repo, cache.NewRedisCache(redisClient), log)
	checkoutService := checkout.NewService(repo, gateway, cartService, checkout.PricingConfig{
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		ShippingFee:           cfg.ShippingFee,
		Currency:              cfg.Currency,
	}, cfg.PaymentTimeout, log)

	router := h.NewRouter(h.Deps{
		Catalog:        catalog.NewService(repo, log),
		Cart:           cartService,
		Wishlist:       cart.NewWishlist(repo),
		Checkout:       checkoutService,
		Orders:         orders.NewService(repo, gateway, log),
		Inventory:      inventory.NewService(repo, m, log),
		Dashboard:      dashboard.NewService(repo, log),
		Bookings:       booking.NewService(repo, log),
		Pages:          pages,
		I18n:           bundle,
		Tokens:         tokens,
		DB:             repo,
		Metrics:        m,
		Log:            log,
		RequestTimeout: cfg.RequestTimeout,
	})

	writer := publisher.NewKafkaWriter(cfg.KafkaTopic, cfg.KafkaBrokers...)
	defer writer.Close()
	poller := publisher.NewOutboxPoller(repo, writer, publisher.Config{
		EventTick:    cfg.OutboxInterval,
		RecoveryTick: cfg.RecoveryTick,
		StuckAfter:   cfg.StuckAfter(),
	}, m, log)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Run(ctx)
	}()

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("storefront listening", slog.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("shutting down", slog.String("signal", sig.String()))
	case err := <-serverErr:
		stop()
		wg.Wait()
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", slog.Any("error", err))
	}
	stop()
	wg.Wait()

	log.Info("storefront stopped")
	return nil
}
