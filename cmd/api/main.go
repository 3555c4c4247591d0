package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spareparts-billing/config"
	"spareparts-billing/internal/adapter/events"
	httpHandler "spareparts-billing/internal/adapter/http/handler"
	"spareparts-billing/internal/adapter/inventory"
	pgStorage "spareparts-billing/internal/adapter/storage/postgres"
	redisStorage "spareparts-billing/internal/adapter/storage/redis"
	"spareparts-billing/internal/core/domain"
	"spareparts-billing/internal/core/ports"
	"spareparts-billing/internal/service"
	"spareparts-billing/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Spare Parts Billing")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// Connect to NATS. The bus carries best-effort notifications only, so a
	// broker outage degrades the service instead of stopping it.
	var bus *events.NATSBus
	var publisher ports.EventPublisher
	if bus, err = events.NewNATSBus(cfg.NATS, logger.Component(log, "events")); err != nil {
		log.Warn().Err(err).Msg("NATS unavailable, running without event bus")
	} else {
		defer bus.Close()
		publisher = bus
	}

	// Initialize repositories
	walletRepo := pgStorage.NewWalletRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	pricingRepo := pgStorage.NewPricingRepo(pool)
	idempotencyRepo := pgStorage.NewIdempotencyRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)

	// Initialize business services
	pricingSvc := service.NewPricingService(pricingRepo, logger.Component(log, "pricing"))
	resolver := service.NewResponsibilityResolver()
	ledgerSvc := service.NewLedgerService(
		walletRepo,
		txRepo,
		idempotencyRepo,
		idempotencyCache,
		publisher,
		transactor,
		cfg.Ledger.IdempotencyTTL,
		logger.Component(log, "ledger"),
	)
	querySvc := service.NewTransactionQueryService(txRepo)

	// Inventory views need an inventory-of-record endpoint; without one the
	// pricing and ledger surfaces still run.
	var invCache ports.InventoryCache
	if cfg.Inventory.SourceURL != "" {
		source := inventory.NewHTTPSource(cfg.Inventory.SourceURL, cfg.Inventory.SourceTimeout)
		cache := redisStorage.NewInventoryCache(rdb, source, cfg.Inventory.CacheTTL, cfg.Inventory.StaleTTL, logger.Component(log, "inventory"))
		invCache = cache

		if bus != nil {
			err := bus.SubscribeInventoryEvents(ctx, func(event domain.InventoryEvent) {
				if err := cache.Invalidate(ctx, event.PartID); err != nil {
					log.Warn().Err(err).Str("part_id", event.PartID).Msg("event-driven cache invalidation failed")
				}
			})
			if err != nil {
				log.Warn().Err(err).Msg("inventory event subscription failed, relying on TTL expiry")
			}
		}
	} else {
		log.Info().Msg("inventory source_url not set, inventory views disabled")
	}

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		PricingSvc:     pricingSvc,
		Resolver:       resolver,
		LedgerSvc:      ledgerSvc,
		QuerySvc:       querySvc,
		InventoryCache: invCache,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
