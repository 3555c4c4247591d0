package handler

import (
	"spareparts-billing/internal/adapter/http/middleware"
	"spareparts-billing/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	PricingSvc     ports.PricingService
	Resolver       ports.ResponsibilityResolver
	LedgerSvc      ports.LedgerService
	QuerySvc       ports.TransactionQueryService
	InventoryCache ports.InventoryCache // nil = inventory views disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep, verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// API v1 routes
	v1 := r.Group("/api/v1")

	pricingHandler := NewPricingHandler(deps.PricingSvc, deps.Resolver, deps.Logger)
	pricing := v1.Group("/pricing")
	{
		pricing.POST("/calculate", pricingHandler.Calculate)
		pricing.GET("/responsibility", pricingHandler.ResolvePayer)
		pricing.GET("/config", pricingHandler.GetConfig)
		pricing.PUT("/config", pricingHandler.UpdateConfig)
		pricing.PUT("/brands/:brand_id/override", pricingHandler.SetBrandOverride)
	}

	walletHandler := NewWalletHandler(deps.LedgerSvc, deps.QuerySvc, deps.Logger)
	wallets := v1.Group("/wallets")
	{
		wallets.GET("/:owner_id", walletHandler.GetWallet)
		wallets.GET("/:owner_id/balance-check", walletHandler.CheckBalance)
		wallets.POST("/:owner_id/debit", walletHandler.Debit)
		wallets.POST("/:owner_id/credit", walletHandler.Credit)
		wallets.POST("/:owner_id/refund", walletHandler.Refund)
		wallets.GET("/:owner_id/transactions", walletHandler.ListTransactions)
		wallets.GET("/:owner_id/transactions/summary", walletHandler.TransactionSummary)
	}

	if deps.InventoryCache != nil {
		inventoryHandler := NewInventoryHandler(deps.InventoryCache, deps.Logger)
		inventory := v1.Group("/inventory")
		{
			inventory.GET("/:part_id", inventoryHandler.GetView)
			inventory.DELETE("/:part_id/cache", inventoryHandler.InvalidateView)
		}
	}

	return r
}
