package handler

import (
	"merchant-ledger/internal/adapter/http/middleware"
	"merchant-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	MerchantSvc    ports.MerchantService
	BalanceSvc     ports.BalanceService
	TransferSvc    ports.TransferService
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check verifies PostgreSQL and Redis
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	v1 := r.Group("/api/v1")

	merchantHandler := NewMerchantHandler(deps.MerchantSvc, deps.BalanceSvc)
	merchants := v1.Group("/merchants")
	{
		merchants.POST("", merchantHandler.CreateMerchant)
		merchants.POST("/balance", merchantHandler.CreateBalance)
		merchants.GET("/:name/balances", merchantHandler.GetBalances)
	}

	transferHandler := NewTransferHandler(deps.TransferSvc)
	transfers := v1.Group("/transfers")
	{
		transfers.POST("", transferHandler.CreateTransfer)
		transfers.GET("", transferHandler.ListTransfers)
	}

	return r
}
