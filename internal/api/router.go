package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ksred/trade-ledger/internal/holdings"
	"github.com/ksred/trade-ledger/internal/registry"
	"github.com/ksred/trade-ledger/internal/trading"
	"github.com/ksred/trade-ledger/pkg/middleware"
)

// NewRouter wires services and handlers onto a gin engine. A nil limiter
// disables rate limiting.
func NewRouter(db *gorm.DB, limiter *middleware.RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())
	if limiter != nil {
		router.Use(limiter.Middleware())
	}

	holdingsService := holdings.NewService(db)
	holdingsHandlers := holdings.NewGinHandlers(holdingsService)

	tradingService := trading.NewService(db, holdingsService)
	tradingHandlers := trading.NewGinHandlers(tradingService)

	registryService := registry.NewService(db)
	registryHandlers := registry.NewGinHandlers(registryService)

	setupRoutes(router, tradingHandlers, holdingsHandlers, registryHandlers)
	return router
}

// setupRoutes configures all API endpoints and their handlers:
// - Trade routes: buy and sell, one share per call
// - Holdings routes: quantities derived from the ledger
// - Registry routes: clients, portfolios and shares
func setupRoutes(
	router *gin.Engine,
	tradingHandlers *trading.GinHandlers,
	holdingsHandlers *holdings.GinHandlers,
	registryHandlers *registry.GinHandlers,
) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		trades := v1.Group("/trades")
		{
			trades.POST("/buy", tradingHandlers.BuyHandler())
			trades.POST("/sell", tradingHandlers.SellHandler())
		}

		v1.GET("/holdings", holdingsHandlers.GroupedHoldingsHandler())

		shares := v1.Group("/shares")
		{
			shares.POST("", registryHandlers.CreateShareHandler())
			shares.GET("", registryHandlers.ListSharesHandler())
			shares.GET("/:symbol", registryHandlers.GetShareHandler())
			shares.PUT("/:symbol/price", registryHandlers.UpdateSharePriceHandler())
			shares.GET("/:symbol/quantity", holdingsHandlers.QuantityHandler())
		}

		portfolios := v1.Group("/portfolios")
		{
			portfolios.POST("", registryHandlers.CreatePortfolioHandler())
			portfolios.GET("/:portfolio_id", registryHandlers.GetPortfolioHandler())
			portfolios.GET("/:portfolio_id/holdings", holdingsHandlers.PortfolioHoldingsHandler())
			portfolios.GET("/:portfolio_id/trades", tradingHandlers.ListTradesHandler())
		}

		clients := v1.Group("/clients")
		{
			clients.POST("", registryHandlers.CreateClientHandler())
			clients.GET("/:client_id", registryHandlers.GetClientHandler())
			clients.GET("/:client_id/portfolios", registryHandlers.ClientPortfoliosHandler())
		}
	}
}
