package restapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterOptions collects the handlers and switches of the HTTP surface.
type RouterOptions struct {
	Portfolio *PortfolioHandler
	Swap      *SwapHandler
	Duel      *DuelHandler
	Admin     *AdminHandler
	// AdminJWTSecret enables the admin routes when non-empty.
	AdminJWTSecret string
}

// SetupRouter builds the gin engine with CORS, request ids, zap request logging and recovery.
func SetupRouter(opts RouterOptions, logger *zap.Logger) *gin.Engine {
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", RequestIDHeader}
	corsConfig.ExposeHeaders = []string{RequestIDHeader}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(RequestIDMiddleware())
	router.Use(ZapLoggerMiddleware(logger))
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UnixMilli()})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/swap/tokens", opts.Swap.GetTokens)
		api.GET("/portfolio/:address", opts.Portfolio.GetPortfolio)
		api.GET("/duels/:id/live-stats", opts.Duel.GetLiveStats)
		api.GET("/duels/:id/live-stats/ws", opts.Duel.StreamLiveStats)
	}

	if opts.AdminJWTSecret != "" && opts.Admin != nil {
		admin := api.Group("/admin", JWTAuthMiddleware([]byte(opts.AdminJWTSecret)))
		{
			admin.DELETE("/cache", opts.Admin.ClearCache)
			admin.GET("/cache/stats", opts.Admin.CacheStats)
		}
	} else {
		logger.Info("Admin routes disabled: no JWT secret configured")
	}

	return router
}
