package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"duel_portfolio/internal/app/port"
	"duel_portfolio/internal/app/service"
	"duel_portfolio/internal/config"
	"duel_portfolio/internal/infrastructure/balancesource"
	"duel_portfolio/internal/infrastructure/cachestore"
	"duel_portfolio/internal/infrastructure/network/client"
	"duel_portfolio/internal/infrastructure/restapi"
	"duel_portfolio/internal/infrastructure/tokencatalog"
	"duel_portfolio/internal/pkg/logger"
	"duel_portfolio/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func millis(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.Warnf("Failed to load .env file: %v", err)
	}

	cfgPath := getEnv("CONFIG_PATH", "config/config.yaml")
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		logrus.Fatalf("Failed to initialize zap logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	zapLogger.Info("Configuration loaded",
		zap.String("path", cfgPath),
		zap.Int64("chainId", cfg.Chain.ChainID),
		zap.String("cacheBackend", cfg.Cache.Backend))

	metrics.MustRegisterMetrics()

	// Chain access
	provider := client.NewEVMClientProvider(cfg.Chain.RPCURL, cfg.Chain.FallbackRPCURLs, millis(cfg.Chain.ConnectionTimeoutMs), zapLogger)
	defer provider.Close()
	limiter := client.NewLimiter(cfg.Chain.RateLimit, cfg.Chain.BurstLimit)
	rpcTimeout := millis(cfg.Chain.RPCCallTimeoutMs)
	router := client.NewRouterClient(provider, cfg.Chain.RouterAddress, rpcTimeout, limiter, zapLogger)
	duels := client.NewDuelContract(provider, cfg.Chain.DuelContractAddress, rpcTimeout, limiter, zapLogger)

	// HTTP upstreams
	balances := balancesource.NewClient(cfg.BalanceAPI.BaseURL, cfg.BalanceAPI.BearerToken, millis(cfg.BalanceAPI.RequestTimeoutMillis), zapLogger)
	catalog := tokencatalog.NewClient(
		cfg.TokenCatalog.BaseURL,
		millis(cfg.TokenCatalog.RequestTimeoutMillis),
		time.Duration(cfg.TokenCatalog.CacheTTLSeconds)*time.Second,
		zapLogger,
	)

	store, closeStore := newPortfolioStore(cfg, zapLogger)
	defer closeStore()

	clock := port.SystemClock{}
	valuation := service.NewValuationService(router, cfg.Chain.WrappedNativeAddress, cfg.Chain.StablecoinAddress, cfg.Chain.StablecoinDecimals, zapLogger)
	portfolios := service.NewPortfolioService(balances, valuation, clock, cfg.Portfolio.MaxConcurrentValuations, zapLogger)
	cache := service.NewPortfolioCache(portfolios, store, clock, cfg.CacheDuration(), zapLogger)
	liveStats := service.NewLiveStatsService(duels, cache, clock, zapLogger)
	zapLogger.Info("Services initialized")

	gin.SetMode(gin.ReleaseMode)
	engine := restapi.SetupRouter(restapi.RouterOptions{
		Portfolio:      restapi.NewPortfolioHandler(cache, zapLogger),
		Swap:           restapi.NewSwapHandler(catalog, zapLogger),
		Duel:           restapi.NewDuelHandler(liveStats, time.Duration(cfg.LiveStats.PushIntervalSeconds)*time.Second, zapLogger),
		Admin:          restapi.NewAdminHandler(cache, catalog, zapLogger),
		AdminJWTSecret: cfg.Admin.JWTSecret,
	}, zapLogger)

	// Make sure to protect these in a production environment
	if cfg.Server.EnablePprof {
		pprofRouter := engine.Group("/debug/pprof")
		{
			pprofRouter.GET("/", gin.WrapF(pprof.Index))
			pprofRouter.GET("/cmdline", gin.WrapF(pprof.Cmdline))
			pprofRouter.GET("/profile", gin.WrapF(pprof.Profile))
			pprofRouter.GET("/symbol", gin.WrapF(pprof.Symbol))
			pprofRouter.GET("/trace", gin.WrapF(pprof.Trace))
			pprofRouter.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
			pprofRouter.GET("/heap", gin.WrapH(pprof.Handler("heap")))
		}
		zapLogger.Info("Pprof endpoints enabled under /debug/pprof")
	}

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		zapLogger.Info(fmt.Sprintf("Server starting on port %s", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server exiting")
}

// newPortfolioStore picks the cache backend. Redis falls back to memory when unreachable at startup.
func newPortfolioStore(cfg *config.Config, log *zap.Logger) (port.PortfolioStore, func()) {
	if cfg.Cache.Backend != "redis" {
		return cachestore.NewMemory(), func() {}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rdb, err := cachestore.NewRedisClient(ctx, cfg.Cache.Redis.Addr, cfg.Cache.Redis.Password, cfg.Cache.Redis.DB)
	if err != nil {
		log.Warn("Redis unavailable, using in-memory portfolio cache", zap.Error(err))
		return cachestore.NewMemory(), func() {}
	}
	log.Info("Using Redis portfolio cache", zap.String("addr", cfg.Cache.Redis.Addr))
	return cachestore.NewRedis(rdb, cfg.Cache.Redis.KeyPrefix), func() { _ = rdb.Close() }
}
