package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/cache"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/config"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/database"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/logger"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/quote"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/rates"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/repository"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/scheduler"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/service"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/version"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/yahoo"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg, err := logger.New(cfg.Log.Env, cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logg.Sync() }()
	zap.ReplaceGlobals(logg)

	if cfg.Session.KeyGenerated {
		logg.Warn("SESSION_KEY not set; using a random key, sessions will not survive a restart")
	}

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		logg.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	applied, err := database.Migrate(context.Background(), db)
	if err != nil {
		logg.Fatal("failed to migrate database", zap.Error(err))
	}
	logg.Info("connected to database", zap.String("path", cfg.Database.Path), zap.Int("migrations_applied", applied))

	// Quote cache: Redis when configured and reachable, in-process otherwise
	var quoteCache cache.QuoteCache = cache.NewMemoryQuoteCache()
	redisEnabled := false
	if cfg.Cache.RedisAddr != "" {
		rc := cache.NewRedisQuoteCache(cfg.Cache.RedisAddr)
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rc.Ping(pingCtx)
		cancel()
		if err != nil {
			logg.Warn("redis unavailable, using in-process quote cache", zap.String("addr", cfg.Cache.RedisAddr), zap.Error(err))
			_ = rc.Close()
		} else {
			defer func() { _ = rc.Close() }()
			quoteCache = rc
			redisEnabled = true
		}
	}

	// Price sources
	yahooSource := quote.NewYahooSource(yahoo.NewFinanceClient(cfg.Upstream.YahooBaseURL, cfg.Upstream.FetchTimeout))
	proxyPrices := quote.NewCachedClient(yahooSource, quoteCache, cfg.Cache.QuoteTTL, logg)

	var prices quote.Client = proxyPrices
	if cfg.Upstream.PriceEndpointURL != "" {
		prices = quote.NewHTTPClient(cfg.Upstream.PriceEndpointURL, cfg.Upstream.FetchTimeout)
	}

	// Rate sources
	proxyRates := rates.NewOpenERClient(cfg.Upstream.ExchangeRateAPIURL, cfg.Upstream.FetchTimeout)
	var rateClient rates.Client = proxyRates
	if cfg.Upstream.RatesEndpointURL != "" {
		rateClient = rates.NewHTTPClient(cfg.Upstream.RatesEndpointURL, cfg.Upstream.FetchTimeout)
	}

	// Create repositories
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	holdingRepo := repository.NewHoldingRepository(db)

	// Create services
	authService := service.NewAuthService(userRepo, sessionRepo, cfg.Session.Key,
		service.AuthOptions{SessionTTL: cfg.Session.TTL}, logg.Named("auth"))

	controllerOpts := service.ControllerOptions{
		FetchTimeout:     cfg.Upstream.FetchTimeout,
		PriceConcurrency: cfg.Upstream.PriceConcurrency,
	}
	controllerLogger := logg.Named("portfolio")
	registry := service.NewSessionRegistry(authService, func(user model.User) *service.PortfolioController {
		return service.NewPortfolioController(user, holdingRepo, prices, rateClient, controllerOpts, controllerLogger)
	}, logg.Named("sessions"))

	systemService := service.NewSystemService(db, map[string]bool{
		"redis_quote_cache": redisEnabled,
		"remote_price_api":  cfg.Upstream.PriceEndpointURL != "",
		"remote_rates_api":  cfg.Upstream.RatesEndpointURL != "",
		"scheduled_refresh": cfg.Scheduler.PriceRefresh != "",
		"scheduled_cleanup": cfg.Scheduler.SessionCleanup != "",
	})

	// Background jobs
	sched := scheduler.New(logg.Named("scheduler"), cfg.Upstream.FetchTimeout*2)
	if cfg.Scheduler.PriceRefresh != "" {
		if err := sched.AddPriceRefresh(cfg.Scheduler.PriceRefresh, registry); err != nil {
			logg.Fatal("failed to schedule price refresh", zap.Error(err))
		}
	}
	if cfg.Scheduler.SessionCleanup != "" {
		if err := sched.AddSessionCleanup(cfg.Scheduler.SessionCleanup, authService); err != nil {
			logg.Fatal("failed to schedule session cleanup", zap.Error(err))
		}
	}
	sched.Start()

	// Create router
	router := api.NewRouter(api.Dependencies{
		System:   systemService,
		Auth:     authService,
		Registry: registry,
		Prices:   proxyPrices,
		Rates:    proxyRates,
		Logger:   logg.Named("http"),
	}, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15*time.Second + cfg.Upstream.FetchTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logg.Info("starting server", zap.String("addr", cfg.Server.Addr), zap.String("version", version.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logg.Error("server forced to shutdown", zap.Error(err))
	}
	sched.Stop(ctx)
	registry.Close()

	logg.Info("server exited")
}
