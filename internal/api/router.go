package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/handlers"
	custommiddleware "github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/middleware"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/config"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/quote"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/rates"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/service"
)

// Dependencies groups what the router needs to build its handlers.
type Dependencies struct {
	System   *service.SystemService
	Auth     *service.AuthService
	Registry *service.SessionRegistry
	// Prices and Rates back the public proxy endpoints.
	Prices quote.Client
	Rates  rates.Client
	Logger *zap.Logger
}

// NewRouter creates and configures the HTTP router
func NewRouter(deps Dependencies, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(deps.Logger))
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	requireAuth := custommiddleware.RequireAuth(deps.Auth)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(deps.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/auth", func(r chi.Router) {
			authHandler := handlers.NewAuthHandler(deps.Auth)
			r.Post("/signup", authHandler.SignUp)
			r.Post("/signin", authHandler.SignIn)
			r.Post("/signout", authHandler.SignOut)
			r.With(requireAuth).Get("/me", authHandler.Me)
		})

		r.Route("/portfolio", func(r chi.Router) {
			r.Use(requireAuth)
			portfolioHandler := handlers.NewPortfolioHandler(deps.Registry)
			r.Get("/", portfolioHandler.Portfolio)
			r.Post("/load", portfolioHandler.Load)
			r.Post("/prices/refresh", portfolioHandler.RefreshPrices)
			r.Post("/rates/refresh", portfolioHandler.RefreshRates)
			r.Post("/holdings", portfolioHandler.AddHolding)

			r.Route("/holdings/{holdingId}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateHoldingIDMiddleware)
				r.Delete("/", portfolioHandler.DeleteHolding)
			})
		})

		// Public proxies. StockPrice answers every method so non-GET gets a JSON 405.
		proxyHandler := handlers.NewProxyHandler(deps.Prices, deps.Rates, deps.Logger)
		r.HandleFunc("/getStockPrice", proxyHandler.StockPrice)
		r.Get("/getExchangeRates", proxyHandler.ExchangeRates)
	})

	return r
}
