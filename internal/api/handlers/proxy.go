package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/response"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/quote"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/rates"
)

// PriceCacheControl is sent with every successful price lookup.
const PriceCacheControl = "public, s-maxage=60, stale-while-revalidate=300"

// ProxyHandler serves the public price lookup and exchange-rate endpoints
// that quote.HTTPClient and rates.HTTPClient consume.
type ProxyHandler struct {
	prices quote.Client
	rates  rates.Client
	logger *zap.Logger
}

// NewProxyHandler creates a new ProxyHandler.
func NewProxyHandler(prices quote.Client, rateClient rates.Client, logger *zap.Logger) *ProxyHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProxyHandler{prices: prices, rates: rateClient, logger: logger}
}

// StockPrice looks up the current price of a ticker.
//
// Endpoint: GET /api/getStockPrice?ticker=AAPL
// Response: 200 OK with {ticker, price, currency, timestamp}
// Error: 405 Method Not Allowed for anything but GET
// Error: 400 Bad Request if the ticker is missing or invalid after sanitization
// Error: 404 Not Found if the upstream has no price for the ticker
// Error: 502 Bad Gateway if the upstream fails
func (h *ProxyHandler) StockPrice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		response.RespondError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	raw := r.URL.Query().Get("ticker")
	if raw == "" {
		response.RespondError(w, http.StatusBadRequest, "Ticker symbol is required", "")
		return
	}

	ticker, err := quote.Sanitize(raw)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "Invalid ticker symbol", "")
		return
	}

	q, err := h.prices.FetchPrice(r.Context(), ticker)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidTicker):
			response.RespondError(w, http.StatusBadRequest, "Invalid ticker symbol", "")
		case errors.Is(err, apperrors.ErrNoData):
			response.RespondError(w, http.StatusNotFound, "Price data not available for this ticker", "")
		default:
			h.logger.Warn("price lookup failed", zap.String("ticker", ticker), zap.Error(err))
			response.RespondError(w, http.StatusBadGateway,
				"Failed to fetch stock price. Please check the ticker symbol and try again.", "")
		}
		return
	}

	w.Header().Set("Cache-Control", PriceCacheControl)
	response.RespondJSON(w, http.StatusOK, q)
}

// ExchangeRates returns USD-based rates for the supported currencies.
//
// Endpoint: GET /api/getExchangeRates
// Response: 200 OK with {USD, INR, EUR, KRW}
// Error: 500 Internal Server Error with "Exchange rate fetch failed"
func (h *ProxyHandler) ExchangeRates(w http.ResponseWriter, r *http.Request) {
	set, err := h.rates.FetchRates(r.Context())
	if err != nil {
		h.logger.Warn("exchange rate fetch failed", zap.Error(err))
		response.RespondError(w, http.StatusInternalServerError, "Exchange rate fetch failed", "")
		return
	}

	response.RespondJSON(w, http.StatusOK, set)
}
