package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/middleware"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/request"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/response"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/service"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/validation"
)

// PortfolioHandler handles HTTP requests for the signed-in user's portfolio.
// Every route requires RequireAuth; the session's controller is looked up
// in the registry per request.
type PortfolioHandler struct {
	registry *service.SessionRegistry
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(registry *service.SessionRegistry) *PortfolioHandler {
	return &PortfolioHandler{registry: registry}
}

// RefreshResponse is returned by the manual price refresh.
// Started is false when a refresh was already in flight.
type RefreshResponse struct {
	Started   bool                `json:"started"`
	Portfolio model.PortfolioView `json:"portfolio"`
}

// DeleteResponse is returned by a delete request.
// Deleted is false when the request was not confirmed.
type DeleteResponse struct {
	Deleted   bool                `json:"deleted"`
	Portfolio model.PortfolioView `json:"portfolio"`
}

// controller resolves the session controller and display currency for r,
// writing the error response itself when it cannot.
func (h *PortfolioHandler) controller(w http.ResponseWriter, r *http.Request) (*service.PortfolioController, string, bool) {
	currency, err := validation.ValidateCurrency(r.URL.Query().Get("currency"))
	if err != nil {
		writeServiceError(w, err, "")
		return nil, "", false
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.RespondError(w, http.StatusUnauthorized, apperrors.ErrNotAuthenticated.Error(), "")
		return nil, "", false
	}
	session, _ := middleware.SessionFromContext(r.Context())

	c, err := h.registry.Get(r.Context(), session.ID, user)
	if err != nil {
		writeServiceError(w, err, "")
		return nil, "", false
	}
	return c, currency, true
}

// Portfolio returns the current portfolio view.
//
// Endpoint: GET /api/portfolio?currency=USD
// Response: 200 OK with model.PortfolioView
// Error: 400 Bad Request if the currency is unsupported
func (h *PortfolioHandler) Portfolio(w http.ResponseWriter, r *http.Request) {
	c, currency, ok := h.controller(w, r)
	if !ok {
		return
	}

	response.RespondJSON(w, http.StatusOK, c.Snapshot(currency))
}

// Load reloads holdings from the store and starts a background price refresh.
//
// Endpoint: POST /api/portfolio/load
// Response: 200 OK with model.PortfolioView
// Error: 500 Internal Server Error with "Failed to load stocks"
func (h *PortfolioHandler) Load(w http.ResponseWriter, r *http.Request) {
	c, currency, ok := h.controller(w, r)
	if !ok {
		return
	}

	if err := c.Load(r.Context()); err != nil {
		writeServiceError(w, err, c.LastError())
		return
	}

	response.RespondJSON(w, http.StatusOK, c.Snapshot(currency))
}

// RefreshPrices fetches current prices for every holding and waits for the batch.
//
// Endpoint: POST /api/portfolio/prices/refresh
// Response: 200 OK with RefreshResponse
func (h *PortfolioHandler) RefreshPrices(w http.ResponseWriter, r *http.Request) {
	c, currency, ok := h.controller(w, r)
	if !ok {
		return
	}

	started := c.RefreshPrices(r.Context())
	response.RespondJSON(w, http.StatusOK, RefreshResponse{
		Started:   started,
		Portfolio: c.Snapshot(currency),
	})
}

// RefreshRates fetches exchange rates once.
//
// Endpoint: POST /api/portfolio/rates/refresh
// Response: 200 OK with model.PortfolioView
// Error: 502 Bad Gateway with "Exchange rate fetch failed"
func (h *PortfolioHandler) RefreshRates(w http.ResponseWriter, r *http.Request) {
	c, currency, ok := h.controller(w, r)
	if !ok {
		return
	}

	if err := c.RefreshRates(r.Context()); err != nil {
		writeServiceError(w, err, service.MsgRateFetchFailed)
		return
	}

	response.RespondJSON(w, http.StatusOK, c.Snapshot(currency))
}

// AddHolding validates and stores a new holding. The buy price is entered in
// the request currency and stored in USD.
//
// Endpoint: POST /api/portfolio/holdings
// Request Body: AddHoldingRequest (ticker, quantity, buyPrice, currency)
// Response: 201 Created with model.Holding
// Error: 400 Bad Request for missing fields, non-positive amounts or an unsupported currency
// Error: 409 Conflict if a non-USD price is entered before rates are loaded
// Error: 400/404/502 with "Failed to add stock" if the ticker cannot be priced
func (h *PortfolioHandler) AddHolding(w http.ResponseWriter, r *http.Request) {
	c, _, ok := h.controller(w, r)
	if !ok {
		return
	}

	req, err := parseJSON[request.AddHoldingRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	holding, err := c.AddHolding(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, c.LastError())
		return
	}

	response.RespondJSON(w, http.StatusCreated, holding)
}

// DeleteHolding deletes a holding when the request confirms it.
//
// Endpoint: DELETE /api/portfolio/holdings/{holdingId}?confirm=true
// Response: 200 OK with DeleteResponse; deleted is false without confirm=true
// Error: 400 Bad Request if the holding ID is invalid (validated by middleware)
// Error: 404 Not Found if the holding is not in the portfolio
// Error: 500 Internal Server Error with "Failed to delete stock"
func (h *PortfolioHandler) DeleteHolding(w http.ResponseWriter, r *http.Request) {
	c, currency, ok := h.controller(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, middleware.HoldingIDParam)
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))

	deleted, err := c.DeleteHolding(r.Context(), id, func(model.Holding) bool { return confirmed })
	if err != nil {
		writeServiceError(w, err, c.LastError())
		return
	}

	response.RespondJSON(w, http.StatusOK, DeleteResponse{
		Deleted:   deleted,
		Portfolio: c.Snapshot(currency),
	})
}
