package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/request"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/quote"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/rates"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/validation"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/valuation"
)

// User-visible messages set by the controller.
const (
	MsgLoadFailed      = "Failed to load stocks"
	MsgAddFailed       = "Failed to add stock"
	MsgDeleteFailed    = "Failed to delete stock"
	MsgRatesNotLoaded  = "Exchange rates not loaded yet"
	MsgRateFetchFailed = "Exchange rate fetch failed"
)

// HoldingStore is the persistence the controller needs.
// repository.HoldingRepository implements it.
type HoldingStore interface {
	InsertHolding(ctx context.Context, h model.NewHolding) (model.Holding, error)
	ListHoldings(ctx context.Context, userID string) ([]model.Holding, error)
	DeleteHolding(ctx context.Context, userID, id string) error
}

// Confirmer decides whether a holding may be deleted.
type Confirmer func(model.Holding) bool

// ControllerOptions tunes a PortfolioController.
type ControllerOptions struct {
	// FetchTimeout bounds each background price batch and rate fetch. Zero means no bound.
	FetchTimeout time.Duration
	// PriceConcurrency bounds parallel price lookups. Zero selects quote.DefaultConcurrency.
	PriceConcurrency int
}

// PortfolioController owns the portfolio state of one signed-in session.
// It loads holdings, fans price lookups out, fetches exchange rates and
// serves immutable snapshots. All methods are safe for concurrent use.
type PortfolioController struct {
	user   model.User
	store  HoldingStore
	prices quote.Client
	rates  rates.Client
	logger *zap.Logger
	opts   ControllerOptions

	mu             sync.Mutex
	state          model.ControllerState
	priceState     model.PriceFetchState
	rateState      model.RateFetchState
	holdings       []model.Holding
	rateSet        model.RateSet
	lastError      string
	loadSeq        uint64
	refreshing     bool
	refreshPending bool
	closed         bool

	wg sync.WaitGroup
}

// NewPortfolioController creates an idle controller for user.
func NewPortfolioController(
	user model.User,
	store HoldingStore,
	prices quote.Client,
	rateClient rates.Client,
	opts ControllerOptions,
	logger *zap.Logger,
) *PortfolioController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PortfolioController{
		user:       user,
		store:      store,
		prices:     prices,
		rates:      rateClient,
		logger:     logger.With(zap.String("user_id", user.ID)),
		opts:       opts,
		state:      model.StateIdle,
		priceState: model.PricesIdle,
		rateState:  model.RatesIdle,
		holdings:   []model.Holding{},
	}
}

// User returns the user the controller was created for.
func (c *PortfolioController) User() model.User {
	return c.user
}

// Start fetches exchange rates and loads holdings, each in the background.
// It returns immediately; use Wait to block until both have settled.
func (c *PortfolioController) Start(ctx context.Context) {
	bg := context.WithoutCancel(ctx)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.wg.Add(2)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		_ = c.RefreshRates(bg)
	}()
	go func() {
		defer c.wg.Done()
		_ = c.Load(bg)
	}()
}

// Load reads the user's holdings from the store and replaces the held list.
// On success a background price refresh is triggered. On failure the
// controller moves to load_failed with MsgLoadFailed.
func (c *PortfolioController) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return apperrors.ErrSessionClosed
	}
	c.state = model.StateLoading
	c.lastError = ""
	c.loadSeq++
	seq := c.loadSeq
	c.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	holdings, err := c.store.ListHoldings(ctx, c.user.ID)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return apperrors.ErrSessionClosed
	}
	if seq != c.loadSeq {
		// A newer load owns the state.
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.state = model.StateLoadFailed
		c.lastError = MsgLoadFailed
		c.mu.Unlock()
		c.logger.Error("failed to load holdings", zap.Error(err))
		return fmt.Errorf("%w: %w", apperrors.ErrFailedToLoadHoldings, err)
	}
	if holdings == nil {
		holdings = []model.Holding{}
	}
	c.holdings = holdings
	c.state = model.StateLoaded
	c.mu.Unlock()

	c.logger.Debug("holdings loaded", zap.Int("count", len(holdings)))
	c.triggerRefresh(ctx)
	return nil
}

// triggerRefresh starts a background price refresh, or marks one pending
// if a refresh is already running so the newly loaded holdings get priced.
func (c *PortfolioController) triggerRefresh(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.refreshing {
		c.refreshPending = true
		c.mu.Unlock()
		return
	}
	c.refreshing = true
	c.wg.Add(1)
	c.mu.Unlock()

	bg := context.WithoutCancel(ctx)
	go func() {
		defer c.wg.Done()
		c.runRefresh(bg)
	}()
}

// RefreshPrices fetches current prices for every held ticker and blocks until
// the batch settles. If a refresh is already in flight it does nothing and
// returns false.
func (c *PortfolioController) RefreshPrices(ctx context.Context) bool {
	c.mu.Lock()
	if c.closed || c.refreshing {
		c.mu.Unlock()
		return false
	}
	c.refreshing = true
	c.wg.Add(1)
	c.mu.Unlock()

	defer c.wg.Done()
	c.runRefresh(ctx)
	return true
}

func (c *PortfolioController) runRefresh(ctx context.Context) {
	for {
		c.mu.Lock()
		if c.closed {
			c.refreshing = false
			c.refreshPending = false
			c.mu.Unlock()
			return
		}
		tickers := make([]string, 0, len(c.holdings))
		for _, h := range c.holdings {
			tickers = append(tickers, h.Ticker)
		}
		c.priceState = model.PricesLoading
		c.refreshPending = false
		c.mu.Unlock()

		fetchCtx, cancel := c.fetchContext(ctx)
		results := quote.FetchAll(fetchCtx, c.prices, tickers, c.opts.PriceConcurrency)
		cancel()

		c.mu.Lock()
		if c.closed {
			c.refreshing = false
			c.refreshPending = false
			c.mu.Unlock()
			return
		}

		next := make([]model.Holding, len(c.holdings))
		failed := 0
		for i, h := range c.holdings {
			if r, ok := results[h.Ticker]; ok {
				if r.Err != nil {
					h.CurrentPrice = model.FailedPrice(r.Err)
					failed++
				} else {
					h.CurrentPrice = model.ResolvedPrice(r.Quote.Price)
				}
			}
			next[i] = h
		}
		c.holdings = next

		if failed > 0 {
			c.priceState = model.PricesPartiallyFailed
		} else {
			c.priceState = model.PricesLoaded
		}

		pending := c.refreshPending
		if !pending {
			c.refreshing = false
		}
		c.mu.Unlock()

		if failed > 0 {
			c.logger.Warn("price refresh finished with failures",
				zap.Int("tickers", len(results)), zap.Int("failed", failed))
		} else {
			c.logger.Debug("price refresh finished", zap.Int("tickers", len(results)))
		}

		if !pending {
			return
		}
	}
}

// RefreshRates fetches exchange rates once. On failure rates are unavailable
// until the next successful fetch; no default rate is substituted.
func (c *PortfolioController) RefreshRates(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return apperrors.ErrSessionClosed
	}
	c.rateState = model.RatesLoading
	c.mu.Unlock()

	fetchCtx, cancel := c.fetchContext(ctx)
	set, err := c.rates.FetchRates(fetchCtx)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return apperrors.ErrSessionClosed
	}
	if err != nil {
		c.rateState = model.RatesFailed
		c.rateSet = nil
		c.logger.Warn("exchange rate fetch failed", zap.Error(err))
		return fmt.Errorf("%w: %w", apperrors.ErrFailedToFetchRates, err)
	}
	c.rateSet = set.Clone()
	c.rateState = model.RatesLoaded
	return nil
}

// AddHolding validates the form, converts the buy price to USD, checks the
// ticker with the price source and stores the holding, then reloads.
// Any failure leaves nothing stored and sets the user-visible error.
func (c *PortfolioController) AddHolding(ctx context.Context, req request.AddHoldingRequest) (model.Holding, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return model.Holding{}, apperrors.ErrSessionClosed
	}
	c.lastError = ""
	rateSet := c.rateSet.Clone()
	c.mu.Unlock()

	currency, err := validation.ValidateAddHolding(req)
	if err != nil {
		c.setError(err.Error())
		return model.Holding{}, err
	}

	buyPriceUSD, err := valuation.ToUSD(*req.BuyPrice, currency, rateSet)
	if err != nil {
		c.setError(MsgRatesNotLoaded)
		return model.Holding{}, err
	}

	ticker, err := quote.Sanitize(req.Ticker)
	if err != nil {
		c.setError(MsgAddFailed)
		return model.Holding{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToAddHolding, err)
	}

	fetchCtx, cancel := c.fetchContext(ctx)
	_, err = c.prices.FetchPrice(fetchCtx, ticker)
	cancel()
	if err != nil {
		c.setError(MsgAddFailed)
		if quote.IsClientError(err) {
			c.logger.Info("ticker rejected", zap.String("ticker", ticker), zap.Error(err))
		} else {
			c.logger.Warn("ticker check failed", zap.String("ticker", ticker), zap.Error(err))
		}
		return model.Holding{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToAddHolding, err)
	}

	holding, err := c.store.InsertHolding(ctx, model.NewHolding{
		UserID:   c.user.ID,
		Ticker:   ticker,
		Quantity: *req.Quantity,
		BuyPrice: buyPriceUSD,
	})
	if err != nil {
		c.setError(MsgAddFailed)
		c.logger.Error("failed to insert holding", zap.String("ticker", ticker), zap.Error(err))
		return model.Holding{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToAddHolding, err)
	}

	c.logger.Info("holding added", zap.String("holding_id", holding.ID), zap.String("ticker", ticker))

	// The holding is stored even if the reload fails; Load records its own error.
	_ = c.Load(ctx)
	return holding, nil
}

// DeleteHolding asks confirm about the holding and, if it agrees, deletes it
// and reloads. A declined confirmation changes nothing and returns false.
// A holding not yet in the held list, for example while a load is in flight,
// is confirmed by ID alone and the store decides whether it exists.
func (c *PortfolioController) DeleteHolding(ctx context.Context, id string, confirm Confirmer) (bool, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false, apperrors.ErrSessionClosed
	}
	target := model.Holding{ID: id, UserID: c.user.ID}
	for _, h := range c.holdings {
		if h.ID == id {
			target = h
			break
		}
	}
	c.mu.Unlock()

	if confirm == nil || !confirm(target) {
		return false, nil
	}

	c.setError("")
	if err := c.store.DeleteHolding(ctx, c.user.ID, id); err != nil {
		if errors.Is(err, apperrors.ErrHoldingNotFound) {
			_ = c.Load(ctx)
			return false, err
		}
		c.setError(MsgDeleteFailed)
		c.logger.Error("failed to delete holding", zap.String("holding_id", id), zap.Error(err))
		return false, fmt.Errorf("%w: %w", apperrors.ErrFailedToDeleteHolding, err)
	}

	c.logger.Info("holding deleted", zap.String("holding_id", id))
	_ = c.Load(ctx)
	return true, nil
}

// Snapshot returns the current state valued and formatted in currency.
// Amounts are pending when the rate for currency is not loaded.
func (c *PortfolioController) Snapshot(currency string) model.PortfolioView {
	c.mu.Lock()
	holdings := c.holdings
	rateSet := c.rateSet.Clone()
	view := model.PortfolioView{
		State:      c.state,
		PriceState: c.priceState,
		RateState:  c.rateState,
		Currency:   currency,
		Error:      c.lastError,
		Rates:      rateSet,
	}
	// One message is shown. An operation error wins over a failed rate fetch.
	if view.Error == "" && c.rateState == model.RatesFailed {
		view.Error = MsgRateFetchFailed
	}
	c.mu.Unlock()

	// holdings is never mutated in place, so it can be read outside the lock.
	view.Holdings = make([]model.HoldingView, len(holdings))
	for i, h := range holdings {
		view.Holdings[i] = valuation.HoldingView(h, currency, rateSet)
	}
	view.Totals = valuation.Aggregate(holdings)
	view.DisplayTotals = valuation.TotalsView(view.Totals, currency, rateSet)
	return view
}

// LastError returns the current user-visible error message, or "" when there is none.
func (c *PortfolioController) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// Close tears the session down. Results of work still in flight are discarded.
func (c *PortfolioController) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// Closed reports whether Close has been called.
func (c *PortfolioController) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Wait blocks until background loads and refreshes have settled.
func (c *PortfolioController) Wait() {
	c.wg.Wait()
}

func (c *PortfolioController) setError(msg string) {
	c.mu.Lock()
	c.lastError = msg
	c.mu.Unlock()
}

// fetchContext detaches upstream work from the caller's cancellation so an
// abandoned request cannot fail a fetch that is already in flight. Only the
// fetch timeout bounds it.
func (c *PortfolioController) fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if c.opts.FetchTimeout > 0 {
		return context.WithTimeout(ctx, c.opts.FetchTimeout)
	}
	return context.WithCancel(ctx)
}
