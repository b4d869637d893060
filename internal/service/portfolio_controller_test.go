package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/request"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/service"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/testutil"
)

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

type failingStore struct {
	service.HoldingStore
}

func (failingStore) ListHoldings(context.Context, string) ([]model.Holding, error) {
	return nil, errors.New("store offline")
}

func findHolding(view model.PortfolioView, ticker string) (model.HoldingView, bool) {
	for _, h := range view.Holdings {
		if h.Holding.Ticker == ticker {
			return h, true
		}
	}
	return model.HoldingView{}, false
}

// TestPortfolioController_Load tests loading holdings and the price refresh it triggers.
//
// WHY: Every view starts from a load. The load must replace the list wholesale,
// then price every holding without letting one bad ticker sink the batch.
func TestPortfolioController_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("prices resolve and failures are isolated per holding", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		user := testutil.CreateUser(t, db)
		testutil.CreateHolding(t, db, user.ID, "AAPL", 10, 150)
		testutil.CreateHolding(t, db, user.ID, "BADTICKER", 1, 5)

		prices := testutil.NewFakeQuoteClient(map[string]float64{"AAPL": 189.5})
		c := testutil.NewTestController(t, db, user, prices, testutil.NewFakeRateClient(testutil.TestRates()))

		if err := c.Load(ctx); err != nil {
			t.Fatalf("Load() returned unexpected error: %v", err)
		}
		c.Wait()

		view := c.Snapshot("USD")
		if view.State != model.StateLoaded {
			t.Errorf("Expected state loaded, got %s", view.State)
		}
		if view.PriceState != model.PricesPartiallyFailed {
			t.Errorf("Expected price state partially_failed, got %s", view.PriceState)
		}

		aapl, _ := findHolding(view, "AAPL")
		if !aapl.Holding.CurrentPrice.Resolved() || aapl.Holding.CurrentPrice.Value != 189.5 {
			t.Errorf("Expected AAPL resolved at 189.5, got %+v", aapl.Holding.CurrentPrice)
		}

		bad, _ := findHolding(view, "BADTICKER")
		if bad.Holding.CurrentPrice.State != model.PriceFailed {
			t.Errorf("Expected BADTICKER failed, got %+v", bad.Holding.CurrentPrice)
		}
		if bad.Holding.CurrentPrice.Err == "" {
			t.Error("Expected BADTICKER to carry an error message")
		}

		// Unresolved prices contribute nothing to the current value.
		if view.Totals.Current != 1895 {
			t.Errorf("Expected current 1895, got %v", view.Totals.Current)
		}
		if view.Totals.Invested != 1505 {
			t.Errorf("Expected invested 1505, got %v", view.Totals.Invested)
		}
	})

	t.Run("empty portfolio loads with prices loaded", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		user := testutil.CreateUser(t, db)
		c := testutil.NewTestController(t, db, user, testutil.NewFakeQuoteClient(nil), testutil.NewFakeRateClient(nil))

		if err := c.Load(ctx); err != nil {
			t.Fatalf("Load() returned unexpected error: %v", err)
		}
		c.Wait()

		view := c.Snapshot("USD")
		if len(view.Holdings) != 0 {
			t.Errorf("Expected no holdings, got %d", len(view.Holdings))
		}
		if view.PriceState != model.PricesLoaded {
			t.Errorf("Expected price state loaded, got %s", view.PriceState)
		}
		if view.Totals.Percentage != 0 {
			t.Errorf("Expected 0 percentage on empty portfolio, got %v", view.Totals.Percentage)
		}
	})

	t.Run("store failure sets load_failed and message", func(t *testing.T) {
		user := model.User{ID: testutil.MakeID()}
		c := testutil.NewTestControllerWithStore(t, failingStore{}, user, testutil.NewFakeQuoteClient(nil), testutil.NewFakeRateClient(nil))

		err := c.Load(ctx)
		if !errors.Is(err, apperrors.ErrFailedToLoadHoldings) {
			t.Fatalf("Expected ErrFailedToLoadHoldings, got %v", err)
		}

		view := c.Snapshot("USD")
		if view.State != model.StateLoadFailed {
			t.Errorf("Expected state load_failed, got %s", view.State)
		}
		if view.Error != service.MsgLoadFailed {
			t.Errorf("Expected error %q, got %q", service.MsgLoadFailed, view.Error)
		}
	})

	t.Run("load during in-flight refresh schedules a follow-up", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		user := testutil.CreateUser(t, db)
		testutil.CreateHolding(t, db, user.ID, "AAPL", 1, 100)

		prices := testutil.NewFakeQuoteClient(map[string]float64{"AAPL": 110, "MSFT": 420})
		block := make(chan struct{})
		prices.Block = block
		c := testutil.NewTestController(t, db, user, prices, testutil.NewFakeRateClient(nil))

		if err := c.Load(ctx); err != nil {
			t.Fatalf("Load() returned unexpected error: %v", err)
		}
		waitFor(t, "first price lookup", func() bool { return prices.TotalCalls() > 0 })

		testutil.CreateHolding(t, db, user.ID, "MSFT", 2, 400)
		if err := c.Load(ctx); err != nil {
			t.Fatalf("second Load() returned unexpected error: %v", err)
		}
		close(block)
		c.Wait()

		view := c.Snapshot("USD")
		msft, ok := findHolding(view, "MSFT")
		if !ok {
			t.Fatal("Expected MSFT after reload")
		}
		if !msft.Holding.CurrentPrice.Resolved() {
			t.Errorf("Expected newly loaded MSFT to be priced, got %+v", msft.Holding.CurrentPrice)
		}
		if view.PriceState != model.PricesLoaded {
			t.Errorf("Expected price state loaded, got %s", view.PriceState)
		}
	})
}

// TestPortfolioController_RefreshPrices tests manual refresh debouncing.
//
// WHY: A user mashing refresh while a batch is in flight must not start
// overlapping batches.
func TestPortfolioController_RefreshPrices(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	user := testutil.CreateUser(t, db)
	testutil.CreateHolding(t, db, user.ID, "AAPL", 1, 100)

	prices := testutil.NewFakeQuoteClient(map[string]float64{"AAPL": 120})
	block := make(chan struct{})
	prices.Block = block
	c := testutil.NewTestController(t, db, user, prices, testutil.NewFakeRateClient(nil))

	if err := c.Load(ctx); err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	waitFor(t, "background refresh", func() bool { return prices.TotalCalls() > 0 })

	if c.RefreshPrices(ctx) {
		t.Error("Expected RefreshPrices to be a no-op while a refresh is in flight")
	}
	if got := c.Snapshot("USD").PriceState; got != model.PricesLoading {
		t.Errorf("Expected price state loading, got %s", got)
	}

	close(block)
	c.Wait()

	prices.SetPrice("AAPL", 130)
	if !c.RefreshPrices(ctx) {
		t.Fatal("Expected RefreshPrices to run once idle")
	}
	view := c.Snapshot("USD")
	if view.Holdings[0].Holding.CurrentPrice.Value != 130 {
		t.Errorf("Expected refreshed price 130, got %v", view.Holdings[0].Holding.CurrentPrice.Value)
	}
}

// TestPortfolioController_CallerCancellation tests that an abandoned request
// does not fail the work it started.
//
// WHY: Handlers pass the request context. A client that disconnects mid-refresh
// must not flip every price to failed or throw away loaded rates.
func TestPortfolioController_CallerCancellation(t *testing.T) {
	t.Run("cancel during price refresh keeps prices", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		user := testutil.CreateUser(t, db)
		testutil.CreateHolding(t, db, user.ID, "AAPL", 10, 100)

		prices := testutil.NewFakeQuoteClient(map[string]float64{"AAPL": 120})
		c := testutil.NewTestController(t, db, user, prices, testutil.NewFakeRateClient(testutil.TestRates()))
		if err := c.Load(context.Background()); err != nil {
			t.Fatalf("Load() returned unexpected error: %v", err)
		}
		c.Wait()

		block := make(chan struct{})
		prices.Block = block
		before := prices.TotalCalls()

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan bool, 1)
		go func() { done <- c.RefreshPrices(ctx) }()
		waitFor(t, "refresh to reach the price source", func() bool { return prices.TotalCalls() > before })

		cancel()
		time.Sleep(20 * time.Millisecond)
		close(block)
		if !<-done {
			t.Fatal("Expected RefreshPrices to run")
		}

		view := c.Snapshot("USD")
		if view.PriceState != model.PricesLoaded {
			t.Errorf("Expected price state loaded, got %s", view.PriceState)
		}
		aapl, _ := findHolding(view, "AAPL")
		if !aapl.Holding.CurrentPrice.Resolved() || aapl.Holding.CurrentPrice.Value != 120 {
			t.Errorf("Expected AAPL resolved at 120, got %+v", aapl.Holding.CurrentPrice)
		}
	})

	t.Run("cancelled rate refresh keeps rates", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		user := testutil.CreateUser(t, db)

		c := testutil.NewTestController(t, db, user,
			testutil.NewFakeQuoteClient(nil), testutil.NewFakeRateClient(testutil.TestRates()))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := c.RefreshRates(ctx); err != nil {
			t.Fatalf("RefreshRates() returned unexpected error: %v", err)
		}
		view := c.Snapshot("INR")
		if view.RateState != model.RatesLoaded {
			t.Errorf("Expected rate state loaded, got %s", view.RateState)
		}
		if view.Error != "" {
			t.Errorf("Expected no error message, got %q", view.Error)
		}
	})

	t.Run("cancelled load still loads", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		user := testutil.CreateUser(t, db)
		testutil.CreateHolding(t, db, user.ID, "AAPL", 1, 100)

		c := testutil.NewTestController(t, db, user,
			testutil.NewFakeQuoteClient(map[string]float64{"AAPL": 100}), testutil.NewFakeRateClient(nil))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := c.Load(ctx); err != nil {
			t.Fatalf("Load() returned unexpected error: %v", err)
		}
		c.Wait()
		if view := c.Snapshot("USD"); view.State != model.StateLoaded || len(view.Holdings) != 1 {
			t.Errorf("Expected one loaded holding, got state %s with %d holdings", view.State, len(view.Holdings))
		}
	})
}

// TestPortfolioController_RefreshRates tests rate loading and failure handling.
//
// WHY: A missing rate must leave amounts pending. Showing USD figures labelled
// as another currency would be silently wrong.
func TestPortfolioController_RefreshRates(t *testing.T) {
	ctx := context.Background()

	t.Run("INR display of 1000 USD invested", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		user := testutil.CreateUser(t, db)
		testutil.CreateHolding(t, db, user.ID, "AAPL", 10, 100)

		c := testutil.NewTestController(t, db, user,
			testutil.NewFakeQuoteClient(map[string]float64{"AAPL": 100}),
			testutil.NewFakeRateClient(testutil.TestRates()))

		if err := c.RefreshRates(ctx); err != nil {
			t.Fatalf("RefreshRates() returned unexpected error: %v", err)
		}
		if err := c.Load(ctx); err != nil {
			t.Fatalf("Load() returned unexpected error: %v", err)
		}
		c.Wait()

		view := c.Snapshot("INR")
		if view.RateState != model.RatesLoaded {
			t.Errorf("Expected rate state loaded, got %s", view.RateState)
		}
		if got := view.DisplayTotals.Invested.Amount; got != "83000.00" {
			t.Errorf("Expected invested 83000.00, got %q", got)
		}
		if view.DisplayTotals.Invested.Symbol != "₹" {
			t.Errorf("Expected ₹ symbol, got %q", view.DisplayTotals.Invested.Symbol)
		}
	})

	t.Run("failure leaves non-USD amounts pending", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		user := testutil.CreateUser(t, db)
		testutil.CreateHolding(t, db, user.ID, "AAPL", 10, 100)

		c := testutil.NewTestController(t, db, user,
			testutil.NewFakeQuoteClient(map[string]float64{"AAPL": 100}),
			testutil.NewFailingRateClient())

		err := c.RefreshRates(ctx)
		if !errors.Is(err, apperrors.ErrFailedToFetchRates) {
			t.Fatalf("Expected ErrFailedToFetchRates, got %v", err)
		}
		if err := c.Load(ctx); err != nil {
			t.Fatalf("Load() returned unexpected error: %v", err)
		}
		c.Wait()

		view := c.Snapshot("EUR")
		if view.RateState != model.RatesFailed {
			t.Errorf("Expected rate state failed, got %s", view.RateState)
		}
		if view.Error != service.MsgRateFetchFailed {
			t.Errorf("Expected error %q, got %q", service.MsgRateFetchFailed, view.Error)
		}
		if !view.DisplayTotals.Invested.Pending || view.DisplayTotals.Invested.Amount != "" {
			t.Errorf("Expected pending EUR amount, got %+v", view.DisplayTotals.Invested)
		}

		// USD needs no rate.
		usd := c.Snapshot("USD")
		if usd.DisplayTotals.Invested.Amount != "1000.00" {
			t.Errorf("Expected USD invested 1000.00, got %q", usd.DisplayTotals.Invested.Amount)
		}
	})

	t.Run("operation error is shown over rate failure", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		user := testutil.CreateUser(t, db)

		c := testutil.NewTestController(t, db, user,
			testutil.NewFakeQuoteClient(map[string]float64{"AAPL": 100}),
			testutil.NewFailingRateClient())
		_ = c.RefreshRates(ctx)

		_, err := c.AddHolding(ctx, request.AddHoldingRequest{
			Ticker: "AAPL", Quantity: testutil.Float(1), BuyPrice: testutil.Float(100), Currency: "INR",
		})
		if !errors.Is(err, apperrors.ErrRatesNotReady) {
			t.Fatalf("Expected ErrRatesNotReady, got %v", err)
		}
		if got := c.Snapshot("USD").Error; got != service.MsgRatesNotLoaded {
			t.Errorf("Expected error %q, got %q", service.MsgRatesNotLoaded, got)
		}

		if _, err := c.AddHolding(ctx, request.AddHoldingRequest{
			Ticker: "AAPL", Quantity: testutil.Float(1), BuyPrice: testutil.Float(100), Currency: "USD",
		}); err != nil {
			t.Fatalf("AddHolding() returned unexpected error: %v", err)
		}
		c.Wait()
		if got := c.Snapshot("USD").Error; got != service.MsgRateFetchFailed {
			t.Errorf("Expected error %q once the add succeeds, got %q", service.MsgRateFetchFailed, got)
		}
	})
}

// TestPortfolioController_AddHolding tests the add-stock flow.
//
// WHY: Validation order decides which message the user sees, and the buy
// price must always be stored in USD.
func TestPortfolioController_AddHolding(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, rates *testutil.FakeRateClient) (*service.PortfolioController, model.User, func() int) {
		t.Helper()
		db := testutil.SetupTestDB(t)
		user := testutil.CreateUser(t, db)
		prices := testutil.NewFakeQuoteClient(map[string]float64{"AAPL": 150, "TCS.NS": 30})
		c := testutil.NewTestController(t, db, user, prices, rates)
		return c, user, func() int { return testutil.CountRows(t, db, "holdings") }
	}

	t.Run("AAPL 10 at 150 USD adds 1500 invested", func(t *testing.T) {
		c, _, rows := setup(t, testutil.NewFakeRateClient(testutil.TestRates()))
		if err := c.Load(ctx); err != nil {
			t.Fatalf("Load() returned unexpected error: %v", err)
		}
		c.Wait()
		before := c.Snapshot("USD").Totals.Invested

		h, err := c.AddHolding(ctx, request.AddHoldingRequest{
			Ticker: "aapl", Quantity: testutil.Float(10), BuyPrice: testutil.Float(150), Currency: "USD",
		})
		if err != nil {
			t.Fatalf("AddHolding() returned unexpected error: %v", err)
		}
		c.Wait()

		if h.Ticker != "AAPL" {
			t.Errorf("Expected sanitized ticker AAPL, got %s", h.Ticker)
		}
		view := c.Snapshot("USD")
		if view.Totals.Invested-before != 1500 {
			t.Errorf("Expected invested to grow by 1500, got %v", view.Totals.Invested-before)
		}
		if view.DisplayTotals.Invested.Amount != "1500.00" {
			t.Errorf("Expected display invested 1500.00, got %q", view.DisplayTotals.Invested.Amount)
		}
		if view.Error != "" {
			t.Errorf("Expected no error, got %q", view.Error)
		}
		if rows() != 1 {
			t.Errorf("Expected 1 stored holding, got %d", rows())
		}
	})

	t.Run("non-USD buy price is stored in USD", func(t *testing.T) {
		c, _, _ := setup(t, testutil.NewFakeRateClient(testutil.TestRates()))
		if err := c.RefreshRates(ctx); err != nil {
			t.Fatalf("RefreshRates() returned unexpected error: %v", err)
		}

		h, err := c.AddHolding(ctx, request.AddHoldingRequest{
			Ticker: "TCS.NS", Quantity: testutil.Float(2), BuyPrice: testutil.Float(8300), Currency: "INR",
		})
		if err != nil {
			t.Fatalf("AddHolding() returned unexpected error: %v", err)
		}
		if h.BuyPrice != 100 {
			t.Errorf("Expected buy price 100 USD, got %v", h.BuyPrice)
		}
	})

	failures := []struct {
		name     string
		req      request.AddHoldingRequest
		loadRate bool
		wantMsg  string
		wantErr  error
	}{
		{
			name:    "missing fields",
			req:     request.AddHoldingRequest{Ticker: "AAPL", Quantity: testutil.Float(1)},
			wantMsg: "Please fill in all fields",
		},
		{
			name:    "non-positive amounts",
			req:     request.AddHoldingRequest{Ticker: "AAPL", Quantity: testutil.Float(0), BuyPrice: testutil.Float(10)},
			wantMsg: "Quantity and buy price must be greater than 0",
		},
		{
			name:    "non-USD before rates load",
			req:     request.AddHoldingRequest{Ticker: "AAPL", Quantity: testutil.Float(1), BuyPrice: testutil.Float(10), Currency: "INR"},
			wantMsg: service.MsgRatesNotLoaded,
			wantErr: apperrors.ErrRatesNotReady,
		},
		{
			name:     "ticker without a price",
			req:      request.AddHoldingRequest{Ticker: "BADTICKER", Quantity: testutil.Float(1), BuyPrice: testutil.Float(10)},
			loadRate: true,
			wantMsg:  service.MsgAddFailed,
			wantErr:  apperrors.ErrNoData,
		},
		{
			name:    "ticker longer than ten characters",
			req:     request.AddHoldingRequest{Ticker: "RELIANCE.NS", Quantity: testutil.Float(1), BuyPrice: testutil.Float(10)},
			wantMsg: service.MsgAddFailed,
			wantErr: apperrors.ErrInvalidTicker,
		},
		{
			name:    "ticker that sanitizes to nothing",
			req:     request.AddHoldingRequest{Ticker: "$$$", Quantity: testutil.Float(1), BuyPrice: testutil.Float(10)},
			wantMsg: service.MsgAddFailed,
			wantErr: apperrors.ErrInvalidTicker,
		},
	}

	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			c, _, rows := setup(t, testutil.NewFakeRateClient(testutil.TestRates()))
			if tt.loadRate {
				_ = c.RefreshRates(ctx)
			}

			_, err := c.AddHolding(ctx, tt.req)
			if err == nil {
				t.Fatal("Expected AddHolding to fail")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
			if got := c.Snapshot("USD").Error; got != tt.wantMsg {
				t.Errorf("Expected message %q, got %q", tt.wantMsg, got)
			}
			if rows() != 0 {
				t.Errorf("Expected nothing stored, got %d rows", rows())
			}
		})
	}

	t.Run("next operation clears the previous error", func(t *testing.T) {
		c, _, _ := setup(t, testutil.NewFakeRateClient(nil))
		_, _ = c.AddHolding(ctx, request.AddHoldingRequest{})
		if c.Snapshot("USD").Error == "" {
			t.Fatal("Expected an error after invalid add")
		}
		if err := c.Load(ctx); err != nil {
			t.Fatalf("Load() returned unexpected error: %v", err)
		}
		if got := c.Snapshot("USD").Error; got != "" {
			t.Errorf("Expected error cleared, got %q", got)
		}
	})
}

// TestPortfolioController_DeleteHolding tests confirmed deletion.
//
// WHY: Deletion is irreversible, so a declined confirmation must leave the
// portfolio exactly as it was.
func TestPortfolioController_DeleteHolding(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	user := testutil.CreateUser(t, db)
	keep := testutil.CreateHolding(t, db, user.ID, "AAPL", 1, 100)
	target := testutil.CreateHolding(t, db, user.ID, "MSFT", 1, 100)

	c := testutil.NewTestController(t, db, user,
		testutil.NewFakeQuoteClient(map[string]float64{"AAPL": 1, "MSFT": 1}),
		testutil.NewFakeRateClient(nil))
	if err := c.Load(ctx); err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	c.Wait()

	t.Run("declined confirmation leaves list unchanged", func(t *testing.T) {
		var asked model.Holding
		deleted, err := c.DeleteHolding(ctx, target.ID, func(h model.Holding) bool {
			asked = h
			return false
		})
		if err != nil {
			t.Fatalf("DeleteHolding() returned unexpected error: %v", err)
		}
		if deleted {
			t.Error("Expected no deletion")
		}
		if asked.Ticker != "MSFT" {
			t.Errorf("Expected confirmation for MSFT, got %q", asked.Ticker)
		}
		if n := len(c.Snapshot("USD").Holdings); n != 2 {
			t.Errorf("Expected 2 holdings, got %d", n)
		}
		testutil.AssertRowCount(t, db, "holdings", 2)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		_, err := c.DeleteHolding(ctx, testutil.MakeID(), func(model.Holding) bool { return true })
		if !errors.Is(err, apperrors.ErrHoldingNotFound) {
			t.Errorf("Expected ErrHoldingNotFound, got %v", err)
		}
	})

	t.Run("confirmed deletion removes and reloads", func(t *testing.T) {
		deleted, err := c.DeleteHolding(ctx, target.ID, func(model.Holding) bool { return true })
		if err != nil {
			t.Fatalf("DeleteHolding() returned unexpected error: %v", err)
		}
		if !deleted {
			t.Error("Expected deletion")
		}
		c.Wait()

		view := c.Snapshot("USD")
		if len(view.Holdings) != 1 || view.Holdings[0].Holding.ID != keep.ID {
			t.Errorf("Expected only %s to remain, got %+v", keep.ID, view.Holdings)
		}
		testutil.AssertRowCount(t, db, "holdings", 1)
	})

	t.Run("holding not yet loaded is deleted from the store", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		user := testutil.CreateUser(t, db)
		stored := testutil.CreateHolding(t, db, user.ID, "AAPL", 1, 100)

		fresh := testutil.NewTestController(t, db, user,
			testutil.NewFakeQuoteClient(map[string]float64{"AAPL": 1}),
			testutil.NewFakeRateClient(nil))

		var asked model.Holding
		deleted, err := fresh.DeleteHolding(ctx, stored.ID, func(h model.Holding) bool {
			asked = h
			return true
		})
		if err != nil {
			t.Fatalf("DeleteHolding() returned unexpected error: %v", err)
		}
		if !deleted {
			t.Error("Expected deletion")
		}
		if asked.ID != stored.ID {
			t.Errorf("Expected confirmation for %s, got %q", stored.ID, asked.ID)
		}
		fresh.Wait()
		testutil.AssertRowCount(t, db, "holdings", 0)
	})

	t.Run("other user's holding is not found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		owner := testutil.CreateUser(t, db)
		other := testutil.CreateUser(t, db)
		stored := testutil.CreateHolding(t, db, owner.ID, "AAPL", 1, 100)

		c := testutil.NewTestController(t, db, other,
			testutil.NewFakeQuoteClient(nil), testutil.NewFakeRateClient(nil))

		_, err := c.DeleteHolding(ctx, stored.ID, func(model.Holding) bool { return true })
		if !errors.Is(err, apperrors.ErrHoldingNotFound) {
			t.Errorf("Expected ErrHoldingNotFound, got %v", err)
		}
		c.Wait()
		testutil.AssertRowCount(t, db, "holdings", 1)
	})
}

// TestPortfolioController_Close tests session teardown.
//
// WHY: Results arriving after sign-out must not be applied to a dead session.
func TestPortfolioController_Close(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	user := testutil.CreateUser(t, db)
	testutil.CreateHolding(t, db, user.ID, "AAPL", 1, 100)

	prices := testutil.NewFakeQuoteClient(map[string]float64{"AAPL": 120})
	block := make(chan struct{})
	prices.Block = block
	c := testutil.NewTestController(t, db, user, prices, testutil.NewFakeRateClient(nil))

	if err := c.Load(ctx); err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	waitFor(t, "background refresh", func() bool { return prices.TotalCalls() > 0 })

	c.Close()
	close(block)
	c.Wait()

	view := c.Snapshot("USD")
	if view.Holdings[0].Holding.CurrentPrice.State != model.PriceUnfetched {
		t.Errorf("Expected price discarded after close, got %+v", view.Holdings[0].Holding.CurrentPrice)
	}
	if err := c.Load(ctx); !errors.Is(err, apperrors.ErrSessionClosed) {
		t.Errorf("Expected ErrSessionClosed, got %v", err)
	}
	if _, err := c.AddHolding(ctx, request.AddHoldingRequest{}); !errors.Is(err, apperrors.ErrSessionClosed) {
		t.Errorf("Expected ErrSessionClosed, got %v", err)
	}
}

func TestPortfolioController_Start(t *testing.T) {
	db := testutil.SetupTestDB(t)
	user := testutil.CreateUser(t, db)
	testutil.CreateHolding(t, db, user.ID, "AAPL", 2, 50)

	rates := testutil.NewFakeRateClient(testutil.TestRates())
	c := testutil.NewTestController(t, db, user, testutil.NewFakeQuoteClient(map[string]float64{"AAPL": 60}), rates)

	c.Start(context.Background())
	c.Wait()

	view := c.Snapshot("KRW")
	if view.State != model.StateLoaded || view.RateState != model.RatesLoaded || view.PriceState != model.PricesLoaded {
		t.Errorf("Expected everything loaded, got state=%s rates=%s prices=%s", view.State, view.RateState, view.PriceState)
	}
	if rates.Calls() != 1 {
		t.Errorf("Expected a single rate fetch, got %d", rates.Calls())
	}
	if got := view.DisplayTotals.Current.Amount; got != "156000.00" {
		t.Errorf("Expected KRW current 156000.00, got %q", got)
	}
}
