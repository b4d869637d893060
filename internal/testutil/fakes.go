package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

// FakeQuoteClient is an in-memory quote.Client.
// Tickers in Prices resolve, tickers in Errors fail with that error and any
// other ticker fails with ErrNoData. Set Block to hold every lookup until the
// channel is closed.
type FakeQuoteClient struct {
	mu     sync.Mutex
	Prices map[string]float64
	Errors map[string]error
	Block  chan struct{}
	calls  map[string]int
	total  int
}

// NewFakeQuoteClient returns a client resolving the given USD prices.
func NewFakeQuoteClient(prices map[string]float64) *FakeQuoteClient {
	if prices == nil {
		prices = map[string]float64{}
	}
	return &FakeQuoteClient{
		Prices: prices,
		Errors: map[string]error{},
		calls:  map[string]int{},
	}
}

// WithError makes ticker fail with err.
func (f *FakeQuoteClient) WithError(ticker string, err error) *FakeQuoteClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errors[ticker] = err
	return f
}

// SetPrice changes the price returned for ticker.
func (f *FakeQuoteClient) SetPrice(ticker string, price float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Prices[ticker] = price
	delete(f.Errors, ticker)
}

// FetchPrice implements quote.Client.
func (f *FakeQuoteClient) FetchPrice(ctx context.Context, ticker string) (model.Quote, error) {
	f.mu.Lock()
	block := f.Block
	f.calls[ticker]++
	f.total++
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return model.Quote{}, fmt.Errorf("%w: %v", apperrors.ErrUpstreamUnavailable, ctx.Err())
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.Errors[ticker]; ok {
		return model.Quote{}, err
	}
	price, ok := f.Prices[ticker]
	if !ok {
		return model.Quote{}, fmt.Errorf("%w: %s", apperrors.ErrNoData, ticker)
	}
	return model.Quote{Ticker: ticker, Price: price, Currency: model.CurrencyUSD, Timestamp: time.Now().UTC()}, nil
}

// Calls returns how many lookups were made for ticker.
func (f *FakeQuoteClient) Calls(ticker string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[ticker]
}

// TotalCalls returns how many lookups were made in total.
func (f *FakeQuoteClient) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.total
}

// FakeRateClient is an in-memory rates.Client returning Rates or Err.
// A cancelled context fails the fetch the way an HTTP client would.
type FakeRateClient struct {
	mu    sync.Mutex
	Rates model.RateSet
	Err   error
	calls int
}

// NewFakeRateClient returns a client serving set.
func NewFakeRateClient(set model.RateSet) *FakeRateClient {
	return &FakeRateClient{Rates: set}
}

// NewFailingRateClient returns a client whose every fetch fails.
func NewFailingRateClient() *FakeRateClient {
	return &FakeRateClient{Err: fmt.Errorf("%w: rates endpoint down", apperrors.ErrUpstreamUnavailable)}
}

// FetchRates implements rates.Client.
func (f *FakeRateClient) FetchRates(ctx context.Context) (model.RateSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUpstreamUnavailable, err)
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Rates.Clone(), nil
}

// SetResult replaces what the next fetch returns.
func (f *FakeRateClient) SetResult(set model.RateSet, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Rates = set
	f.Err = err
}

// Calls returns how many fetches were made.
func (f *FakeRateClient) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
