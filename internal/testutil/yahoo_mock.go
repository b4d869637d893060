package testutil

import (
	"context"
	"sync"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/yahoo"
)

// MockYahooClient is a mock implementation of yahoo.Client for testing.
// It returns predefined test data instead of making actual API calls.
type MockYahooClient struct {
	mu sync.Mutex
	// MockResponse is the response to return from QueryQuote
	MockResponse yahoo.Response
	// MockError is the error to return from QueryQuote
	MockError error
	// QueryCount tracks how many times QueryQuote was called
	QueryCount int
	// LastSymbol is the symbol of the most recent query
	LastSymbol string
}

// NewMockYahooClient creates a mock returning price for every symbol.
func NewMockYahooClient(price float64) *MockYahooClient {
	return &MockYahooClient{
		MockResponse: CreateMockYahooResponse("AAPL", price),
	}
}

// QueryQuote returns the configured MockResponse and MockError.
func (m *MockYahooClient) QueryQuote(_ context.Context, symbol string) (yahoo.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QueryCount++
	m.LastSymbol = symbol
	if m.MockError != nil {
		return yahoo.Response{}, m.MockError
	}
	resp := m.MockResponse
	if len(resp.Chart.Result) > 0 {
		results := make([]yahoo.Result, len(resp.Chart.Result))
		copy(results, resp.Chart.Result)
		results[0].Meta.Symbol = symbol
		resp.Chart.Result = results
	}
	return resp, nil
}

// ParseQuote delegates to the real ParseQuote method since it's pure logic with no side effects.
func (m *MockYahooClient) ParseQuote(yahooResult yahoo.Response) (yahoo.Quote, error) {
	return yahoo.NewFinanceClient("", 0).ParseQuote(yahooResult)
}

// WithError configures the mock to return the specified error.
func (m *MockYahooClient) WithError(err error) *MockYahooClient {
	m.MockError = err
	return m
}

// CreateMockYahooResponse builds a chart response carrying a regular market price.
func CreateMockYahooResponse(symbol string, price float64) yahoo.Response {
	return yahoo.Response{
		Chart: yahoo.Chart{
			Result: []yahoo.Result{
				{
					Meta: yahoo.Meta{
						Currency:           "USD",
						Symbol:             symbol,
						ExchangeName:       "NMS",
						RegularMarketPrice: &price,
					},
				},
			},
		},
	}
}
