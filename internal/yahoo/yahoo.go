package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
)

// DefaultBaseURL is the Yahoo Finance chart API root.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Client is the subset of FinanceClient that price sources depend on.
// testutil.MockYahooClient implements it for tests.
type Client interface {
	QueryQuote(ctx context.Context, symbol string) (Response, error)
	ParseQuote(yahooResult Response) (Quote, error)
}

// FinanceClient provides methods for fetching quotes from the Yahoo Finance API.
// It wraps an HTTP client and a base URL so tests can point it at a local server.
type FinanceClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewFinanceClient creates a new Yahoo Finance client.
// An empty baseURL selects DefaultBaseURL; a zero timeout leaves the HTTP client unbounded.
func NewFinanceClient(baseURL string, timeout time.Duration) *FinanceClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &FinanceClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ParseQuote extracts the current price and metadata from a chart response.
//
// Returns:
//   - Quote: symbol, currency (defaults to USD) and regular market price
//   - error: ErrNoData if no result or no regular market price is present
func (c *FinanceClient) ParseQuote(yahooResult Response) (Quote, error) {
	if len(yahooResult.Chart.Result) == 0 {
		return Quote{}, fmt.Errorf("%w: no results returned", apperrors.ErrNoData)
	}

	meta := yahooResult.Chart.Result[0].Meta
	if meta.RegularMarketPrice == nil {
		return Quote{}, fmt.Errorf("%w: price data not available for %s", apperrors.ErrNoData, meta.Symbol)
	}

	currency := meta.Currency
	if currency == "" {
		currency = "USD"
	}

	return Quote{
		Symbol:       meta.Symbol,
		Currency:     currency,
		ExchangeName: meta.ExchangeName,
		LongName:     meta.LongName,
		Price:        *meta.RegularMarketPrice,
		MarketTime:   meta.RegularMarketTime,
	}, nil
}

// QueryQuote fetches today's chart for a symbol, which carries the regular market price.
// The symbol must already be sanitized.
//
// Returns:
//   - Response: Raw API response
//   - error: ErrNoData when Yahoo does not know the symbol, ErrUpstreamUnavailable
//     when the request fails or Yahoo answers with another error
func (c *FinanceClient) QueryQuote(ctx context.Context, symbol string) (Response, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d", c.baseURL, url.PathEscape(symbol))
	result, err := c.queryYahoo(ctx, endpoint)
	if err != nil {
		return Response{}, err
	}
	if len(result.Chart.Result) == 0 {
		return Response{}, fmt.Errorf("%w: no results returned for symbol %s", apperrors.ErrNoData, symbol)
	}

	return result, nil
}

// queryYahoo executes a request against the Yahoo Finance API.
// It sets a browser User-Agent, since Yahoo rejects default Go clients, and
// maps the Chart.Error object onto the application's sentinels.
func (c *FinanceClient) queryYahoo(ctx context.Context, endpoint string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Response{}, err
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", apperrors.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", apperrors.ErrUpstreamUnavailable, err)
	}

	var response Response
	if err := json.Unmarshal(data, &response); err != nil {
		if resp.StatusCode != http.StatusOK {
			return Response{}, fmt.Errorf("%w: yahoo returned status %d", apperrors.ErrUpstreamUnavailable, resp.StatusCode)
		}
		return Response{}, fmt.Errorf("%w: invalid yahoo response: %v", apperrors.ErrUpstreamUnavailable, err)
	}

	if response.Chart.Error != nil {
		if response.Chart.Error.Code == "Not Found" || resp.StatusCode == http.StatusNotFound {
			return response, fmt.Errorf("%w: %s", apperrors.ErrNoData, response.Chart.Error.Description)
		}
		return response, fmt.Errorf("%w: yahoo error: %s", apperrors.ErrUpstreamUnavailable, response.Chart.Error.Description)
	}

	if resp.StatusCode != http.StatusOK {
		return Response{}, fmt.Errorf("%w: yahoo returned status %d", apperrors.ErrUpstreamUnavailable, resp.StatusCode)
	}

	return response, nil
}
