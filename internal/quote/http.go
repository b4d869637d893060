package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

// HTTPClient fetches quotes from a price lookup endpoint that answers
// GET {endpoint}?ticker=SYM with {ticker, price, currency, timestamp}
// on success and {error} otherwise.
type HTTPClient struct {
	endpoint   string
	httpClient *http.Client
	now        func() time.Time
}

// NewHTTPClient creates a client for endpoint. A zero timeout leaves requests unbounded
// apart from the caller's context.
func NewHTTPClient(endpoint string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

type priceResponse struct {
	Ticker    string   `json:"ticker"`
	Price     *float64 `json:"price"`
	Currency  string   `json:"currency"`
	Timestamp string   `json:"timestamp"`
	Error     string   `json:"error"`
}

// FetchPrice sanitizes ticker and asks the endpoint for its current price.
//
// Error mapping:
//   - 400 -> ErrInvalidTicker
//   - 404, or a 200 without a price -> ErrNoData
//   - any other non-2xx status, undecodable body or transport failure -> ErrUpstreamUnavailable
func (c *HTTPClient) FetchPrice(ctx context.Context, ticker string) (model.Quote, error) {
	symbol, err := Sanitize(ticker)
	if err != nil {
		return model.Quote{}, err
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return model.Quote{}, fmt.Errorf("%w: invalid price endpoint: %v", apperrors.ErrUpstreamUnavailable, err)
	}
	q := u.Query()
	q.Set("ticker", symbol)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return model.Quote{}, fmt.Errorf("%w: %v", apperrors.ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.Quote{}, fmt.Errorf("%w: %v", apperrors.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Quote{}, fmt.Errorf("%w: %v", apperrors.ErrUpstreamUnavailable, err)
	}

	var pr priceResponse
	decodeErr := json.Unmarshal(body, &pr)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := pr.Error
		if decodeErr != nil || msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		switch resp.StatusCode {
		case http.StatusBadRequest:
			return model.Quote{}, fmt.Errorf("%w: %s", apperrors.ErrInvalidTicker, msg)
		case http.StatusNotFound:
			return model.Quote{}, fmt.Errorf("%w: %s", apperrors.ErrNoData, msg)
		default:
			return model.Quote{}, fmt.Errorf("%w: %s", apperrors.ErrUpstreamUnavailable, msg)
		}
	}

	if decodeErr != nil {
		return model.Quote{}, fmt.Errorf("%w: invalid price response: %v", apperrors.ErrUpstreamUnavailable, decodeErr)
	}
	if pr.Price == nil {
		return model.Quote{}, fmt.Errorf("%w: no price for %s", apperrors.ErrNoData, symbol)
	}

	return c.toQuote(symbol, pr), nil
}

func (c *HTTPClient) toQuote(symbol string, pr priceResponse) model.Quote {
	quote := model.Quote{
		Ticker:    pr.Ticker,
		Price:     *pr.Price,
		Currency:  pr.Currency,
		Timestamp: c.now().UTC(),
	}
	if quote.Ticker == "" {
		quote.Ticker = symbol
	}
	if quote.Currency == "" {
		quote.Currency = model.CurrencyUSD
	}
	if pr.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, pr.Timestamp); err == nil {
			quote.Timestamp = ts
		}
	}
	return quote
}

// IsClientError reports whether err was caused by the ticker rather than the upstream.
func IsClientError(err error) bool {
	return errors.Is(err, apperrors.ErrInvalidTicker) || errors.Is(err, apperrors.ErrNoData)
}
