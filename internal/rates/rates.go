// Package rates fetches USD-based exchange rates for the supported display currencies.
// Each fetch is a single attempt; a failure leaves the caller without rates.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

// Client fetches the current USD-based rate set.
type Client interface {
	FetchRates(ctx context.Context) (model.RateSet, error)
}

// HTTPClient fetches rates from an exchange-rate endpoint that answers GET with
// {"USD":1,"INR":...,"EUR":...,"KRW":...}.
type HTTPClient struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPClient creates a client for endpoint.
func NewHTTPClient(endpoint string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{endpoint: endpoint, httpClient: &http.Client{Timeout: timeout}}
}

// FetchRates returns the rate set. Non-200 statuses, transport failures and
// missing or non-positive rates are ErrUpstreamUnavailable.
func (c *HTTPClient) FetchRates(ctx context.Context) (model.RateSet, error) {
	var raw map[string]float64
	if err := getJSON(ctx, c.httpClient, c.endpoint, &raw); err != nil {
		return nil, err
	}
	return extract(raw)
}

// extract keeps the supported currencies from raw and pins USD to 1.
func extract(raw map[string]float64) (model.RateSet, error) {
	set := model.RateSet{model.CurrencyUSD: 1}
	for _, cur := range model.SupportedCurrencies {
		if cur == model.CurrencyUSD {
			continue
		}
		rate, ok := raw[cur]
		if !ok || rate <= 0 {
			return nil, fmt.Errorf("%w: missing or invalid %s rate", apperrors.ErrUpstreamUnavailable, cur)
		}
		set[cur] = rate
	}
	return set, nil
}

func getJSON(ctx context.Context, client *http.Client, endpoint string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: rates endpoint returned status %d", apperrors.ErrUpstreamUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrUpstreamUnavailable, err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: invalid rates response: %v", apperrors.ErrUpstreamUnavailable, err)
	}
	return nil
}
