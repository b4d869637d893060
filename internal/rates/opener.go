package rates

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

// DefaultOpenERURL is the free open.er-api.com endpoint for USD-based rates.
const DefaultOpenERURL = "https://open.er-api.com/v6/latest/USD"

// OpenERClient fetches rates directly from open.er-api.com.
type OpenERClient struct {
	url        string
	httpClient *http.Client
}

type openERResponse struct {
	Result   string             `json:"result"`
	BaseCode string             `json:"base_code"`
	Rates    map[string]float64 `json:"rates"`
}

// NewOpenERClient creates a client. An empty url selects DefaultOpenERURL.
func NewOpenERClient(url string, timeout time.Duration) *OpenERClient {
	if url == "" {
		url = DefaultOpenERURL
	}
	return &OpenERClient{url: url, httpClient: &http.Client{Timeout: timeout}}
}

// FetchRates requests the latest USD rates. Anything but result "success" is a failure.
func (c *OpenERClient) FetchRates(ctx context.Context) (model.RateSet, error) {
	var resp openERResponse
	if err := getJSON(ctx, c.httpClient, c.url, &resp); err != nil {
		return nil, err
	}
	if resp.Result != "success" {
		return nil, fmt.Errorf("%w: exchange rate api result %q", apperrors.ErrUpstreamUnavailable, resp.Result)
	}
	return extract(resp.Rates)
}
