// Package quote resolves current prices for tickers.
//
// Every implementation satisfies Client. HTTPClient talks to a remote price lookup
// endpoint, YahooSource queries Yahoo Finance in-process and CachedClient decorates
// either with a quote cache. FetchAll fans a batch of tickers out over a Client.
package quote

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

// MaxTickerLength is the longest ticker accepted after sanitization.
const MaxTickerLength = 10

var tickerStrip = regexp.MustCompile(`[^a-zA-Z0-9.]`)

// Client resolves the current price of a single ticker.
type Client interface {
	FetchPrice(ctx context.Context, ticker string) (model.Quote, error)
}

// Sanitize strips every character outside [A-Za-z0-9.] and uppercases the rest.
// The result must be between 1 and MaxTickerLength characters.
func Sanitize(ticker string) (string, error) {
	clean := strings.ToUpper(tickerStrip.ReplaceAllString(ticker, ""))
	if clean == "" {
		return "", fmt.Errorf("%w: ticker is required", apperrors.ErrInvalidTicker)
	}
	if len(clean) > MaxTickerLength {
		return "", fmt.Errorf("%w: ticker %q exceeds %d characters", apperrors.ErrInvalidTicker, clean, MaxTickerLength)
	}
	return clean, nil
}
