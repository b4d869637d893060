package quote

import (
	"context"
	"time"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/yahoo"
)

// YahooSource resolves quotes in-process from Yahoo Finance.
type YahooSource struct {
	yahoo yahoo.Client
	now   func() time.Time
}

// NewYahooSource creates a source over a Yahoo client.
func NewYahooSource(client yahoo.Client) *YahooSource {
	return &YahooSource{yahoo: client, now: time.Now}
}

// FetchPrice sanitizes ticker and returns Yahoo's regular market price for it.
func (s *YahooSource) FetchPrice(ctx context.Context, ticker string) (model.Quote, error) {
	symbol, err := Sanitize(ticker)
	if err != nil {
		return model.Quote{}, err
	}

	resp, err := s.yahoo.QueryQuote(ctx, symbol)
	if err != nil {
		return model.Quote{}, err
	}

	q, err := s.yahoo.ParseQuote(resp)
	if err != nil {
		return model.Quote{}, err
	}

	return model.Quote{
		Ticker:    symbol,
		Price:     q.Price,
		Currency:  q.Currency,
		Timestamp: s.now().UTC(),
	}, nil
}
