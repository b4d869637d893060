package quote

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/cache"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

// DefaultCacheTTL matches the s-maxage the price proxy advertises.
const DefaultCacheTTL = 60 * time.Second

// CachedClient serves quotes from a cache and falls through to the wrapped Client on a miss.
// Only successful quotes are cached. A failing cache is logged and bypassed.
type CachedClient struct {
	next   Client
	cache  cache.QuoteCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedClient wraps next with c. A non-positive ttl selects DefaultCacheTTL.
func NewCachedClient(next Client, c cache.QuoteCache, ttl time.Duration, logger *zap.Logger) *CachedClient {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedClient{next: next, cache: c, ttl: ttl, logger: logger}
}

// FetchPrice returns the cached quote for ticker or fetches and caches a fresh one.
func (c *CachedClient) FetchPrice(ctx context.Context, ticker string) (model.Quote, error) {
	symbol, err := Sanitize(ticker)
	if err != nil {
		return model.Quote{}, err
	}

	cached, found, err := c.cache.Get(ctx, symbol)
	if err != nil {
		c.logger.Warn("quote cache read failed", zap.String("ticker", symbol), zap.Error(err))
	} else if found {
		return cached, nil
	}

	q, err := c.next.FetchPrice(ctx, symbol)
	if err != nil {
		return model.Quote{}, err
	}

	if err := c.cache.Set(ctx, symbol, q, c.ttl); err != nil {
		c.logger.Warn("quote cache write failed", zap.String("ticker", symbol), zap.Error(err))
	}
	return q, nil
}
