// Package cache stores recently fetched quotes so repeated lookups within the
// cache window do not hit the upstream price source.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

// QuoteCache is a ticker-keyed quote store with per-entry expiry.
type QuoteCache interface {
	Get(ctx context.Context, ticker string) (model.Quote, bool, error)
	Set(ctx context.Context, ticker string, q model.Quote, ttl time.Duration) error
}

// MemoryQuoteCache is an in-process QuoteCache used when no Redis address is configured.
type MemoryQuoteCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	quote     model.Quote
	expiresAt time.Time
}

// NewMemoryQuoteCache returns an empty in-process cache.
func NewMemoryQuoteCache() *MemoryQuoteCache {
	return &MemoryQuoteCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryQuoteCache) Get(_ context.Context, ticker string) (model.Quote, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[ticker]
	if !ok {
		return model.Quote{}, false, nil
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, ticker)
		return model.Quote{}, false, nil
	}
	return e.quote, true, nil
}

func (c *MemoryQuoteCache) Set(_ context.Context, ticker string, q model.Quote, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[ticker] = memoryEntry{quote: q, expiresAt: c.now().Add(ttl)}
	return nil
}
