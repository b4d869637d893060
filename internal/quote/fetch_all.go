package quote

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

// DefaultConcurrency bounds parallel lookups when FetchAll is given no limit.
const DefaultConcurrency = 8

// Result is the settled outcome for one ticker: either Quote or Err is meaningful.
type Result struct {
	Quote model.Quote
	Err   error
}

// FetchAll looks up every ticker concurrently and waits for all of them to settle.
// A failing ticker never aborts the batch. Duplicate tickers are fetched once.
// The returned map is keyed by the tickers as given.
func FetchAll(ctx context.Context, client Client, tickers []string, limit int) map[string]Result {
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	unique := make([]string, 0, len(tickers))
	seen := make(map[string]struct{}, len(tickers))
	for _, t := range tickers {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		unique = append(unique, t)
	}

	results := make([]Result, len(unique))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, ticker := range unique {
		g.Go(func() error {
			q, err := client.FetchPrice(ctx, ticker)
			results[i] = Result{Quote: q, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]Result, len(unique))
	for i, ticker := range unique {
		out[ticker] = results[i]
	}
	return out
}
