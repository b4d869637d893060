package testutil_test

import (
	"testing"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/quote"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/testutil"
)

// TestMakeTicker tests that generated tickers survive sanitization unchanged.
//
// WHY: HoldingBuilder defaults to MakeTicker. A ticker the price client would
// reject or rewrite breaks every test that prices a default holding.
func TestMakeTicker(t *testing.T) {
	seen := make(map[string]bool)
	for range 50 {
		ticker := testutil.MakeTicker()

		clean, err := quote.Sanitize(ticker)
		if err != nil {
			t.Fatalf("MakeTicker() = %q rejected: %v", ticker, err)
		}
		if clean != ticker {
			t.Errorf("MakeTicker() = %q, sanitized to %q", ticker, clean)
		}
		if len(ticker) > quote.MaxTickerLength {
			t.Errorf("MakeTicker() = %q exceeds %d characters", ticker, quote.MaxTickerLength)
		}
		seen[ticker] = true
	}
	if len(seen) < 2 {
		t.Error("Expected MakeTicker to vary between calls")
	}
}
