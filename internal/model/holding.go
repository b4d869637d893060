package model

import (
	"encoding/json"
	"time"
)

// PriceState describes how much is known about a holding's current market price.
type PriceState int

const (
	// PriceUnfetched means no price lookup has completed for the holding yet.
	PriceUnfetched PriceState = iota
	// PriceFailed means the last price lookup failed; Err carries the reason.
	PriceFailed
	// PriceResolved means Value holds the last fetched price in USD.
	PriceResolved
)

// Price is the tri-state current price of a holding.
type Price struct {
	State PriceState
	Value float64
	Err   string
}

// ResolvedPrice returns a Price holding a successfully fetched USD value.
func ResolvedPrice(value float64) Price {
	return Price{State: PriceResolved, Value: value}
}

// FailedPrice returns a Price marking a failed lookup.
func FailedPrice(err error) Price {
	p := Price{State: PriceFailed}
	if err != nil {
		p.Err = err.Error()
	}
	return p
}

// Resolved reports whether the price can contribute to valuations.
func (p Price) Resolved() bool {
	return p.State == PriceResolved
}

// MarshalJSON encodes a resolved price as a number and anything else as null.
// Unfetched prices are omitted entirely by the views that embed them.
func (p Price) MarshalJSON() ([]byte, error) {
	if p.State != PriceResolved {
		return []byte("null"), nil
	}
	return json.Marshal(p.Value)
}

// Holding represents one stock position in a user's portfolio.
// BuyPrice is always stored in USD, whatever currency the user entered it in.
type Holding struct {
	ID           string    `json:"id"`
	UserID       string    `json:"-"`
	Ticker       string    `json:"ticker"`
	Quantity     float64   `json:"quantity"`
	BuyPrice     float64   `json:"buyPrice"`
	CurrentPrice Price     `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewHolding carries the fields a caller supplies when creating a holding.
// ID and CreatedAt are assigned by the store.
type NewHolding struct {
	UserID   string
	Ticker   string
	Quantity float64
	BuyPrice float64
}

// HoldingValuation holds the USD figures derived from one holding.
// Priced is false while the current price is unfetched or failed, in which
// case Current is 0.
type HoldingValuation struct {
	Invested   float64 `json:"invested"`
	Current    float64 `json:"current"`
	ProfitLoss float64 `json:"profitLoss"`
	Percentage float64 `json:"percentage"`
	Priced     bool    `json:"priced"`
}
