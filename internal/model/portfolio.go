package model

import "encoding/json"

// ControllerState is the load state of a portfolio session.
type ControllerState string

// Load states.
const (
	StateIdle       ControllerState = "idle"
	StateLoading    ControllerState = "loading"
	StateLoaded     ControllerState = "loaded"
	StateLoadFailed ControllerState = "load_failed"
)

// PriceFetchState is the state of the most recent price refresh batch.
type PriceFetchState string

// Price refresh states.
const (
	PricesIdle            PriceFetchState = "idle"
	PricesLoading         PriceFetchState = "loading"
	PricesLoaded          PriceFetchState = "loaded"
	PricesPartiallyFailed PriceFetchState = "partially_failed"
)

// RateFetchState is the state of the exchange-rate fetch for a session.
type RateFetchState string

// Rate fetch states.
const (
	RatesIdle    RateFetchState = "idle"
	RatesLoading RateFetchState = "loading"
	RatesLoaded  RateFetchState = "loaded"
	RatesFailed  RateFetchState = "failed"
)

// PortfolioTotals aggregates a holding set. All fields are USD except
// Percentage, which is derived from the summed profit/loss and invested amount.
type PortfolioTotals struct {
	Invested   float64 `json:"invested"`
	Current    float64 `json:"current"`
	ProfitLoss float64 `json:"profitLoss"`
	Percentage float64 `json:"percentage"`
}

// DisplayAmount is a USD value converted for presentation.
// When the needed exchange rate is not loaded, Pending is true and Amount is empty.
type DisplayAmount struct {
	Currency string  `json:"currency"`
	Symbol   string  `json:"symbol"`
	Value    float64 `json:"-"`
	Amount   string  `json:"amount,omitempty"`
	Pending  bool    `json:"pending"`
}

// HoldingDisplay holds the display amounts of one holding row.
// CurrentPrice is nil while the holding has no resolved price.
type HoldingDisplay struct {
	BuyPrice     DisplayAmount  `json:"buyPrice"`
	CurrentPrice *DisplayAmount `json:"currentPrice,omitempty"`
	Invested     DisplayAmount  `json:"invested"`
	Current      DisplayAmount  `json:"current"`
	ProfitLoss   DisplayAmount  `json:"profitLoss"`
}

// HoldingView is a holding as presented to a client.
type HoldingView struct {
	Holding   Holding
	Valuation HoldingValuation
	Display   HoldingDisplay
}

// MarshalJSON flattens the holding and encodes its tri-state current price:
// omitted while unfetched, null when the lookup failed, a number otherwise.
func (v HoldingView) MarshalJSON() ([]byte, error) {
	type holdingJSON struct {
		Holding
		CurrentPrice *Price           `json:"currentPrice,omitempty"`
		PriceError   string           `json:"priceError,omitempty"`
		Valuation    HoldingValuation `json:"valuation"`
		Display      HoldingDisplay   `json:"display"`
	}

	out := holdingJSON{
		Holding:   v.Holding,
		Valuation: v.Valuation,
		Display:   v.Display,
	}
	if v.Holding.CurrentPrice.State != PriceUnfetched {
		price := v.Holding.CurrentPrice
		out.CurrentPrice = &price
		out.PriceError = price.Err
	}
	return json.Marshal(out)
}

// TotalsDisplay holds the display amounts of the portfolio totals.
type TotalsDisplay struct {
	Invested   DisplayAmount `json:"invested"`
	Current    DisplayAmount `json:"current"`
	ProfitLoss DisplayAmount `json:"profitLoss"`
	Percentage string        `json:"percentage"`
}

// PortfolioView is an immutable snapshot of a portfolio session.
type PortfolioView struct {
	State         ControllerState `json:"state"`
	PriceState    PriceFetchState `json:"priceState"`
	RateState     RateFetchState  `json:"rateState"`
	Currency      string          `json:"currency"`
	Holdings      []HoldingView   `json:"holdings"`
	Totals        PortfolioTotals `json:"totals"`
	DisplayTotals TotalsDisplay   `json:"displayTotals"`
	Rates         RateSet         `json:"rates,omitempty"`
	Error         string          `json:"error,omitempty"`
}
