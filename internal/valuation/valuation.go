// Package valuation computes invested amounts, current values and profit/loss
// for holdings and portfolios, and converts USD figures for display.
//
// Every function here is pure. Inputs and outputs are USD unless a currency is
// named explicitly.
package valuation

import (
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

// InvestedAmount returns quantity * buyPrice.
func InvestedAmount(quantity, buyPrice float64) float64 {
	return quantity * buyPrice
}

// CurrentValue returns quantity * currentPrice.
// Callers must leave holdings without a resolved price out of aggregates
// instead of passing a zero price.
func CurrentValue(quantity, currentPrice float64) float64 {
	return quantity * currentPrice
}

// ProfitLoss returns current - invested.
func ProfitLoss(current, invested float64) float64 {
	return current - invested
}

// ProfitLossPercentage returns profitLoss as a percentage of invested.
// It is 0 when invested is 0.
func ProfitLossPercentage(profitLoss, invested float64) float64 {
	if invested == 0 {
		return 0
	}
	return profitLoss / invested * 100
}

// ValueHolding derives the USD valuation of a single holding.
// A holding whose price is unfetched or failed has a current value of 0.
func ValueHolding(h model.Holding) model.HoldingValuation {
	v := model.HoldingValuation{
		Invested: InvestedAmount(h.Quantity, h.BuyPrice),
	}
	if h.CurrentPrice.Resolved() {
		v.Current = CurrentValue(h.Quantity, h.CurrentPrice.Value)
		v.Priced = true
	}
	v.ProfitLoss = ProfitLoss(v.Current, v.Invested)
	v.Percentage = ProfitLossPercentage(v.ProfitLoss, v.Invested)
	return v
}

// Aggregate sums invested and current value over holdings and derives the
// portfolio profit/loss and percentage from those sums.
func Aggregate(holdings []model.Holding) model.PortfolioTotals {
	var totals model.PortfolioTotals
	for _, h := range holdings {
		v := ValueHolding(h)
		totals.Invested += v.Invested
		totals.Current += v.Current
	}
	totals.ProfitLoss = ProfitLoss(totals.Current, totals.Invested)
	totals.Percentage = ProfitLossPercentage(totals.ProfitLoss, totals.Invested)
	return totals
}
