package valuation

import (
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

// HoldingView values h and converts every figure into currency.
func HoldingView(h model.Holding, currency string, rates model.RateSet) model.HoldingView {
	v := ValueHolding(h)
	display := model.HoldingDisplay{
		BuyPrice:   ToDisplay(h.BuyPrice, currency, rates),
		Invested:   ToDisplay(v.Invested, currency, rates),
		Current:    ToDisplay(v.Current, currency, rates),
		ProfitLoss: ToDisplay(v.ProfitLoss, currency, rates),
	}
	if h.CurrentPrice.Resolved() {
		price := ToDisplay(h.CurrentPrice.Value, currency, rates)
		display.CurrentPrice = &price
	}
	return model.HoldingView{
		Holding:   h,
		Valuation: v,
		Display:   display,
	}
}

// TotalsView converts portfolio totals into currency. The percentage does not
// depend on the rate and is always available.
func TotalsView(totals model.PortfolioTotals, currency string, rates model.RateSet) model.TotalsDisplay {
	return model.TotalsDisplay{
		Invested:   ToDisplay(totals.Invested, currency, rates),
		Current:    ToDisplay(totals.Current, currency, rates),
		ProfitLoss: ToDisplay(totals.ProfitLoss, currency, rates),
		Percentage: FormatAmount(totals.Percentage),
	}
}
