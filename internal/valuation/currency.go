package valuation

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

// DisplayPrecision is the number of decimals shown for display amounts.
const DisplayPrecision = 2

// FromUSD converts a USD value into currency. It reports false when the rate
// for currency is not loaded.
func FromUSD(usd float64, currency string, rates model.RateSet) (float64, bool) {
	rate, ok := rates.Rate(currency)
	if !ok {
		return 0, false
	}
	return usd * rate, true
}

// ToUSD converts an amount entered in currency into USD.
// It fails with ErrRatesNotReady when the rate is not available.
func ToUSD(entered float64, currency string, rates model.RateSet) (float64, error) {
	rate, ok := rates.Rate(currency)
	if !ok {
		return 0, fmt.Errorf("%w: no rate for %s", apperrors.ErrRatesNotReady, strings.ToUpper(currency))
	}
	return entered / rate, nil
}

// ToDisplay converts a USD value for presentation in currency.
// A missing rate yields a pending amount, never a value converted at 1.
func ToDisplay(usd float64, currency string, rates model.RateSet) model.DisplayAmount {
	currency = strings.ToUpper(currency)
	d := model.DisplayAmount{
		Currency: currency,
		Symbol:   Symbol(currency),
	}
	value, ok := FromUSD(usd, currency, rates)
	if !ok {
		d.Pending = true
		return d
	}
	d.Value = value
	d.Amount = FormatAmount(value)
	return d
}

// FormatAmount renders v with DisplayPrecision fixed decimals, e.g. "83000.00".
func FormatAmount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(DisplayPrecision)
}

// Symbol returns the currency grapheme ("$", "₹", "€", "₩"), or the code
// itself for currencies go-money does not know.
func Symbol(currency string) string {
	c := money.GetCurrency(strings.ToUpper(currency))
	if c == nil || c.Grapheme == "" {
		return strings.ToUpper(currency)
	}
	return c.Grapheme
}
