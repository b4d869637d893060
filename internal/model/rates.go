package model

import "strings"

// Supported display currencies.
const (
	CurrencyUSD = "USD"
	CurrencyINR = "INR"
	CurrencyEUR = "EUR"
	CurrencyKRW = "KRW"
)

// SupportedCurrencies lists the currencies a portfolio can be displayed and entered in.
var SupportedCurrencies = []string{CurrencyUSD, CurrencyINR, CurrencyEUR, CurrencyKRW}

// RateSet maps a currency code to the number of units of that currency one USD buys.
type RateSet map[string]float64

// Rate returns the conversion factor for currency. USD is always 1.
// A missing or non-positive rate reports false; callers must not substitute a default.
func (r RateSet) Rate(currency string) (float64, bool) {
	currency = strings.ToUpper(currency)
	if currency == CurrencyUSD {
		return 1, true
	}
	rate, ok := r[currency]
	if !ok || rate <= 0 {
		return 0, false
	}
	return rate, true
}

// Clone returns a copy that the caller may hand out without sharing the map.
func (r RateSet) Clone() RateSet {
	if r == nil {
		return nil
	}
	out := make(RateSet, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// IsSupportedCurrency reports whether currency is one of SupportedCurrencies.
func IsSupportedCurrency(currency string) bool {
	currency = strings.ToUpper(currency)
	for _, c := range SupportedCurrencies {
		if c == currency {
			return true
		}
	}
	return false
}
