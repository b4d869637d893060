package validation

import (
	"strings"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/request"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

// User-facing messages for the add-stock form.
const (
	MsgFillAllFields       = "Please fill in all fields"
	MsgPositiveAmounts     = "Quantity and buy price must be greater than 0"
	MsgUnsupportedCurrency = "Unsupported currency"
)

// ValidateAddHolding checks an add-stock request before any network call.
// Checks run in order: required fields, positive amounts, supported currency.
// It returns the normalised currency code, defaulting to USD.
func ValidateAddHolding(req request.AddHoldingRequest) (string, error) {
	if strings.TrimSpace(req.Ticker) == "" || req.Quantity == nil || req.BuyPrice == nil {
		return "", apperrors.NewValidationError("form", MsgFillAllFields)
	}

	if *req.Quantity <= 0 || *req.BuyPrice <= 0 {
		return "", apperrors.NewValidationError("form", MsgPositiveAmounts)
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = model.CurrencyUSD
	}
	if !model.IsSupportedCurrency(currency) {
		return "", apperrors.NewValidationError("currency", MsgUnsupportedCurrency+": "+currency)
	}

	return currency, nil
}

// ValidateCurrency normalises a display currency, defaulting to USD.
func ValidateCurrency(currency string) (string, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return model.CurrencyUSD, nil
	}
	if !model.IsSupportedCurrency(currency) {
		return "", apperrors.NewValidationError("currency", MsgUnsupportedCurrency+": "+currency)
	}
	return currency, nil
}
