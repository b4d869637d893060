package request

// AddHoldingRequest is the request body for adding a stock to the portfolio.
// Quantity and BuyPrice are pointers so a missing field can be told apart from zero.
type AddHoldingRequest struct {
	Ticker   string   `json:"ticker"`   // Ticker is the stock symbol as entered; it is sanitized server-side.
	Quantity *float64 `json:"quantity"` // Quantity is the number of shares. Must be > 0.
	BuyPrice *float64 `json:"buyPrice"` // BuyPrice is the price per share in Currency. Must be > 0.
	Currency string   `json:"currency"` // Currency is the currency BuyPrice was entered in. Defaults to USD.
}
