package yahoo

// Response represents the raw JSON response structure from the Yahoo Finance chart API.
// Only the fields needed to resolve a current quote are mapped.
//
// The structure includes:
//   - Chart.Result: Array of result objects (typically contains one element)
//   - Chart.Result[].Meta: Symbol metadata including the regular market price
//   - Chart.Error: Optional error object, set for unknown or delisted symbols
type Response struct {
	Chart Chart `json:"chart"`
}

// Chart is the top-level chart object of a Yahoo response.
type Chart struct {
	Result []Result `json:"result"`
	Error  *Error   `json:"error"`
}

// Result is a single symbol result.
type Result struct {
	Meta Meta `json:"meta"`
}

// Meta holds symbol metadata. RegularMarketPrice is nil when Yahoo has no price.
type Meta struct {
	Currency           string   `json:"currency"`
	Symbol             string   `json:"symbol"`
	ExchangeName       string   `json:"exchangeName"`
	FullExchangeName   string   `json:"fullExchangeName"`
	LongName           string   `json:"longName"`
	ShortName          string   `json:"shortName"`
	RegularMarketPrice *float64 `json:"regularMarketPrice"`
	RegularMarketTime  int64    `json:"regularMarketTime"`
}

// Error is the error object Yahoo returns, e.g. {"code":"Not Found","description":"..."}.
type Error struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Quote is the application's parsed view of a Yahoo chart response.
type Quote struct {
	Symbol       string
	Currency     string
	ExchangeName string
	LongName     string
	Price        float64
	MarketTime   int64
}
