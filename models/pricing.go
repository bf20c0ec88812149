package models

// PriceBreakdown shows how a quote was derived.
type PriceBreakdown struct {
	BasePrice          float64 `json:"basePrice"`
	DurationMultiplier float64 `json:"durationMultiplier"`
	ModeMultiplier     float64 `json:"modeMultiplier"`
}

// PriceQuote is the computed price of a consultation. It is a value object
// and is never cached.
type PriceQuote struct {
	Amount    int64          `json:"amount"`
	Currency  string         `json:"currency"`
	Breakdown PriceBreakdown `json:"breakdown"`
}
