package booking

import (
	"math"

	"samayog/models"
)

const (
	// BasePrice is the price of a one-hour consultation, in rupees.
	BasePrice = 1000
	// Currency of every quote.
	Currency = "INR"

	videoMultiplier   = 1.2
	defaultMultiplier = 1.0
)

// ModeMultiplier returns the price multiplier for a consultation mode.
func ModeMultiplier(mode models.ConsultationMode) float64 {
	if mode == models.ModeVideo {
		return videoMultiplier
	}
	return defaultMultiplier
}

// Quote prices a consultation. It is pure: the same input always yields the
// same quote, so it serves both the preview and the final booking amount.
// The service name does not affect the price.
func Quote(_ string, mode models.ConsultationMode, durationMinutes int) models.PriceQuote {
	durationMultiplier := float64(durationMinutes) / 60
	modeMultiplier := ModeMultiplier(mode)
	return models.PriceQuote{
		Amount:   int64(math.Round(BasePrice * durationMultiplier * modeMultiplier)),
		Currency: Currency,
		Breakdown: models.PriceBreakdown{
			BasePrice:          BasePrice,
			DurationMultiplier: durationMultiplier,
			ModeMultiplier:     modeMultiplier,
		},
	}
}
