package utils

// ToMinorUnits converts a whole-rupee amount to paise, the unit payment
// providers charge in.
func ToMinorUnits(amount int64) int64 {
	return amount * 100
}
