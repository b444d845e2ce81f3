package models

const (
	ColorRed   = "red"
	ColorBlack = "black"
	ColorGreen = "green"
)

var redNumbers = map[int]bool{
	1: true, 3: true, 5: true, 7: true, 9: true, 12: true, 14: true, 16: true, 18: true,
	19: true, 21: true, 23: true, 25: true, 27: true, 30: true, 32: true, 34: true, 36: true,
}

// RouletteColor returns the pocket color of a single-zero wheel number, or ""
// when n is off the wheel.
func RouletteColor(n int) string {
	switch {
	case n == 0:
		return ColorGreen
	case n < 0 || n > 36:
		return ""
	case redNumbers[n]:
		return ColorRed
	default:
		return ColorBlack
	}
}
