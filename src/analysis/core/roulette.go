package core

import (
	"strings"

	"casino-monitor/src/models"
)

// Category keys used in MRouletteBreakdown maps.
const (
	KeyZero   = "zero"
	KeyFirst  = "first"
	KeySecond = "second"
	KeyThird  = "third"
	KeyLow    = "low"
	KeyHigh   = "high"
)

// Spin is one settled roulette result.
type Spin struct {
	Number int
	Color  string
}

// DozenOf returns first/second/third for 1-36 and zero for 0.
func DozenOf(n int) string {
	switch {
	case n == 0:
		return KeyZero
	case n >= 1 && n <= 12:
		return KeyFirst
	case n >= 13 && n <= 24:
		return KeySecond
	case n >= 25 && n <= 36:
		return KeyThird
	}
	return ""
}

// ColumnOf classifies by n mod 3: 1 first, 2 second, 0 third.
func ColumnOf(n int) string {
	switch {
	case n == 0:
		return KeyZero
	case n < 0 || n > 36:
		return ""
	case n%3 == 1:
		return KeyFirst
	case n%3 == 2:
		return KeySecond
	default:
		return KeyThird
	}
}

func RangeOf(n int) string {
	switch {
	case n == 0:
		return KeyZero
	case n >= 1 && n <= 18:
		return KeyLow
	case n >= 19 && n <= 36:
		return KeyHigh
	}
	return ""
}

// ColorOf trusts the reported color and falls back to the wheel layout.
func ColorOf(s Spin) string {
	switch c := strings.ToLower(strings.TrimSpace(s.Color)); c {
	case models.ColorRed, models.ColorBlack, models.ColorGreen:
		return c
	}
	return models.RouletteColor(s.Number)
}

// -----------------------------------------------------------------------------

// RouletteBreakdown computes category percentages over spins (oldest first).
// LastSeen counts spins since each dozen and column last hit, 0 meaning the
// latest spin and -1 meaning not present.
func RouletteBreakdown(spins []Spin) *models.MRouletteBreakdown {
	total := len(spins)
	colorCounts := map[string]int{models.ColorRed: 0, models.ColorBlack: 0, models.ColorGreen: 0}
	dozenCounts := map[string]int{KeyZero: 0, KeyFirst: 0, KeySecond: 0, KeyThird: 0}
	columnCounts := map[string]int{KeyZero: 0, KeyFirst: 0, KeySecond: 0, KeyThird: 0}
	rangeCounts := map[string]int{KeyZero: 0, KeyLow: 0, KeyHigh: 0}

	counts := make(map[string]int)
	lastSeen := map[string]int{
		"dozen." + KeyFirst: -1, "dozen." + KeySecond: -1, "dozen." + KeyThird: -1,
		"column." + KeyFirst: -1, "column." + KeySecond: -1, "column." + KeyThird: -1,
	}

	for i := total - 1; i >= 0; i-- {
		s := spins[i]
		age := total - 1 - i

		if c := ColorOf(s); c != "" {
			colorCounts[c]++
		}
		if d := DozenOf(s.Number); d != "" {
			dozenCounts[d]++
			if d != KeyZero && lastSeen["dozen."+d] < 0 {
				lastSeen["dozen."+d] = age
			}
		}
		if c := ColumnOf(s.Number); c != "" {
			columnCounts[c]++
			if c != KeyZero && lastSeen["column."+c] < 0 {
				lastSeen["column."+c] = age
			}
		}
		if r := RangeOf(s.Number); r != "" {
			rangeCounts[r]++
		}
	}

	toPercent := func(prefix string, m map[string]int) map[string]int {
		out := make(map[string]int, len(m))
		for k, v := range m {
			out[k] = Percent(v, total)
			counts[prefix+"."+k] = v
		}
		return out
	}

	return &models.MRouletteBreakdown{
		Total:    total,
		Colors:   toPercent("color", colorCounts),
		Dozens:   toPercent("dozen", dozenCounts),
		Columns:  toPercent("column", columnCounts),
		Ranges:   toPercent("range", rangeCounts),
		Counts:   counts,
		LastSeen: lastSeen,
	}
}
