package core

import (
	"math"

	"casino-monitor/src/models"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// -----------------------------------------------------------------------------

// Sanitize maps NaN and infinities to zero.
func Sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// -----------------------------------------------------------------------------

// CalculateMeanStd computes mean and population standard deviation.
func CalculateMeanStd(data []float64) (float64, float64) {
	if len(data) == 0 {
		return 0, 0
	}
	if len(data) == 1 {
		return data[0], 0
	}
	mean, std := stat.PopMeanStdDev(data, nil)
	return Sanitize(mean), Sanitize(std)
}

// -----------------------------------------------------------------------------

// CumulativeWalk maps each value to +1 when it is strictly above threshold and
// -1 otherwise, then returns the running sum.
func CumulativeWalk(values []float64, threshold float64) []float64 {
	walk := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		if Sanitize(v) > threshold {
			sum++
		} else {
			sum--
		}
		walk[i] = sum
	}
	return walk
}

// -----------------------------------------------------------------------------

// CalculateEMA seeds with the simple mean of the first period samples and
// then applies k = 2/(period+1). The result has len(series)-period+1 points
// aligned to the tail of series, or is empty when series is too short.
func CalculateEMA(series []float64, period int) []float64 {
	if period <= 0 || len(series) < period {
		return []float64{}
	}

	k := 2.0 / float64(period+1)
	out := make([]float64, 0, len(series)-period+1)

	prev := floats.Sum(series[:period]) / float64(period)
	out = append(out, prev)
	for _, v := range series[period:] {
		prev = v*k + prev*(1-k)
		out = append(out, prev)
	}
	return out
}

// -----------------------------------------------------------------------------

// CalculateBands returns rolling mean +/- width*population std over period
// samples, aligned to the tail of series. Nil when series is too short.
func CalculateBands(series []float64, period int, width float64) *models.MBands {
	if period <= 0 || len(series) < period {
		return nil
	}

	n := len(series) - period + 1
	bands := &models.MBands{
		Middle: make([]float64, n),
		Upper:  make([]float64, n),
		Lower:  make([]float64, n),
	}
	for i := 0; i < n; i++ {
		mean, std := CalculateMeanStd(series[i : i+period])
		bands.Middle[i] = mean
		bands.Upper[i] = mean + width*std
		bands.Lower[i] = mean - width*std
	}
	return bands
}

// -----------------------------------------------------------------------------

// CalculateLevels returns the min and max of the last lookback points. Nil
// for an empty series.
func CalculateLevels(series []float64, lookback int) *models.MLevels {
	if len(series) == 0 || lookback <= 0 {
		return nil
	}
	window := series
	if len(window) > lookback {
		window = window[len(window)-lookback:]
	}
	return &models.MLevels{
		Support:    floats.Min(window),
		Resistance: floats.Max(window),
	}
}

// -----------------------------------------------------------------------------

// IsAboveEMA reports whether each of the last two walk points is strictly
// above the matching EMA point. Both series end at the same sample.
func IsAboveEMA(walk, ema []float64) bool {
	if len(walk) < 2 || len(ema) < 2 {
		return false
	}
	w, e := len(walk), len(ema)
	return walk[w-1] > ema[e-1] && walk[w-2] > ema[e-2]
}

// -----------------------------------------------------------------------------

// Percent rounds count/total*100 half up; zero total gives zero.
func Percent(count, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Floor(float64(count)/float64(total)*100 + 0.5))
}
