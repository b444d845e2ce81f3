package core

import "casino-monitor/src/models"

// Multiplier histogram edges. Each bucket includes its upper edge; the last
// bucket is open ended. Values below 1.00 land in the first bucket.
var multiplierEdges = []struct {
	label string
	lower float64
	upper float64
}{
	{"1.00-1.50", 1.00, 1.50},
	{"1.51-2.00", 1.51, 2.00},
	{"2.01-3.00", 2.01, 3.00},
	{"3.01-5.00", 3.01, 5.00},
	{"5.01-10.00", 5.01, 10.00},
	{"10.01+", 10.01, 0},
}

// MultiplierHistogram counts finalized multipliers per bucket.
func MultiplierHistogram(values []float64) []models.MHistogramBucket {
	buckets := make([]models.MHistogramBucket, len(multiplierEdges))
	for i, e := range multiplierEdges {
		buckets[i] = models.MHistogramBucket{Label: e.label, Lower: e.lower, Upper: e.upper}
	}

	last := len(buckets) - 1
	for _, raw := range values {
		v := Sanitize(raw)
		idx := last
		for i := 0; i < last; i++ {
			if v <= multiplierEdges[i].upper {
				idx = i
				break
			}
		}
		buckets[idx].Count++
	}

	for i := range buckets {
		buckets[i].Percent = Percent(buckets[i].Count, len(values))
	}
	return buckets
}
