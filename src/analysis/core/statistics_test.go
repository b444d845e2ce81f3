package core

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCalculateMeanStd(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		mean float64
		std  float64
	}{
		{"empty", nil, 0, 0},
		{"single", []float64{4}, 4, 0},
		{"population", []float64{2, 4, 4, 4, 5, 5, 7, 9}, 5, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, s := CalculateMeanStd(tt.in)
			if !almostEqual(m, tt.mean) || !almostEqual(s, tt.std) {
				t.Errorf("CalculateMeanStd() = %v, %v, want %v, %v", m, s, tt.mean, tt.std)
			}
		})
	}
}

func TestCumulativeWalk(t *testing.T) {
	got := CumulativeWalk([]float64{1.5, 2.01, 2.02, 10, math.NaN(), 3}, 2.01)
	want := []float64{-1, -2, -1, 0, -1, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("CumulativeWalk() = %v, want %v", got, want)
		}
	}
}

func TestCalculateEMA(t *testing.T) {
	if got := CalculateEMA(make([]float64, 19), 20); len(got) != 0 {
		t.Errorf("CalculateEMA(19 samples, 20) len = %d, want 0", len(got))
	}

	series := make([]float64, 22)
	for i := range series {
		series[i] = float64(i + 1)
	}
	got := CalculateEMA(series, 20)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	// SMA of 1..20 is 10.5, k = 2/21
	k := 2.0 / 21.0
	want1 := 21*k + 10.5*(1-k)
	want2 := 22*k + want1*(1-k)
	if !almostEqual(got[0], 10.5) || !almostEqual(got[1], want1) || !almostEqual(got[2], want2) {
		t.Errorf("CalculateEMA() = %v, want [10.5 %v %v]", got, want1, want2)
	}
}

func TestCalculateBands(t *testing.T) {
	if CalculateBands([]float64{1, 2}, 3, 2) != nil {
		t.Error("CalculateBands(short) != nil")
	}
	b := CalculateBands([]float64{2, 4, 4, 4, 5, 5, 7, 9, 1}, 8, 2)
	if b == nil || len(b.Middle) != 2 {
		t.Fatalf("CalculateBands() = %+v, want 2 points", b)
	}
	if !almostEqual(b.Middle[0], 5) || !almostEqual(b.Upper[0], 9) || !almostEqual(b.Lower[0], 1) {
		t.Errorf("first band = %v/%v/%v, want 5/9/1", b.Middle[0], b.Upper[0], b.Lower[0])
	}
	for i := range b.Middle {
		if b.Upper[i] < b.Middle[i] || b.Lower[i] > b.Middle[i] {
			t.Errorf("band %d not ordered: %v %v %v", i, b.Lower[i], b.Middle[i], b.Upper[i])
		}
	}
}

func TestCalculateLevels(t *testing.T) {
	if CalculateLevels(nil, 40) != nil {
		t.Error("CalculateLevels(nil) != nil")
	}
	series := make([]float64, 60)
	for i := range series {
		series[i] = float64(i)
	}
	series[5] = -100 // outside the lookback
	lv := CalculateLevels(series, 40)
	if lv.Support != 20 || lv.Resistance != 59 {
		t.Errorf("CalculateLevels() = %+v, want 20/59", lv)
	}
}

func TestIsAboveEMA(t *testing.T) {
	tests := []struct {
		name string
		walk []float64
		ema  []float64
		want bool
	}{
		{"both above", []float64{0, 3, 4}, []float64{2, 3}, true},
		{"one equal", []float64{0, 3, 4}, []float64{3, 3}, false},
		{"last below", []float64{5, 1}, []float64{0, 2}, false},
		{"short ema", []float64{5, 6}, []float64{1}, false},
	}
	for _, tt := range tests {
		if got := IsAboveEMA(tt.walk, tt.ema); got != tt.want {
			t.Errorf("%s: IsAboveEMA() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestPercent(t *testing.T) {
	tests := []struct{ c, total, want int }{
		{0, 0, 0}, {1, 3, 33}, {2, 3, 67}, {1, 2, 50}, {1, 8, 13}, {3, 3, 100},
	}
	for _, tt := range tests {
		if got := Percent(tt.c, tt.total); got != tt.want {
			t.Errorf("Percent(%d, %d) = %d, want %d", tt.c, tt.total, got, tt.want)
		}
	}
}
