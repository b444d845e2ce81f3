package models

// MBands are rolling mean +/- k standard deviations, aligned to the tail of
// the series they were computed from.
type MBands struct {
	Middle []float64 `json:"middle"`
	Upper  []float64 `json:"upper"`
	Lower  []float64 `json:"lower"`
}

// MLevels are support and resistance over the lookback window.
type MLevels struct {
	Support    float64 `json:"support"`
	Resistance float64 `json:"resistance"`
}

type MHistogramBucket struct {
	Label   string  `json:"label"`
	Lower   float64 `json:"lower"`
	Upper   float64 `json:"upper"`
	Count   int     `json:"count"`
	Percent int     `json:"percent"`
}

// MRouletteBreakdown holds rounded integer percentages for each category,
// with raw counts and spins since the category was last drawn.
type MRouletteBreakdown struct {
	Total    int            `json:"total"`
	Colors   map[string]int `json:"colors"`
	Dozens   map[string]int `json:"dozens"`
	Columns  map[string]int `json:"columns"`
	Ranges   map[string]int `json:"ranges"`
	Counts   map[string]int `json:"counts"`
	LastSeen map[string]int `json:"lastSeen"`
}

type MMoneyTotals struct {
	TotalBetAmount string  `json:"totalBetAmount"`
	TotalCashout   string  `json:"totalCashout"`
	CasinoProfit   string  `json:"casinoProfit"`
	HouseEdgePct   float64 `json:"houseEdgePct"`
}

// MDerivedStats is a pure projection of one ledger version.
type MDerivedStats struct {
	LedgerVersion uint64              `json:"ledgerVersion"`
	Samples       int                 `json:"samples"`
	Walk          []float64           `json:"walk,omitempty"`
	EMA           []float64           `json:"ema,omitempty"`
	Bands         *MBands             `json:"bands,omitempty"`
	Levels        *MLevels            `json:"levels,omitempty"`
	Bullish       bool                `json:"bullish"`
	Histogram     []MHistogramBucket  `json:"histogram,omitempty"`
	Roulette      *MRouletteBreakdown `json:"roulette,omitempty"`
	Money         *MMoneyTotals       `json:"money,omitempty"`
}
