package models

import "time"

// RoundPhase is the lifecycle position of the current round.
type RoundPhase string

const (
	PhaseUnknown  RoundPhase = ""
	PhaseBetting  RoundPhase = "Betting"
	PhaseRunning  RoundPhase = "Running"
	PhaseEnded    RoundPhase = "Ended"
	PhaseSpinning RoundPhase = "Spinning"
	PhaseSettled  RoundPhase = "Settled"
)

// IsTerminal reports whether the phase closes a round.
func (p RoundPhase) IsTerminal() bool {
	return p == PhaseEnded || p == PhaseSettled
}

// IsOpening reports whether the phase starts a new round.
func (p RoundPhase) IsOpening() bool {
	return p == PhaseBetting || p == PhaseSpinning
}

// MRoundAggregates are the per-round totals reported by the server.
type MRoundAggregates struct {
	OnlinePlayers  int     `json:"onlinePlayers"`
	BetsCount      int     `json:"betsCount"`
	TotalBetAmount float64 `json:"totalBetAmount"`
	TotalCashout   float64 `json:"totalCashout"`
	CasinoProfit   float64 `json:"casinoProfit"`
}

// MRoundState is the merged view of the round in progress.
type MRoundState struct {
	RoundID       string           `json:"roundId"`
	Phase         RoundPhase       `json:"phase"`
	LiveValue     float64          `json:"liveValue"`
	MaxMultiplier float64          `json:"maxMultiplier"`
	Number        *int             `json:"number,omitempty"`
	Color         string           `json:"color,omitempty"`
	Aggregates    MRoundAggregates `json:"aggregates"`
	LastUpdate    time.Time        `json:"lastUpdate"`
}
