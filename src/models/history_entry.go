package models

import "time"

// MHistoryEntry is an immutable record of a finalized round.
type MHistoryEntry struct {
	ID             string    `json:"id"`
	RoundID        string    `json:"roundId"`
	MaxMultiplier  float64   `json:"maxMultiplier"`
	Number         int       `json:"number"`
	Color          string    `json:"color,omitempty"`
	TotalBetAmount float64   `json:"totalBetAmount"`
	TotalCashout   float64   `json:"totalCashout"`
	CasinoProfit   float64   `json:"casinoProfit"`
	BetsCount      int       `json:"betsCount"`
	OnlinePlayers  int       `json:"onlinePlayers"`
	CreatedAt      time.Time `json:"createdAt"`
}

// MFinalizedRound pairs a new ledger entry with the subscription it belongs
// to, for archive and fan-out.
type MFinalizedRound struct {
	Subscription MSubscription `json:"subscription"`
	Entry        MHistoryEntry `json:"entry"`
}
