package core

import (
	"casino-monitor/src/models"

	"github.com/shopspring/decimal"
)

// MoneyTotals sums round amounts in decimal so long ledgers do not drift.
// House edge is profit over total bet, in percent.
func MoneyTotals(entries []models.MHistoryEntry) *models.MMoneyTotals {
	bet, cashout, profit := decimal.Zero, decimal.Zero, decimal.Zero
	for _, e := range entries {
		bet = bet.Add(decimal.NewFromFloat(Sanitize(e.TotalBetAmount)))
		cashout = cashout.Add(decimal.NewFromFloat(Sanitize(e.TotalCashout)))
		profit = profit.Add(decimal.NewFromFloat(Sanitize(e.CasinoProfit)))
	}

	edge := 0.0
	if bet.IsPositive() {
		edge, _ = profit.Div(bet).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	}

	return &models.MMoneyTotals{
		TotalBetAmount: bet.StringFixed(2),
		TotalCashout:   cashout.StringFixed(2),
		CasinoProfit:   profit.StringFixed(2),
		HouseEdgePct:   edge,
	}
}
