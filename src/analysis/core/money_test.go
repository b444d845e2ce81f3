package core

import (
	"testing"

	"casino-monitor/src/models"
)

func TestMoneyTotals(t *testing.T) {
	entries := []models.MHistoryEntry{
		{TotalBetAmount: 0.1, TotalCashout: 0.05, CasinoProfit: 0.05},
		{TotalBetAmount: 0.2, TotalCashout: 0.1, CasinoProfit: 0.1},
	}
	got := MoneyTotals(entries)
	if got.TotalBetAmount != "0.30" || got.TotalCashout != "0.15" || got.CasinoProfit != "0.15" {
		t.Errorf("MoneyTotals() = %+v", got)
	}
	if got.HouseEdgePct != 50 {
		t.Errorf("HouseEdgePct = %v, want 50", got.HouseEdgePct)
	}
}

func TestMoneyTotalsEmpty(t *testing.T) {
	got := MoneyTotals(nil)
	if got.TotalBetAmount != "0.00" || got.HouseEdgePct != 0 {
		t.Errorf("MoneyTotals(nil) = %+v", got)
	}
}
