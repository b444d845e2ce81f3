package stream

import (
	"testing"

	"casino-monitor/src/models"
)

func intPtr(n int) *int { return &n }

func TestRoundStoreCrashLifecycle(t *testing.T) {
	s := NewRoundStore(models.GameAviator)

	s.ApplyTick(&models.MLiveTick{Value: 2.0})
	s.ApplyTick(&models.MLiveTick{Value: 0.0})
	if got := s.Get(); got.LiveValue != 0 || got.Phase != models.PhaseUnknown {
		t.Fatalf("after ticks = %+v, want live 0 and no phase", got)
	}

	entry := s.ApplySnapshot(&models.MRoundSnapshot{RoundID: "r1", Phase: models.PhaseEnded, MaxMultiplier: 2.0, HasMaxMultiplier: true})
	if entry == nil {
		t.Fatal("ApplySnapshot(Ended) = nil, want entry")
	}
	if entry.RoundID != "r1" || entry.MaxMultiplier != 2.0 {
		t.Errorf("entry = %+v", entry)
	}
	if again := s.ApplySnapshot(&models.MRoundSnapshot{RoundID: "r1", Phase: models.PhaseEnded, MaxMultiplier: 2.0, HasMaxMultiplier: true}); again != nil {
		t.Errorf("repeated Ended = %+v, want nil", again)
	}

	s.ApplyTick(&models.MLiveTick{Value: 3.1})
	s.ApplySnapshot(&models.MRoundSnapshot{RoundID: "r2", Phase: models.PhaseBetting})
	got := s.Get()
	if got.LiveValue != 0 || got.MaxMultiplier != 0 || got.Phase != models.PhaseBetting || got.RoundID != "r2" {
		t.Errorf("after Betting = %+v", got)
	}
	if late := s.ApplySnapshot(&models.MRoundSnapshot{RoundID: "r1", Phase: models.PhaseEnded, MaxMultiplier: 2.0, HasMaxMultiplier: true}); late != nil {
		t.Errorf("late Ended for r1 = %+v, want nil", late)
	}
}

func TestRoundStoreTickKeepsPhase(t *testing.T) {
	s := NewRoundStore(models.GameSpaceman)
	s.ApplySnapshot(&models.MRoundSnapshot{RoundID: "r1", Phase: models.PhaseRunning})
	s.ApplyTick(&models.MLiveTick{Value: 1.7})
	got := s.Get()
	if got.Phase != models.PhaseRunning || got.LiveValue != 1.7 {
		t.Errorf("Get() = %+v, want Running at 1.7", got)
	}
}

func TestRoundStoreWaitsForFinalValue(t *testing.T) {
	s := NewRoundStore(models.GameAviator)
	if e := s.ApplySnapshot(&models.MRoundSnapshot{RoundID: "r1", Phase: models.PhaseEnded}); e != nil {
		t.Fatalf("Ended without max = %+v, want nil", e)
	}
	e := s.ApplySnapshot(&models.MRoundSnapshot{RoundID: "r1", Phase: models.PhaseEnded, MaxMultiplier: 1.3, HasMaxMultiplier: true})
	if e == nil || e.MaxMultiplier != 1.3 {
		t.Errorf("Ended with max = %+v, want 1.3", e)
	}
}

func TestRoundStoreAggregatesMerge(t *testing.T) {
	s := NewRoundStore(models.GameAviator)
	agg := models.MRoundAggregates{OnlinePlayers: 10, BetsCount: 4, TotalBetAmount: 100, TotalCashout: 60, CasinoProfit: 40}
	s.ApplySnapshot(&models.MRoundSnapshot{RoundID: "r1", Phase: models.PhaseRunning, Aggregates: agg, HasAggregates: true})
	s.ApplySnapshot(&models.MRoundSnapshot{RoundID: "r1", LiveValue: 1.5, HasLiveValue: true})
	e := s.ApplySnapshot(&models.MRoundSnapshot{RoundID: "r1", Phase: models.PhaseEnded, MaxMultiplier: 1.9, HasMaxMultiplier: true})
	if e == nil {
		t.Fatal("no entry")
	}
	if e.TotalBetAmount != 100 || e.CasinoProfit != 40 || e.OnlinePlayers != 10 {
		t.Errorf("entry aggregates = %+v", e)
	}
}

func TestRoundStoreRoulette(t *testing.T) {
	s := NewRoundStore(models.GameRoulette)
	s.ApplySnapshot(&models.MRoundSnapshot{RoundID: "s1", Phase: models.PhaseSpinning})
	s.ApplyTick(&models.MLiveTick{Value: 0, Number: intPtr(0), Color: models.ColorGreen})
	if got := s.Get(); got.Phase != models.PhaseSpinning || got.Number == nil || *got.Number != 0 {
		t.Fatalf("after tick = %+v", got)
	}

	e := s.ApplySnapshot(&models.MRoundSnapshot{RoundID: "s1", Phase: models.PhaseSettled, Number: intPtr(0)})
	if e == nil {
		t.Fatal("Settled with 0 = nil, want entry")
	}
	if e.Number != 0 || e.Color != models.ColorGreen {
		t.Errorf("entry = %+v, want 0 green", e)
	}

	if e := s.ApplySnapshot(&models.MRoundSnapshot{RoundID: "s2", Phase: models.PhaseSettled}); e != nil {
		t.Errorf("Settled without number = %+v, want nil", e)
	}
}
