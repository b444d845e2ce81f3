// Package stream reconciles live feed events into per-subscription state.
package stream

import (
	"sync"
	"time"

	"casino-monitor/src/models"
)

// RoundStore holds the round in progress for one subscription. It is the
// only producer of finalized history entries.
type RoundStore struct {
	mu            sync.RWMutex
	game          models.GameKind
	state         *models.MRoundState
	lastFinalized string
	now           func() time.Time
}

func NewRoundStore(game models.GameKind) *RoundStore {
	return &RoundStore{game: game, now: time.Now}
}

// Get returns a copy of the current round, or nil before the first update.
func (s *RoundStore) Get() *models.MRoundState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return nil
	}
	cp := *s.state
	if s.state.Number != nil {
		n := *s.state.Number
		cp.Number = &n
	}
	return &cp
}

// Reset forgets the round, e.g. after the subscription is closed.
func (s *RoundStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = nil
	s.lastFinalized = ""
}

// -----------------------------------------------------------------------------

// ApplyTick merges an in-flight value. Ticks never move the phase.
func (s *RoundStore) ApplyTick(t *models.MLiveTick) {
	if t == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.ensure()
	st.LiveValue = t.Value
	if s.game == models.GameRoulette && t.Number != nil {
		n := *t.Number
		st.Number = &n
		st.Color = t.Color
	}
	st.LastUpdate = s.now()
}

// ApplySnapshot merges a round update and returns the history entry when the
// update closes a round that has not been recorded yet.
func (s *RoundStore) ApplySnapshot(snap *models.MRoundSnapshot) *models.MHistoryEntry {
	if snap == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.ensure()
	newRound := snap.RoundID != "" && snap.RoundID != st.RoundID
	reopened := snap.Phase.IsOpening() && !st.Phase.IsOpening()
	if newRound || reopened {
		st.LiveValue = 0
		st.MaxMultiplier = 0
		st.Number = nil
		st.Color = ""
		if newRound {
			st.Aggregates = models.MRoundAggregates{}
		}
	}

	if snap.RoundID != "" {
		st.RoundID = snap.RoundID
	}
	if snap.HasAggregates {
		st.Aggregates = snap.Aggregates
	}
	if snap.HasMaxMultiplier {
		st.MaxMultiplier = snap.MaxMultiplier
	}
	if snap.HasLiveValue {
		st.LiveValue = snap.LiveValue
	}
	if snap.Number != nil {
		n := *snap.Number
		st.Number = &n
		st.Color = snap.Color
	}
	if snap.Phase != models.PhaseUnknown {
		st.Phase = snap.Phase
	}
	if st.Phase.IsOpening() {
		st.LiveValue = 0
	}
	st.LastUpdate = s.now()

	return s.finalize(st)
}

func (s *RoundStore) ensure() *models.MRoundState {
	if s.state == nil {
		s.state = &models.MRoundState{}
	}
	return s.state
}

// finalize emits at most one entry per round id, and only once the final
// value is known.
func (s *RoundStore) finalize(st *models.MRoundState) *models.MHistoryEntry {
	if !st.Phase.IsTerminal() || st.RoundID == "" || st.RoundID == s.lastFinalized {
		return nil
	}
	entry := &models.MHistoryEntry{
		ID:             st.RoundID,
		RoundID:        st.RoundID,
		TotalBetAmount: st.Aggregates.TotalBetAmount,
		TotalCashout:   st.Aggregates.TotalCashout,
		CasinoProfit:   st.Aggregates.CasinoProfit,
		BetsCount:      st.Aggregates.BetsCount,
		OnlinePlayers:  st.Aggregates.OnlinePlayers,
		CreatedAt:      st.LastUpdate,
	}
	if s.game == models.GameRoulette {
		if st.Number == nil {
			return nil
		}
		entry.Number = *st.Number
		entry.Color = st.Color
		if entry.Color == "" {
			entry.Color = models.RouletteColor(entry.Number)
		}
	} else {
		if st.MaxMultiplier <= 0 {
			return nil
		}
		entry.MaxMultiplier = st.MaxMultiplier
	}
	s.lastFinalized = st.RoundID
	return entry
}
