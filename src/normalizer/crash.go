package normalizer

import (
	"math"
	"strings"

	"casino-monitor/src/models"
)

// crashPhase maps the feed's game_state strings. Unknown strings leave the
// phase unchanged.
func crashPhase(s string) models.RoundPhase {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bet", "betting", "waiting", "starting":
		return models.PhaseBetting
	case "run", "running", "flying", "fly", "in_progress":
		return models.PhaseRunning
	case "end", "ended", "crash", "crashed", "finished":
		return models.PhaseEnded
	}
	return models.PhaseUnknown
}

func crashTick(raw interface{}) *models.MCanonicalEvent {
	var v interface{}
	switch x := raw.(type) {
	case object:
		val, ok := lookup(x, "multiplier", "current_multiplier", "currentMultiplier", "value")
		if !ok {
			return nil
		}
		v = val
	default:
		v = x
	}
	f, ok := toFloat(v)
	if !ok {
		if _, isStr := v.(string); !isStr {
			return nil
		}
	}
	return &models.MCanonicalEvent{Kind: models.EventLiveTick, Tick: &models.MLiveTick{Value: f}}
}

// -----------------------------------------------------------------------------

func crashAggregates(m object) (models.MRoundAggregates, bool) {
	present := has(m, "online_player", "online_players", "onlinePlayers", "bets_count", "betsCount",
		"total_bet_amount", "totalBetAmount", "total_cashout", "totalCashout", "casino_profit", "casinoProfit")
	return models.MRoundAggregates{
		OnlinePlayers:  intField(m, "online_player", "online_players", "onlinePlayers"),
		BetsCount:      intField(m, "bets_count", "betsCount"),
		TotalBetAmount: floatField(m, "total_bet_amount", "totalBetAmount"),
		TotalCashout:   floatField(m, "total_cashout", "totalCashout"),
		CasinoProfit:   floatField(m, "casino_profit", "casinoProfit"),
	}, present
}

// crashRound classifies a round payload. Terminal phases finalize; a payload
// without a phase but with a crash point and round id is treated as ended.
func crashRound(m object) *models.MCanonicalEvent {
	snap := &models.MRoundSnapshot{
		RoundID: stringField(m, roundIDKeys...),
		Phase:   crashPhase(stringField(m, "game_state", "gameState", "state", "status")),
	}
	snap.Aggregates, snap.HasAggregates = crashAggregates(m)
	if has(m, "max_multiplier", "maxMultiplier") {
		snap.MaxMultiplier = floatField(m, "max_multiplier", "maxMultiplier")
		snap.HasMaxMultiplier = true
	}
	if has(m, "current_multiplier", "currentMultiplier") {
		snap.LiveValue = floatField(m, "current_multiplier", "currentMultiplier")
		snap.HasLiveValue = true
	}

	if !snap.HasAggregates && !snap.HasMaxMultiplier && !snap.HasLiveValue && snap.RoundID == "" && snap.Phase == models.PhaseUnknown {
		return nil
	}
	if snap.Phase == models.PhaseUnknown && snap.MaxMultiplier > 0 && snap.RoundID != "" {
		snap.Phase = models.PhaseEnded
	}

	kind := models.EventRoundSnapshot
	if snap.Phase.IsTerminal() {
		kind = models.EventRoundFinalized
	}
	return &models.MCanonicalEvent{Kind: kind, Snapshot: snap}
}

// -----------------------------------------------------------------------------

func crashEntry(m object) (models.MHistoryEntry, bool) {
	id := stringField(m, "id")
	roundID := stringField(m, roundIDKeys...)
	if roundID == "" {
		roundID = id
	}
	if roundID == "" {
		return models.MHistoryEntry{}, false
	}
	if id == "" {
		id = roundID
	}
	agg, _ := crashAggregates(m)
	return models.MHistoryEntry{
		ID:             id,
		RoundID:        roundID,
		MaxMultiplier:  floatField(m, "max_multiplier", "maxMultiplier", "multiplier"),
		TotalBetAmount: agg.TotalBetAmount,
		TotalCashout:   agg.TotalCashout,
		CasinoProfit:   agg.CasinoProfit,
		BetsCount:      agg.BetsCount,
		OnlinePlayers:  agg.OnlinePlayers,
		CreatedAt:      timeField(m, "created_at", "createdAt"),
	}, true
}

// -----------------------------------------------------------------------------

// crashPrediction caps the model score at 3 and only accepts SI/NO advice.
func crashPrediction(m object) *models.MPrediction {
	m = unwrap(m, "prediction", "score", "apostar")
	if !has(m, "prediction", "score", "apostar") {
		return nil
	}
	p := &models.MPrediction{
		RoundID:      stringField(m, "round_id", "roundId", "game_id"),
		Prediction:   floatField(m, "prediction"),
		Score:        math.Min(floatField(m, "score"), 3),
		Confidence:   floatField(m, "confidence"),
		CasinoMood:   intField(m, "casino_mood", "casinoMood"),
		FeaturesUsed: stringsField(m, "features_used", "featuresUsed"),
	}
	switch strings.ToUpper(stringField(m, "apostar", "bet")) {
	case models.BetYes:
		p.Bet = models.BetYes
	case models.BetNo:
		p.Bet = models.BetNo
	}
	return p
}
