package normalizer

import (
	"strings"

	"casino-monitor/src/models"
)

var numberKeys = []string{"number", "result", "winning_number", "winningNumber"}

var roundOrIDKeys = []string{"game_id", "round_id", "roundId", "gameId", "id"}

func roulettePhase(s string) models.RoundPhase {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "spinning", "spin", "betting", "bet", "open":
		return models.PhaseSpinning
	case "settled", "result", "ended", "end", "finished", "closed":
		return models.PhaseSettled
	}
	return models.PhaseUnknown
}

// rouletteColor trusts a known color string and otherwise derives it from
// the wheel layout.
func rouletteColor(m object, n int) string {
	switch c := strings.ToLower(stringField(m, "color", "colour")); c {
	case models.ColorRed, models.ColorBlack, models.ColorGreen:
		return c
	}
	return models.RouletteColor(n)
}

// -----------------------------------------------------------------------------

// rouletteTick reads a drawn number. With a round id attached the draw
// settles that round.
func rouletteTick(raw interface{}) *models.MCanonicalEvent {
	m, ok := raw.(object)
	if !ok {
		return nil
	}
	m = unwrap(m, numberKeys...)
	n, ok := numberField(m, numberKeys...)
	if !ok {
		return nil
	}
	color := rouletteColor(m, n)

	if roundID := stringField(m, roundOrIDKeys...); roundID != "" {
		return &models.MCanonicalEvent{
			Kind: models.EventRoundFinalized,
			Snapshot: &models.MRoundSnapshot{
				RoundID:      roundID,
				Phase:        models.PhaseSettled,
				Number:       &n,
				Color:        color,
				LiveValue:    float64(n),
				HasLiveValue: true,
			},
		}
	}
	return &models.MCanonicalEvent{
		Kind: models.EventLiveTick,
		Tick: &models.MLiveTick{Value: float64(n), Number: &n, Color: color},
	}
}

// rouletteRound settles when the state says so, or when a number arrives
// without any state.
func rouletteRound(m object) *models.MCanonicalEvent {
	snap := &models.MRoundSnapshot{
		RoundID: stringField(m, roundOrIDKeys...),
		Phase:   roulettePhase(stringField(m, "game_state", "gameState", "state", "status")),
	}
	if n, ok := numberField(m, numberKeys...); ok {
		snap.Number = &n
		snap.Color = rouletteColor(m, n)
		snap.LiveValue = float64(n)
		snap.HasLiveValue = true
		if snap.Phase == models.PhaseUnknown {
			snap.Phase = models.PhaseSettled
		}
	}
	if has(m, "online_player", "online_players", "onlinePlayers") {
		snap.Aggregates.OnlinePlayers = intField(m, "online_player", "online_players", "onlinePlayers")
		snap.HasAggregates = true
	}
	if snap.RoundID == "" && snap.Number == nil && snap.Phase == models.PhaseUnknown {
		return nil
	}

	kind := models.EventRoundSnapshot
	if snap.Phase.IsTerminal() {
		kind = models.EventRoundFinalized
	}
	return &models.MCanonicalEvent{Kind: kind, Snapshot: snap}
}

// -----------------------------------------------------------------------------

func rouletteEntry(m object) (models.MHistoryEntry, bool) {
	n, ok := numberField(m, numberKeys...)
	if !ok {
		return models.MHistoryEntry{}, false
	}
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
	return models.MHistoryEntry{
		ID:        id,
		RoundID:   roundID,
		Number:    n,
		Color:     rouletteColor(m, n),
		CreatedAt: timeField(m, "created_at", "createdAt", "timestamp"),
	}, true
}

// -----------------------------------------------------------------------------

func roulettePrediction(m object) *models.MPrediction {
	m = unwrap(m, "prediction_type", "predictionType", "predicted_values", "predictedValues")
	if !has(m, "prediction_type", "predictionType", "predicted_values", "predictedValues") {
		return nil
	}
	return &models.MPrediction{
		RoundID:         stringField(m, "round_id", "roundId"),
		PredictionType:  strings.ToLower(stringField(m, "prediction_type", "predictionType")),
		PredictedValues: stringsField(m, "predicted_values", "predictedValues"),
		Probability:     floatField(m, "probability"),
	}
}
