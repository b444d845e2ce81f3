// Package normalizer maps raw feed events of each game onto canonical events.
package normalizer

import (
	"sort"
	"strconv"
	"strings"

	"casino-monitor/src/models"
)

var roundIDKeys = []string{"game_id", "round_id", "roundId", "gameId"}

// Adapter is the normalizer for one game kind, driven by its event table.
type Adapter struct {
	game         models.GameKind
	cfg          models.MGameConfig
	statusEvents map[string]bool
}

// NewAdapter builds the adapter for game using the configured event names.
func NewAdapter(game models.GameKind, cfg models.MGameConfig) *Adapter {
	status := make(map[string]bool, len(cfg.StatusEvents))
	for _, e := range cfg.StatusEvents {
		status[e] = true
	}
	return &Adapter{game: game, cfg: cfg, statusEvents: status}
}

func (a *Adapter) Game() models.GameKind {
	return a.game
}

// -----------------------------------------------------------------------------

// Normalize dispatches on the event name. Unknown events, undecodable
// payloads and payloads addressed to another bookmaker yield nil.
func (a *Adapter) Normalize(sub models.MSubscription, event string, payload []byte) *models.MCanonicalEvent {
	raw, ok := decode(payload)
	if !ok {
		return nil
	}
	if m, isObj := raw.(object); isObj && !a.belongsTo(sub, m) {
		return nil
	}

	switch event {
	case a.cfg.TickEvent:
		return a.tick(raw)
	case a.cfg.RoundEvent:
		m, isObj := raw.(object)
		if !isObj {
			return nil
		}
		return a.round(m)
	case a.cfg.HistoryEvent:
		entries, ok := a.historyPayload(raw)
		if !ok {
			return nil
		}
		return &models.MCanonicalEvent{Kind: models.EventHistoryBatch, History: entries}
	case a.cfg.JoinAckEvent:
		return a.joinAck(sub, raw)
	case a.cfg.PredictionEvent:
		m, isObj := raw.(object)
		if !isObj {
			return nil
		}
		return a.prediction(m)
	}
	if a.statusEvents[event] {
		m, isObj := raw.(object)
		if !isObj {
			return nil
		}
		if st := parseStatus(sub, m); st != nil {
			return &models.MCanonicalEvent{Kind: models.EventServiceStatus, Status: st}
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (a *Adapter) belongsTo(sub models.MSubscription, m object) bool {
	keys := []string{"bookmakerId", "bookmaker_id"}
	if a.cfg.IDField != "" {
		keys = append([]string{a.cfg.IDField}, keys...)
	}
	v, ok := lookup(m, keys...)
	if !ok {
		return true
	}
	id, ok := toInt(v)
	return !ok || id == sub.BookmakerID
}

func (a *Adapter) round(m object) *models.MCanonicalEvent {
	if a.game == models.GameRoulette {
		return rouletteRound(unwrap(m, "number", "result", "game_state", "status"))
	}
	return crashRound(unwrap(m, "game_state", "max_multiplier", "game_id", "round_id"))
}

func (a *Adapter) tick(raw interface{}) *models.MCanonicalEvent {
	if a.game == models.GameRoulette {
		return rouletteTick(raw)
	}
	return crashTick(raw)
}

func (a *Adapter) prediction(m object) *models.MCanonicalEvent {
	var p *models.MPrediction
	if a.game == models.GameRoulette {
		p = roulettePrediction(m)
	} else {
		p = crashPrediction(m)
	}
	if p == nil {
		return nil
	}
	return &models.MCanonicalEvent{Kind: models.EventPrediction, Prediction: p}
}

// -----------------------------------------------------------------------------

// historyPayload accepts a bare array or a {success, data} envelope.
func (a *Adapter) historyPayload(raw interface{}) ([]models.MHistoryEntry, bool) {
	switch v := raw.(type) {
	case []interface{}:
		return a.historyEntries(v), true
	case object:
		if s, present := lookup(v, "success"); present {
			if ok, _ := s.(bool); !ok {
				return nil, false
			}
		}
		arr, ok := arrayField(v, "data", "rounds", "history", "latestRounds", "latestHistory")
		if !ok {
			return nil, false
		}
		return a.historyEntries(arr), true
	}
	return nil, false
}

// historyEntries parses items and returns them oldest first. Batches are
// sorted by creation time when every item has one; otherwise they are taken
// to be newest first, which is how the feed sends them.
func (a *Adapter) historyEntries(items []interface{}) []models.MHistoryEntry {
	entries := make([]models.MHistoryEntry, 0, len(items))
	allTimed := true
	for _, it := range items {
		m, ok := it.(object)
		if !ok {
			continue
		}
		var e models.MHistoryEntry
		if a.game == models.GameRoulette {
			e, ok = rouletteEntry(m)
		} else {
			e, ok = crashEntry(m)
		}
		if !ok {
			continue
		}
		if e.CreatedAt.IsZero() {
			allTimed = false
		}
		entries = append(entries, e)
	}

	if allTimed {
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		})
		return entries
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries
}

// -----------------------------------------------------------------------------

func (a *Adapter) joinAck(sub models.MSubscription, raw interface{}) *models.MCanonicalEvent {
	m, ok := raw.(object)
	if !ok {
		return nil
	}
	ack := &models.MJoinAck{Success: true}
	if s, present := lookup(m, "success"); present {
		ack.Success, _ = s.(bool)
	}

	data := m
	if inner, ok := objectField(m, "data"); ok {
		data = inner
	}
	if arr, ok := arrayField(data, "latestRounds", "latest_rounds", "latestHistory", "history", "rounds"); ok {
		ack.History = a.historyEntries(arr)
	}
	if conn, ok := objectField(data, "connectionStatus", "connection_status"); ok {
		ack.Status = parseStatus(sub, conn)
	}
	return &models.MCanonicalEvent{Kind: models.EventJoinAck, JoinAck: ack}
}

// -----------------------------------------------------------------------------

// parseStatus reads either a ready-made status object or per-leg connection
// states keyed by bookmaker id.
func parseStatus(sub models.MSubscription, m object) *models.MServiceStatus {
	if has(m, "websocket_status", "service_health", "active_connections") {
		return &models.MServiceStatus{
			WebsocketStatus:   stringField(m, "websocket_status", "websocketStatus"),
			ActiveConnections: intField(m, "active_connections", "activeConnections"),
			LastTokenUpdate:   stringField(m, "last_token_update", "lastTokenUpdate"),
			ServiceHealth:     stringField(m, "service_health", "serviceHealth"),
		}
	}

	data := m
	if inner, ok := objectField(m, "data"); ok {
		data = inner
	}
	if has(data, "multiplier", "finance") {
		return deriveStatus(data)
	}
	if entry, ok := objectField(data, strconv.Itoa(sub.BookmakerID)); ok {
		return deriveStatus(entry)
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if entry, ok := data[k].(object); ok {
			return deriveStatus(entry)
		}
	}
	return nil
}

// deriveStatus counts CONNECTED legs: two is healthy, one a warning.
func deriveStatus(entry object) *models.MServiceStatus {
	active := 0
	for _, leg := range []string{"multiplier", "finance"} {
		if o, ok := objectField(entry, leg); ok && strings.EqualFold(stringField(o, "status"), "CONNECTED") {
			active++
		}
	}
	st := &models.MServiceStatus{
		WebsocketStatus:   "disconnected",
		ActiveConnections: active,
		ServiceHealth:     models.HealthError,
	}
	if active > 0 {
		st.WebsocketStatus = "connected"
	}
	switch active {
	case 2:
		st.ServiceHealth = models.HealthHealthy
	case 1:
		st.ServiceHealth = models.HealthWarning
	}
	return st
}
