package analysis

import (
	"sync"

	"casino-monitor/src/analysis/core"
	"casino-monitor/src/history"
	"casino-monitor/src/logger"
	"casino-monitor/src/models"
)

// StatsEngine derives statistics from one ledger. It recomputes on every
// ledger mutation and memoizes on the ledger version.
type StatsEngine struct {
	Config models.MAnalysisConfig
	Game   models.GameKind
	Logger *logger.Logger

	ledger   *history.Ledger
	mu       sync.RWMutex
	latest   *models.MDerivedStats
	onUpdate []func(*models.MDerivedStats)
}

// -----------------------------------------------------------------------------

func NewStatsEngine(cfg models.MAnalysisConfig, game models.GameKind, ledger *history.Ledger, log *logger.Logger) *StatsEngine {
	e := &StatsEngine{
		Config: cfg,
		Game:   game,
		Logger: log,
		ledger: ledger,
	}
	ledger.Subscribe(func(uint64) { e.refresh() })
	return e
}

// -----------------------------------------------------------------------------

// OnUpdate registers fn to receive every freshly computed projection.
func (e *StatsEngine) OnUpdate(fn func(*models.MDerivedStats)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onUpdate = append(e.onUpdate, fn)
}

// Latest returns the projection of the current ledger version, computing it
// if the cached one is stale.
func (e *StatsEngine) Latest() *models.MDerivedStats {
	e.mu.RLock()
	cached := e.latest
	e.mu.RUnlock()
	if cached != nil && cached.LedgerVersion == e.ledger.Version() {
		return cached
	}
	return e.refresh()
}

func (e *StatsEngine) refresh() *models.MDerivedStats {
	entries, version := e.ledger.Snapshot()

	e.mu.Lock()
	if e.latest != nil && e.latest.LedgerVersion == version {
		s := e.latest
		e.mu.Unlock()
		return s
	}
	stats := ComputeStats(e.Game, e.Config, entries, version)
	e.latest = stats
	listeners := e.onUpdate
	e.mu.Unlock()

	if e.Logger != nil {
		e.Logger.Debug("Recomputed stats for ledger v%d (%d samples)", version, stats.Samples)
	}
	for _, fn := range listeners {
		fn(stats)
	}
	return stats
}

// -----------------------------------------------------------------------------

// ComputeStats is the pure projection of a ledger snapshot (oldest first).
func ComputeStats(game models.GameKind, cfg models.MAnalysisConfig, entries []models.MHistoryEntry, version uint64) *models.MDerivedStats {
	if cfg.HistoryCapacity > 0 && len(entries) > cfg.HistoryCapacity {
		entries = entries[len(entries)-cfg.HistoryCapacity:]
	}

	stats := &models.MDerivedStats{
		LedgerVersion: version,
		Samples:       len(entries),
	}

	if game == models.GameRoulette {
		spins := make([]core.Spin, len(entries))
		for i, en := range entries {
			spins[i] = core.Spin{Number: en.Number, Color: en.Color}
		}
		stats.Roulette = core.RouletteBreakdown(spins)
		return stats
	}

	values := make([]float64, len(entries))
	for i, en := range entries {
		values[i] = core.Sanitize(en.MaxMultiplier)
	}

	trend := values
	if cfg.TrendWindow > 0 && len(trend) > cfg.TrendWindow {
		trend = trend[len(trend)-cfg.TrendWindow:]
	}

	stats.Walk = core.CumulativeWalk(trend, cfg.TrendThreshold)
	stats.EMA = core.CalculateEMA(stats.Walk, cfg.EMAPeriod)
	stats.Bands = core.CalculateBands(stats.Walk, cfg.BandPeriod, cfg.BandWidth)
	stats.Levels = core.CalculateLevels(stats.Walk, cfg.LevelsLookback)
	stats.Bullish = core.IsAboveEMA(stats.Walk, stats.EMA)
	stats.Histogram = core.MultiplierHistogram(values)
	stats.Money = core.MoneyTotals(entries)
	return stats
}
