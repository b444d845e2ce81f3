// Package storage archives finalized rounds so ledgers can be warm-started.
package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"casino-monitor/src/helpers"
	"casino-monitor/src/interfaces"
	"casino-monitor/src/logger"
	"casino-monitor/src/models"
)

// dialect carries what differs between the SQL backends.
type dialect struct {
	name       string
	schema     string
	realType   string
	bigintType string
	numbered   bool
}

func (d dialect) table(name string) string {
	if d.schema == "" {
		return name
	}
	return fmt.Sprintf(`"%s"."%s"`, d.schema, name)
}

// bind rewrites ? placeholders for backends that number them.
func (d dialect) bind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// -----------------------------------------------------------------------------

// sqlArchive is the backend-neutral round archive.
type sqlArchive struct {
	db      *sql.DB
	dialect dialect
	logger  *logger.Logger
}

func (a *sqlArchive) createTables() error {
	rounds := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			sub_key TEXT NOT NULL,
			game TEXT NOT NULL,
			bookmaker_id INTEGER NOT NULL,
			round_id TEXT NOT NULL,
			max_multiplier %[2]s,
			number INTEGER,
			color TEXT,
			total_bet_amount %[2]s,
			total_cashout %[2]s,
			casino_profit %[2]s,
			bets_count INTEGER,
			online_players INTEGER,
			created_at %[3]s NOT NULL,
			PRIMARY KEY (sub_key, round_id)
		);
	`, a.dialect.table("rounds"), a.dialect.realType, a.dialect.bigintType)
	if _, err := a.db.Exec(rounds); err != nil {
		return fmt.Errorf("failed to create rounds: %w", err)
	}

	index := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS rounds_created_idx ON %s (sub_key, created_at)`, a.dialect.table("rounds"))
	if _, err := a.db.Exec(index); err != nil {
		return fmt.Errorf("failed to create rounds index: %w", err)
	}

	subs := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			sub_key TEXT PRIMARY KEY,
			game TEXT NOT NULL,
			bookmaker_id INTEGER NOT NULL,
			target INTEGER,
			rounds_seen INTEGER NOT NULL DEFAULT 0,
			last_round_id TEXT,
			last_round_at %s
		);
	`, a.dialect.table("subscriptions"), a.dialect.bigintType)
	if _, err := a.db.Exec(subs); err != nil {
		return fmt.Errorf("failed to create subscriptions: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// SaveRound inserts the round and bumps the subscription record in one
// transaction. Rounds already archived are left untouched.
func (a *sqlArchive) SaveRound(r models.MFinalizedRound) error {
	if r.Entry.RoundID == "" {
		return helpers.NewValidationError("round without id", nil)
	}
	tx, err := a.db.Begin()
	if err != nil {
		return helpers.NewDatabaseError("begin", err)
	}
	defer tx.Rollback()

	e := r.Entry
	var number sql.NullInt64
	if r.Subscription.Game == models.GameRoulette {
		number = sql.NullInt64{Int64: int64(e.Number), Valid: true}
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	res, err := tx.Exec(a.dialect.bind(fmt.Sprintf(`
		INSERT INTO %s (sub_key, game, bookmaker_id, round_id, max_multiplier, number, color,
			total_bet_amount, total_cashout, casino_profit, bets_count, online_players, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (sub_key, round_id) DO NOTHING
	`, a.dialect.table("rounds"))),
		r.Subscription.Key(), string(r.Subscription.Game), r.Subscription.BookmakerID, e.RoundID,
		e.MaxMultiplier, number, e.Color, e.TotalBetAmount, e.TotalCashout, e.CasinoProfit,
		e.BetsCount, e.OnlinePlayers, createdAt.UnixMilli())
	if err != nil {
		return helpers.NewDatabaseError("insert round "+e.RoundID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}

	if err := a.touchSubscription(tx, r.Subscription, e.RoundID, createdAt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return helpers.NewDatabaseError("commit", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// LoadRecent returns the newest limit rounds of sub, oldest first.
func (a *sqlArchive) LoadRecent(sub models.MSubscription, limit int) ([]models.MHistoryEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := a.db.Query(a.dialect.bind(fmt.Sprintf(`
		SELECT round_id, max_multiplier, number, color, total_bet_amount, total_cashout,
			casino_profit, bets_count, online_players, created_at
		FROM %s WHERE sub_key = ? ORDER BY created_at DESC, round_id DESC LIMIT ?
	`, a.dialect.table("rounds"))), sub.Key(), limit)
	if err != nil {
		return nil, helpers.NewDatabaseError("load recent rounds", err)
	}
	defer rows.Close()

	var out []models.MHistoryEntry
	for rows.Next() {
		var (
			e         models.MHistoryEntry
			number    sql.NullInt64
			color     sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&e.RoundID, &e.MaxMultiplier, &number, &color, &e.TotalBetAmount,
			&e.TotalCashout, &e.CasinoProfit, &e.BetsCount, &e.OnlinePlayers, &createdAt); err != nil {
			return nil, helpers.NewDatabaseError("scan round", err)
		}
		e.ID = e.RoundID
		e.Number = int(number.Int64)
		e.Color = color.String
		e.CreatedAt = time.UnixMilli(createdAt).UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, helpers.NewDatabaseError("iterate rounds", err)
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// -----------------------------------------------------------------------------

func (a *sqlArchive) CleanupOldData(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).UnixMilli()
	a.logger.Info("Cleaning up rounds older than %d days", retentionDays)

	res, err := a.db.Exec(a.dialect.bind(fmt.Sprintf(`DELETE FROM %s WHERE created_at < ?`, a.dialect.table("rounds"))), cutoff)
	if err != nil {
		return helpers.NewDatabaseError("cleanup rounds", err)
	}
	n, _ := res.RowsAffected()
	a.logger.Info("Cleanup completed, %d rounds removed", n)
	return nil
}

// -----------------------------------------------------------------------------

// NewArchive builds the archive selected by storage.db_type. It returns nil
// for "none".
func NewArchive(cfg *models.MConfig, log *logger.Logger) (interfaces.IHistoryArchive, error) {
	switch cfg.Storage.DBType {
	case "", "none":
		return nil, nil
	case "sqlite":
		return NewAsyncSQLiteDB(cfg, log)
	case "postgres":
		return NewPostgresDB(cfg, log)
	}
	return nil, fmt.Errorf("unsupported db_type %q", cfg.Storage.DBType)
}
