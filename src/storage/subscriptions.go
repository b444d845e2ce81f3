package storage

import (
	"database/sql"
	"fmt"
	"time"

	"casino-monitor/src/helpers"
	"casino-monitor/src/models"
)

// SubscriptionRecord summarises what the archive holds for one subscription.
type SubscriptionRecord struct {
	Key         string
	Game        models.GameKind
	BookmakerID int
	Target      *int
	RoundsSeen  int
	LastRoundID string
	LastRoundAt time.Time
}

// -----------------------------------------------------------------------------

func (a *sqlArchive) touchSubscription(tx *sql.Tx, sub models.MSubscription, roundID string, at time.Time) error {
	var target sql.NullInt64
	if sub.SubKey != nil {
		target = sql.NullInt64{Int64: int64(*sub.SubKey), Valid: true}
	}
	_, err := tx.Exec(a.dialect.bind(fmt.Sprintf(`
		INSERT INTO %s (sub_key, game, bookmaker_id, target, rounds_seen, last_round_id, last_round_at)
		VALUES (?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT (sub_key) DO UPDATE SET
			rounds_seen = %[2]s.rounds_seen + 1,
			last_round_id = excluded.last_round_id,
			last_round_at = excluded.last_round_at
	`, a.dialect.table("subscriptions"), "subscriptions")),
		sub.Key(), string(sub.Game), sub.BookmakerID, target, roundID, at.UnixMilli())
	if err != nil {
		return helpers.NewDatabaseError("update subscription "+sub.Key(), err)
	}
	return nil
}

// ListSubscriptions returns every subscription that has archived rounds.
func (a *sqlArchive) ListSubscriptions() ([]SubscriptionRecord, error) {
	rows, err := a.db.Query(fmt.Sprintf(`
		SELECT sub_key, game, bookmaker_id, target, rounds_seen, last_round_id, last_round_at
		FROM %s ORDER BY sub_key
	`, a.dialect.table("subscriptions")))
	if err != nil {
		return nil, helpers.NewDatabaseError("list subscriptions", err)
	}
	defer rows.Close()

	var out []SubscriptionRecord
	for rows.Next() {
		var (
			rec    SubscriptionRecord
			game   string
			target sql.NullInt64
			lastID sql.NullString
			lastAt sql.NullInt64
		)
		if err := rows.Scan(&rec.Key, &game, &rec.BookmakerID, &target, &rec.RoundsSeen, &lastID, &lastAt); err != nil {
			return nil, helpers.NewDatabaseError("scan subscription", err)
		}
		rec.Game = models.GameKind(game)
		if target.Valid {
			t := int(target.Int64)
			rec.Target = &t
		}
		rec.LastRoundID = lastID.String
		if lastAt.Valid {
			rec.LastRoundAt = time.UnixMilli(lastAt.Int64).UTC()
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
