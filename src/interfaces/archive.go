package interfaces

import "casino-monitor/src/models"

// -----------------------------------------------------------------------------
// IHistoryArchive persists finalized rounds beyond the in-memory ledger.
// -----------------------------------------------------------------------------

type IHistoryArchive interface {

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SaveRound stores one finalized round; repeats of a round are ignored.
	SaveRound(round models.MFinalizedRound) error

	// -----------------------------------------------------------------------------

	// LoadRecent returns up to limit rounds of a subscription, oldest first.
	LoadRecent(sub models.MSubscription, limit int) ([]models.MHistoryEntry, error)

	// -----------------------------------------------------------------------------

	// CleanupOldData removes rounds older than the retention policy.
	CleanupOldData(retentionDays int) error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
