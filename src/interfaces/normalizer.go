package interfaces

import "casino-monitor/src/models"

// -----------------------------------------------------------------------------
// INormalizer turns raw feed events of one game kind into canonical events.
// -----------------------------------------------------------------------------

type INormalizer interface {

	// Game returns the kind this adapter serves.
	Game() models.GameKind

	// -----------------------------------------------------------------------------

	// Normalize returns nil for unknown events and malformed payloads.
	Normalize(sub models.MSubscription, event string, payload []byte) *models.MCanonicalEvent
}
