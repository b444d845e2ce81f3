package interfaces

import "casino-monitor/src/models"

// -----------------------------------------------------------------------------
// IDataExchanger pushes subscription state to presentation consumers.
// -----------------------------------------------------------------------------

type IDataExchanger interface {
	// -----------------------------------------------------------------------------
	// Broadcast queues a snapshot for every connected consumer.
	Broadcast(snapshot models.MSubscriptionSnapshot)

	// -----------------------------------------------------------------------------
	// Forget drops cached state for a closed subscription.
	Forget(key string)

	// -----------------------------------------------------------------------------
	// Start the server
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop() error
}
