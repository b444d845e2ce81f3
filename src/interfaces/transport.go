package interfaces

import (
	"context"

	"casino-monitor/src/models"
)

// -----------------------------------------------------------------------------
// ITransport is one live feed connection bound to a namespace.
// -----------------------------------------------------------------------------

type ITransport interface {

	// Start dials in the background and keeps reconnecting until ctx ends or
	// Close is called.
	Start(ctx context.Context) error

	// -----------------------------------------------------------------------------

	// Frames delivers inbound events and connectivity changes in order. It is
	// closed once the transport has stopped.
	Frames() <-chan models.MFrame

	// -----------------------------------------------------------------------------

	// Emit sends an event on the namespace. It fails while disconnected.
	Emit(event string, payload interface{}) error

	// -----------------------------------------------------------------------------

	// Connected reports whether the namespace handshake has completed.
	Connected() bool

	// -----------------------------------------------------------------------------

	// Close disconnects and waits for the run loop to exit.
	Close() error
}
