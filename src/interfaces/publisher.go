package interfaces

import (
	"context"

	"casino-monitor/src/models"
)

// IRoundPublisher fans finalized rounds out to other services.
type IRoundPublisher interface {
	Publish(ctx context.Context, round models.MFinalizedRound) error
	Close() error
}
