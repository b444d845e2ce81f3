package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"casino-monitor/src/interfaces"
	"casino-monitor/src/logger"
	"casino-monitor/src/models"
)

// -----------------------------------------------------------------------------

// runLoop blocks until a signal arrives, pruning the archive once a day
func runLoop(ctx context.Context, config *models.MConfig, archive interfaces.IHistoryArchive, appLogger *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	cleanup := time.NewTicker(24 * time.Hour)
	defer cleanup.Stop()

	prune := func() {
		if archive == nil {
			return
		}
		if err := archive.CleanupOldData(config.Storage.RetentionDays); err != nil {
			appLogger.Error("Archive cleanup failed: %v", err)
		}
	}
	prune()

	for {
		select {
		case <-cleanup.C:
			prune()
		case sig := <-quit:
			appLogger.Info("Received %s", sig)
			return
		case <-ctx.Done():
			return
		}
	}
}
