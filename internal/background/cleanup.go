package background

import (
	"context"
	"log/slog"
	"time"
)

// Purger removes expired rows; the newsletter service implements it
// for pending subscriptions whose confirmation window lapsed.
type Purger interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// CleanupManager periodically purges expired pending newsletter
// subscriptions. Sessions and rate-limit counters are reaped lazily on
// access instead and never go through here.
type CleanupManager struct {
	purger   Purger
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(purger Purger, logger *slog.Logger, interval time.Duration) *CleanupManager {
	return &CleanupManager{
		purger:   purger,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	purged, err := cm.purger.CleanupExpired(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to purge expired subscriptions", slog.Any("error", err))
		return
	}

	if purged > 0 {
		cm.logger.Info("expired subscription cleanup completed", slog.Int64("rows_deleted", purged))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
