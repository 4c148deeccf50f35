// Package background runs the periodic housekeeping the token stores need.
package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/proresume/server/internal/metrics"
)

// TokenStore is the refresh-token sweep contract.
type TokenStore interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// HashStore clears elapsed verification and reset token hashes off user
// rows. Expired hashes are already unusable; the sweep just keeps the
// table tidy.
type HashStore interface {
	ClearElapsedTokenHashes(ctx context.Context) (int64, error)
}

// CleanupWorker periodically deletes expired refresh tokens and clears
// elapsed single-use token hashes.
type CleanupWorker struct {
	tokens    TokenStore
	users     HashStore
	collector *metrics.Collector
	logger    *slog.Logger
	interval  time.Duration
}

func NewCleanupWorker(tokens TokenStore, users HashStore, collector *metrics.Collector, logger *slog.Logger, interval time.Duration) *CleanupWorker {
	return &CleanupWorker{
		tokens:    tokens,
		users:     users,
		collector: collector,
		logger:    logger,
		interval:  interval,
	}
}

// Run sweeps once immediately, then on every tick until the context is
// cancelled.
func (w *CleanupWorker) Run(ctx context.Context) {
	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *CleanupWorker) sweep(ctx context.Context) {
	removed, err := w.tokens.CleanupExpired(ctx)
	if err != nil {
		w.logger.Error("failed to clean up expired refresh tokens", slog.Any("error", err))
		w.collector.RecordCleanupFailure()
	} else {
		w.collector.RecordTokensCleaned(removed)
		if removed > 0 {
			w.logger.Info("expired refresh tokens removed", slog.Int64("count", removed))
		}
	}

	cleared, err := w.users.ClearElapsedTokenHashes(ctx)
	if err != nil {
		w.logger.Error("failed to clear elapsed token hashes", slog.Any("error", err))
		w.collector.RecordCleanupFailure()
	} else {
		w.collector.RecordHashesCleared(cleared)
		if cleared > 0 {
			w.logger.Info("elapsed token hashes cleared", slog.Int64("count", cleared))
		}
	}
}
