package jobs

import (
	"context"
	"time"

	"studyloop-generation/internal/logger"
)

// RunCleaner supprime les exécutions terminées plus anciennes que maxAge
type RunCleaner interface {
	CleanupOldRuns(ctx context.Context, maxAge time.Duration) (int64, error)
}

type CleanupService struct {
	cleaner  RunCleaner
	interval time.Duration
	maxAge   time.Duration
	log      *logger.Logger
	stopCh   chan struct{}
}

func NewCleanupService(cleaner RunCleaner, interval, maxAge time.Duration, log *logger.Logger) *CleanupService {
	return &CleanupService{
		cleaner:  cleaner,
		interval: interval,
		maxAge:   maxAge,
		log:      log.With("component", "cleanup"),
		stopCh:   make(chan struct{}),
	}
}

func (c *CleanupService) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.log.Info("Cleanup service started", "interval", c.interval.String(), "max_age", c.maxAge.String())

	for {
		select {
		case <-ctx.Done():
			c.log.Info("Cleanup service stopped due to context cancellation")
			return
		case <-c.stopCh:
			c.log.Info("Cleanup service stopped")
			return
		case <-ticker.C:
			c.RunOnce(ctx)
		}
	}
}

// RunOnce exécute un passage de nettoyage
func (c *CleanupService) RunOnce(ctx context.Context) int64 {
	deleted, err := c.cleaner.CleanupOldRuns(ctx, c.maxAge)
	if err != nil {
		c.log.Error("Cleanup error", "error", err)
		return 0
	}
	if deleted > 0 {
		c.log.Info("Cleanup completed", "runs_removed", deleted)
	}
	return deleted
}

func (c *CleanupService) Stop() {
	close(c.stopCh)
}
