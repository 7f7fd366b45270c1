package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// CleanupConfig contains cleanup loop configuration.
type CleanupConfig struct {
	Interval      time.Duration
	RetentionDays int
}

// DefaultCleanupConfig returns the production defaults: a daily sweep
// keeping terminal-state items for 15 days.
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		Interval:      24 * time.Hour,
		RetentionDays: 15,
	}
}

// Cleaner periodically purges old terminal-state queue items to bound
// storage growth. Pending items are never touched regardless of age.
type Cleaner struct {
	config CleanupConfig
	repo   Repository

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewCleaner creates a cleanup service.
func NewCleaner(config CleanupConfig, repo Repository) *Cleaner {
	if config.Interval <= 0 {
		config.Interval = 24 * time.Hour
	}
	if config.RetentionDays <= 0 {
		config.RetentionDays = 15
	}
	return &Cleaner{
		config: config,
		repo:   repo,
	}
}

// Start launches the cleanup loop, running once immediately. A second
// Start while already running is a no-op with a warning.
func (c *Cleaner) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		slog.Warn("cleanup service already running")
		return
	}

	c.running = true
	c.stopCh = make(chan struct{})

	slog.Info("starting notification cleanup service",
		"interval", c.config.Interval,
		"retention_days", c.config.RetentionDays,
	)

	c.wg.Add(1)
	go c.run(ctx, c.stopCh)
}

// Stop halts the cleanup loop.
func (c *Cleaner) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	close(c.stopCh)
	c.mu.Unlock()

	c.wg.Wait()
	slog.Info("notification cleanup service stopped")
}

// Running reports whether the loop is active.
func (c *Cleaner) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// RunNow performs one cleanup sweep. Exposed for operational use.
func (c *Cleaner) RunNow(ctx context.Context) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -c.config.RetentionDays)

	deleted, err := c.repo.DeleteOldNotifications(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup old notifications: %w", err)
	}

	recordCleanupDeleted(deleted)
	slog.Info("notification cleanup complete", "deleted", deleted, "cutoff", cutoff)
	return deleted, nil
}

func (c *Cleaner) run(ctx context.Context, stopCh chan struct{}) {
	defer c.wg.Done()

	if _, err := c.RunNow(ctx); err != nil {
		slog.Error("cleanup failed", "error", err)
	}

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			if _, err := c.RunNow(ctx); err != nil {
				slog.Error("cleanup failed", "error", err)
			}
		}
	}
}
