package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vizille/dashboard/internal/dashboard"
	"github.com/vizille/dashboard/internal/metrics"
)

// CleanupConfig holds configuration for the session sweeper
type CleanupConfig struct {
	Enabled       bool
	CheckInterval time.Duration // How often idle sessions are swept
}

// Cleaner drops dashboard sessions nobody has touched within the registry ttl
type Cleaner struct {
	cfg      CleanupConfig
	sessions *dashboard.Registry
	log      *zap.Logger
	metrics  *metrics.Metrics
}

// NewCleaner creates a new cleaner instance
func NewCleaner(cfg CleanupConfig, sessions *dashboard.Registry, log *zap.Logger, m *metrics.Metrics) *Cleaner {
	return &Cleaner{
		cfg:      cfg,
		sessions: sessions,
		log:      log,
		metrics:  m,
	}
}

// Run sweeps on every tick until ctx is done.
func (c *Cleaner) Run(ctx context.Context) error {
	if !c.cfg.Enabled || c.cfg.CheckInterval <= 0 {
		c.log.Info("session sweeper disabled")
		return nil
	}
	c.log.Info("session sweeper started", zap.Duration("interval", c.cfg.CheckInterval))

	ticker := time.NewTicker(c.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.runCleanup()
		}
	}
}

// runCleanup removes idle sessions and refreshes the sessions gauge
func (c *Cleaner) runCleanup() int {
	removed := c.sessions.Sweep()
	live := c.sessions.Len()
	if c.metrics != nil {
		c.metrics.SetSessions(live)
	}
	if removed > 0 {
		c.log.Info("idle sessions dropped", zap.Int("removed", removed), zap.Int("live", live))
	}
	return removed
}
