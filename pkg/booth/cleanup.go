package booth

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/bft-labs/tetherbooth/pkg/compose"
	"github.com/bft-labs/tetherbooth/pkg/log"
)

// cleanupRunner manages the mirror-cache cleanup goroutine.
type cleanupRunner struct {
	cfg    compose.CleanupConfig
	cache  *compose.MirrorCache
	clock  clockwork.Clock
	logger log.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newCleanupRunner(cfg compose.CleanupConfig, cache *compose.MirrorCache, clock clockwork.Clock, logger log.Logger) *cleanupRunner {
	return &cleanupRunner{
		cfg:    cfg.WithDefaults(),
		cache:  cache,
		clock:  clock,
		logger: log.With(logger, log.String("component", "cleanup")),
	}
}

func (c *cleanupRunner) start(ctx context.Context) {
	cleanupCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.logger.Info("Mirror cache cleanup enabled",
		log.String("dir", c.cache.Dir()),
		log.Duration("interval", c.cfg.CheckInterval),
		log.Duration("max_age", c.cfg.MaxAge),
	)

	c.wg.Add(1)
	go c.cleanupLoop(cleanupCtx)
}

func (c *cleanupRunner) stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
}

func (c *cleanupRunner) cleanupLoop(ctx context.Context) {
	defer c.wg.Done()

	// Run immediately on startup
	c.cleanupOnce(ctx)

	ticker := c.clock.NewTicker(c.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			c.cleanupOnce(ctx)
		}
	}
}

func (c *cleanupRunner) cleanupOnce(ctx context.Context) {
	if _, err := c.cache.Cleanup(ctx, c.cfg); err != nil && ctx.Err() == nil {
		c.logger.Error("Mirror cache cleanup failed", log.Err(err))
	}
}
