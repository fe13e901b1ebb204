package compose

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bft-labs/tetherbooth/pkg/log"
)

// CleanupConfig is the retention policy of the mirror cache.
type CleanupConfig struct {
	// Enabled controls whether the background runner is active.
	Enabled bool

	// CheckInterval is how often the cache is checked. Default: 1 hour
	CheckInterval time.Duration

	// MaxAge removes entries not used for longer than this. Default: 24 hours
	MaxAge time.Duration

	// HighWatermark is the cache size in bytes above which the oldest
	// entries are removed. Default: 512 MiB
	HighWatermark int64

	// LowWatermark is the target size in bytes after trimming.
	// Default: 384 MiB
	LowWatermark int64
}

// DefaultCleanupConfig returns a CleanupConfig with sensible defaults.
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		Enabled:       true,
		CheckInterval: time.Hour,
		MaxAge:        24 * time.Hour,
		HighWatermark: 512 << 20,
		LowWatermark:  384 << 20,
	}
}

// WithDefaults fills zero fields from DefaultCleanupConfig.
func (c CleanupConfig) WithDefaults() CleanupConfig {
	d := DefaultCleanupConfig()
	if c.CheckInterval <= 0 {
		c.CheckInterval = d.CheckInterval
	}
	if c.MaxAge <= 0 {
		c.MaxAge = d.MaxAge
	}
	if c.HighWatermark <= 0 {
		c.HighWatermark = d.HighWatermark
	}
	if c.LowWatermark <= 0 || c.LowWatermark > c.HighWatermark {
		c.LowWatermark = c.HighWatermark * 3 / 4
	}
	return c
}

// CleanupStats reports one cleanup pass.
type CleanupStats struct {
	Removed    int
	BytesFreed int64
	Remaining  int64
}

type cacheEntry struct {
	path    string
	size    int64
	modTime time.Time
}

// Cleanup removes mirrored files older than MaxAge, then removes the oldest
// remaining files until the cache is at most LowWatermark when it exceeds
// HighWatermark. Only files this cache created are considered.
func (m *MirrorCache) Cleanup(ctx context.Context, cfg CleanupConfig) (CleanupStats, error) {
	cfg = cfg.WithDefaults()

	entries, total, err := m.entries()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return CleanupStats{}, nil
		}
		return CleanupStats{}, err
	}

	var stats CleanupStats
	cutoff := m.clock.Now().Add(-cfg.MaxAge)
	kept := entries[:0]

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if e.modTime.Before(cutoff) {
			if m.remove(e, &stats) {
				total -= e.size
				continue
			}
		}
		kept = append(kept, e)
	}

	if total > cfg.HighWatermark {
		for _, e := range kept {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			if total <= cfg.LowWatermark {
				break
			}
			if m.remove(e, &stats) {
				total -= e.size
			}
		}
	}

	stats.Remaining = total
	m.metrics.Evicted(stats.Removed)
	if stats.Removed > 0 {
		m.logger.Info("Mirror cache cleanup completed",
			log.Int("removed", stats.Removed),
			log.Int64("bytes_freed", stats.BytesFreed),
			log.Int64("remaining", total),
		)
	}
	return stats, nil
}

func (m *MirrorCache) remove(e cacheEntry, stats *CleanupStats) bool {
	if err := os.Remove(e.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		m.logger.Error("Mirror cache: remove failed", log.String("path", e.path), log.Err(err))
		return false
	}
	stats.Removed++
	stats.BytesFreed += e.size
	return true
}

// entries lists cache files oldest first.
func (m *MirrorCache) entries() ([]cacheEntry, int64, error) {
	ents, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, 0, err
	}
	var out []cacheEntry
	var total int64
	for _, e := range ents {
		if !e.Type().IsRegular() || !strings.Contains(e.Name(), "_mirror_") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, cacheEntry{
			path:    filepath.Join(m.dir, e.Name()),
			size:    info.Size(),
			modTime: info.ModTime(),
		})
		total += info.Size()
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].modTime.Equal(out[j].modTime) {
			return out[i].modTime.Before(out[j].modTime)
		}
		return out[i].path < out[j].path
	})
	return out, total, nil
}
