package compose

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/disintegration/imaging"
	"github.com/jonboulle/clockwork"

	"github.com/bft-labs/tetherbooth/internal/metrics"
	"github.com/bft-labs/tetherbooth/pkg/log"
)

// MirrorCache stores horizontally flipped copies of source photos. A derived
// file is named "<stem>_mirror_<hash8>.png", where the hash covers the
// source path, size and modification time, so toggling mirror on and off
// reuses the same file until the source changes. Entries are always PNG so
// mirroring a mirrored file gives back the source pixels exactly, JPEG
// sources included.
type MirrorCache struct {
	dir     string
	clock   clockwork.Clock
	logger  log.Logger
	metrics *metrics.ComposeMetrics
}

// MirrorOption configures a MirrorCache.
type MirrorOption func(*MirrorCache)

// WithMirrorClock sets the clock used for retention decisions.
func WithMirrorClock(c clockwork.Clock) MirrorOption {
	return func(m *MirrorCache) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithMirrorLogger sets the logger.
func WithMirrorLogger(l log.Logger) MirrorOption {
	return func(m *MirrorCache) {
		m.logger = log.OrNoop(l)
	}
}

// WithMirrorMetrics sets the metrics that count evictions.
func WithMirrorMetrics(cm *metrics.ComposeMetrics) MirrorOption {
	return func(m *MirrorCache) {
		m.metrics = cm
	}
}

// NewMirrorCache creates a cache in dir.
func NewMirrorCache(dir string, opts ...MirrorOption) *MirrorCache {
	m := &MirrorCache{
		dir:     dir,
		clock:   clockwork.NewRealClock(),
		logger:  log.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Dir returns the cache directory.
func (m *MirrorCache) Dir() string {
	return m.dir
}

// Path returns the derived path for src without creating it.
func (m *MirrorCache) Path(src string) (string, error) {
	fi, err := os.Stat(src)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(src)
	if err != nil {
		return "", err
	}

	h := xxhash.New()
	_, _ = h.WriteString(abs)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(strconv.FormatInt(fi.Size(), 10))
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(strconv.FormatInt(fi.ModTime().UnixNano(), 10))
	sum := fmt.Sprintf("%016x", h.Sum64())

	base := filepath.Base(src)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(m.dir, fmt.Sprintf("%s_mirror_%s.png", stem, sum[:8])), nil
}

// Mirror returns one path per input: the flipped copy when the source is
// readable, or the original path otherwise so the compositor can substitute
// a placeholder.
func (m *MirrorCache) Mirror(ctx context.Context, paths []string) ([]string, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create mirror cache: %w", err)
	}

	out := make([]string, len(paths))
	done := make(map[string]string, len(paths))
	for i, src := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p, ok := done[src]; ok {
			out[i] = p
			continue
		}

		p, err := m.mirrorOne(src)
		if err != nil {
			m.logger.Warn("Mirror failed, using original", log.String("path", src), log.Err(err))
			p = src
		}
		done[src] = p
		out[i] = p
	}
	return out, nil
}

func (m *MirrorCache) mirrorOne(src string) (string, error) {
	dst, err := m.Path(src)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(dst); err == nil {
		now := m.clock.Now()
		_ = os.Chtimes(dst, now, now)
		return dst, nil
	}

	img, err := loadImage(src)
	if err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(m.dir, ".mirror-*.png")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if err := imaging.Encode(tmp, imaging.FlipH(img), imaging.PNG); err != nil {
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return "", err
	}
	now := m.clock.Now()
	_ = os.Chtimes(dst, now, now)
	return dst, nil
}
