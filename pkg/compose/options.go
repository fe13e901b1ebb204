package compose

import (
	"image/color"

	"github.com/jonboulle/clockwork"

	"github.com/bft-labs/tetherbooth/internal/metrics"
	"github.com/bft-labs/tetherbooth/pkg/log"
)

// DefaultQuality is the JPEG quality of composed prints.
const DefaultQuality = 95

// DefaultPlaceholder fills slots whose photo could not be read.
var DefaultPlaceholder = color.NRGBA{R: 0xC8, G: 0xC8, B: 0xC8, A: 0xFF}

// Option configures a Compositor.
type Option func(*options)

type options struct {
	quality     int
	placeholder color.NRGBA
	mirror      *MirrorCache
	clock       clockwork.Clock
	logger      log.Logger
	metrics     *metrics.ComposeMetrics
}

func defaultOptions() options {
	return options{
		quality:     DefaultQuality,
		placeholder: DefaultPlaceholder,
		clock:       clockwork.NewRealClock(),
		logger:      log.NewNoopLogger(),
	}
}

// WithQuality sets the JPEG quality, 1 to 100.
func WithQuality(q int) Option {
	return func(o *options) {
		if q >= 1 && q <= 100 {
			o.quality = q
		}
	}
}

// WithPlaceholder sets the colour used for unreadable photos.
func WithPlaceholder(c color.NRGBA) Option {
	return func(o *options) {
		o.placeholder = c
	}
}

// WithMirrorCache sets the cache used for mirrored requests. Without one,
// mirrored photos are flipped in memory.
func WithMirrorCache(m *MirrorCache) Option {
	return func(o *options) {
		o.mirror = m
	}
}

// WithClock sets the clock used for timing metrics.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(o *options) {
		o.logger = log.OrNoop(l)
	}
}

// WithMetrics sets the compose metrics.
func WithMetrics(m *metrics.ComposeMetrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}
