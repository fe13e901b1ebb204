package capture

import (
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/bft-labs/tetherbooth/internal/metrics"
	"github.com/bft-labs/tetherbooth/pkg/log"
)

// Default watcher settings.
const (
	DefaultPollInterval = 200 * time.Millisecond
	DefaultSettleDelay  = 300 * time.Millisecond
)

// DefaultExtensions lists the accepted file extensions.
var DefaultExtensions = []string{".jpg", ".jpeg", ".png"}

// Option configures a Watcher.
type Option func(*options)

type options struct {
	pollInterval time.Duration
	settleDelay  time.Duration
	extensions   map[string]struct{}
	clock        clockwork.Clock
	logger       log.Logger
	metrics      *metrics.CaptureMetrics
	notify       bool
}

func defaultOptions() options {
	return options{
		pollInterval: DefaultPollInterval,
		settleDelay:  DefaultSettleDelay,
		extensions:   extensionSet(DefaultExtensions),
		clock:        clockwork.NewRealClock(),
		logger:       log.NewNoopLogger(),
		notify:       true,
	}
}

// WithPollInterval sets the delay between directory scans.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithSettleDelay sets the minimum gap between the two size observations
// that make a file stable.
func WithSettleDelay(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.settleDelay = d
		}
	}
}

// WithExtensions replaces the accepted extensions. Matching is
// case-insensitive and the leading dot is optional.
func WithExtensions(exts ...string) Option {
	return func(o *options) {
		if len(exts) > 0 {
			o.extensions = extensionSet(exts)
		}
	}
}

// WithClock sets the clock used for deadlines and settle timing.
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

// WithMetrics sets the capture metrics.
func WithMetrics(m *metrics.CaptureMetrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithNotify enables or disables file system notifications as an early
// wake-up source. Polling stays authoritative either way.
func WithNotify(enabled bool) Option {
	return func(o *options) {
		o.notify = enabled
	}
}

func extensionSet(exts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		set[e] = struct{}{}
	}
	return set
}
