package shutter

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/bft-labs/tetherbooth/internal/metrics"
	"github.com/bft-labs/tetherbooth/pkg/log"
)

// DefaultTitles are the remote-capture window titles tried in order.
var DefaultTitles = []string{
	"EOS R100",
	"원격 라이브 뷰 창",
	"Remote Live View",
}

// Default trigger settings.
const (
	DefaultAttempts         = 3
	DefaultBackoff          = 300 * time.Millisecond
	DefaultMaxBackoff       = 2 * time.Second
	DefaultSettle           = 500 * time.Millisecond
	DefaultBreakerThreshold = 5
	DefaultBreakerTimeout   = 30 * time.Second
)

// Option configures a Trigger.
type Option func(*options)

type options struct {
	titles           []string
	attempts         int
	backoff          time.Duration
	maxBackoff       time.Duration
	settle           time.Duration
	minInterval      time.Duration
	breakerThreshold uint32
	breakerTimeout   time.Duration
	clock            clockwork.Clock
	logger           log.Logger
	metrics          *metrics.TriggerMetrics
}

func defaultOptions() options {
	return options{
		titles:           append([]string(nil), DefaultTitles...),
		attempts:         DefaultAttempts,
		backoff:          DefaultBackoff,
		maxBackoff:       DefaultMaxBackoff,
		settle:           DefaultSettle,
		breakerThreshold: DefaultBreakerThreshold,
		breakerTimeout:   DefaultBreakerTimeout,
		clock:            clockwork.NewRealClock(),
		logger:           log.NewNoopLogger(),
	}
}

// WithTitles replaces the candidate window titles.
func WithTitles(titles ...string) Option {
	return func(o *options) {
		if len(titles) > 0 {
			o.titles = append([]string(nil), titles...)
		}
	}
}

// WithAttempts sets how many times the whole title list is tried.
func WithAttempts(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.attempts = n
		}
	}
}

// WithBackoff sets the initial and maximum pause between whole-list attempts.
func WithBackoff(initial, max time.Duration) Option {
	return func(o *options) {
		o.backoff = initial
		o.maxBackoff = max
	}
}

// WithSettle sets how long Fire waits after sending the key. Zero disables
// the wait.
func WithSettle(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.settle = d
		}
	}
}

// WithMinInterval sets the minimum gap between two capture keystrokes.
func WithMinInterval(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.minInterval = d
		}
	}
}

// WithBreaker opens the circuit after threshold consecutive activation
// failures. While open, Fire fails immediately for timeout. A zero
// threshold disables the breaker.
func WithBreaker(threshold uint32, timeout time.Duration) Option {
	return func(o *options) {
		o.breakerThreshold = threshold
		if timeout > 0 {
			o.breakerTimeout = timeout
		}
	}
}

// WithClock sets the clock used for backoff, pacing and settle waits.
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

// WithMetrics sets the trigger metrics.
func WithMetrics(m *metrics.TriggerMetrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}
