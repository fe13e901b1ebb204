package booth

import (
	"github.com/jonboulle/clockwork"

	"github.com/bft-labs/tetherbooth/internal/metrics"
	"github.com/bft-labs/tetherbooth/internal/ports"
	"github.com/bft-labs/tetherbooth/pkg/layout"
	"github.com/bft-labs/tetherbooth/pkg/log"
)

// Option configures optional behavior of a Booth.
type Option func(*options)

type options struct {
	logger       log.Logger
	eventHandler EventHandler
	clock        clockwork.Clock
	metrics      *metrics.Set
	registry     *layout.Registry
	activator    ports.WindowActivator
	keys         ports.KeySender
}

func defaultOptions() options {
	return options{
		logger: log.NewNoopLogger(),
		clock:  clockwork.NewRealClock(),
	}
}

// WithLogger sets a logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = log.OrNoop(logger)
	}
}

// WithEventHandler sets a handler for booth events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithClock sets the clock shared by every component.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithMetrics records booth metrics into m.
func WithMetrics(m *metrics.Set) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithRegistry sets the layout registry, overriding Config.LayoutsFile.
func WithRegistry(r *layout.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithWindowActivator replaces the command-based window activator.
func WithWindowActivator(a ports.WindowActivator) Option {
	return func(o *options) {
		o.activator = a
	}
}

// WithKeySender replaces the command-based key sender.
func WithKeySender(k ports.KeySender) Option {
	return func(o *options) {
		o.keys = k
	}
}
