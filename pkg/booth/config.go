package booth

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"time"

	"github.com/bft-labs/tetherbooth/internal/domain"
	"github.com/bft-labs/tetherbooth/pkg/capture"
	"github.com/bft-labs/tetherbooth/pkg/compose"
	"github.com/bft-labs/tetherbooth/pkg/shutter"
)

// Default capture plan.
const (
	DefaultTarget   = 4
	DefaultPerShot  = 10 * time.Second
	DefaultDeadline = 90 * time.Second
)

// TriggerConfig configures the remote shutter.
type TriggerConfig struct {
	// Enabled selects automatic triggering. When false the booth waits for
	// shots taken with the camera's own button.
	Enabled bool

	Titles           []string
	Attempts         int
	Backoff          time.Duration
	MaxBackoff       time.Duration
	Settle           time.Duration
	MinInterval      time.Duration

	// BreakerThreshold is the number of consecutive failed triggers after
	// which triggering pauses for BreakerTimeout. Zero disables the breaker.
	BreakerThreshold uint32
	BreakerTimeout   time.Duration

	// ActivateCommand overrides the window activation command. The argument
	// "{title}" is replaced by each candidate title.
	ActivateCommand []string

	// KeyCommand overrides the command that sends the capture keystroke.
	KeyCommand []string
}

// Config holds the booth configuration. It is copied at construction and
// never changed afterwards.
type Config struct {
	// Home is the base directory from which unset paths are derived.
	Home string

	// WatchDir is where the tethering application writes new photos.
	WatchDir string

	// SessionsDir holds one directory per capture session.
	SessionsDir string

	// ResultsDir receives composed prints and filtered variants.
	ResultsDir string

	// MirrorDir holds mirrored copies of source photos.
	MirrorDir string

	// LayoutsFile optionally replaces the built-in layout table.
	LayoutsFile string

	PollInterval time.Duration
	SettleDelay  time.Duration
	Extensions   []string

	// Target is the number of photos per session.
	Target int

	// PerShot is the capture window after each trigger.
	PerShot time.Duration

	// Deadline bounds a whole session.
	Deadline time.Duration

	// Interval is a pause before each shot.
	Interval time.Duration

	// ManualFallback keeps waiting for a file when the trigger fails.
	ManualFallback bool

	Trigger TriggerConfig

	Quality     int
	Placeholder color.NRGBA

	Cleanup compose.CleanupConfig
}

// DefaultConfig returns a Config with sensible defaults rooted at
// $HOME/.tetherbooth.
func DefaultConfig() Config {
	cfg := Config{Home: defaultHome()}
	cfg.Trigger.BreakerThreshold = shutter.DefaultBreakerThreshold
	cfg.Cleanup.Enabled = true
	cfg.SetDefaults()
	return cfg
}

func defaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".tetherbooth"
	}
	return filepath.Join(home, ".tetherbooth")
}

// SetDefaults fills zero fields.
func (c *Config) SetDefaults() {
	if c.Home == "" {
		c.Home = defaultHome()
	}
	if c.WatchDir == "" {
		c.WatchDir = filepath.Join(c.Home, "incoming")
	}
	if c.SessionsDir == "" {
		c.SessionsDir = filepath.Join(c.Home, "sessions")
	}
	if c.ResultsDir == "" {
		c.ResultsDir = filepath.Join(c.Home, "results")
	}
	if c.MirrorDir == "" {
		c.MirrorDir = filepath.Join(c.Home, "mirror")
	}
	if c.PollInterval <= 0 {
		c.PollInterval = capture.DefaultPollInterval
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = capture.DefaultSettleDelay
	}
	if len(c.Extensions) == 0 {
		c.Extensions = append([]string(nil), capture.DefaultExtensions...)
	}
	if c.Target <= 0 {
		c.Target = DefaultTarget
	}
	if c.PerShot <= 0 {
		c.PerShot = DefaultPerShot
	}
	if c.Deadline <= 0 {
		c.Deadline = DefaultDeadline
	}
	if len(c.Trigger.Titles) == 0 {
		c.Trigger.Titles = append([]string(nil), shutter.DefaultTitles...)
	}
	if c.Trigger.Attempts <= 0 {
		c.Trigger.Attempts = shutter.DefaultAttempts
	}
	if c.Trigger.Backoff <= 0 {
		c.Trigger.Backoff = shutter.DefaultBackoff
	}
	if c.Trigger.MaxBackoff <= 0 {
		c.Trigger.MaxBackoff = shutter.DefaultMaxBackoff
	}
	if c.Trigger.Settle <= 0 {
		c.Trigger.Settle = shutter.DefaultSettle
	}
	if c.Trigger.BreakerTimeout <= 0 {
		c.Trigger.BreakerTimeout = shutter.DefaultBreakerTimeout
	}
	if c.Quality == 0 {
		c.Quality = compose.DefaultQuality
	}
	if c.Placeholder == (color.NRGBA{}) {
		c.Placeholder = compose.DefaultPlaceholder
	}
	c.Cleanup = c.Cleanup.WithDefaults()
}

// Validate checks the configuration. Call SetDefaults first.
func (c Config) Validate() error {
	var errs []error
	if c.WatchDir == "" {
		errs = append(errs, errors.New("watch directory is required"))
	}
	if c.SessionsDir == "" || c.ResultsDir == "" || c.MirrorDir == "" {
		errs = append(errs, errors.New("sessions, results and mirror directories are required"))
	}
	if c.WatchDir != "" && (sameDir(c.WatchDir, c.SessionsDir) || sameDir(c.WatchDir, c.ResultsDir) || sameDir(c.WatchDir, c.MirrorDir)) {
		errs = append(errs, errors.New("watch directory must differ from sessions, results and mirror directories"))
	}
	if c.Target <= 0 {
		errs = append(errs, fmt.Errorf("target must be positive, got %d", c.Target))
	}
	if c.PerShot > c.Deadline {
		errs = append(errs, fmt.Errorf("per-shot window %s exceeds session deadline %s", c.PerShot, c.Deadline))
	}
	if c.Quality < 1 || c.Quality > 100 {
		errs = append(errs, fmt.Errorf("quality must be between 1 and 100, got %d", c.Quality))
	}
	if c.Cleanup.LowWatermark > c.Cleanup.HighWatermark {
		errs = append(errs, errors.New("cleanup low watermark exceeds high watermark"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func sameDir(a, b string) bool {
	if b == "" {
		return false
	}
	return filepath.Clean(a) == filepath.Clean(b)
}
