package cliconfig

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-shellwords"

	"github.com/bft-labs/tetherbooth/pkg/booth"
	"github.com/bft-labs/tetherbooth/pkg/capture"
	"github.com/bft-labs/tetherbooth/pkg/compose"
	"github.com/bft-labs/tetherbooth/pkg/layout"
	"github.com/bft-labs/tetherbooth/pkg/shutter"
)

// EnvPrefix prefixes every environment variable read by the CLI.
const EnvPrefix = "TETHERBOOTH_"

// Config holds CLI configuration for tetherbooth.
type Config struct {
	Home        string
	WatchDir    string
	SessionsDir string
	ResultsDir  string
	MirrorDir   string
	LayoutsFile string

	LayoutKey string
	FramePath string
	Filter    string
	Mirror    bool

	PollInterval time.Duration
	SettleDelay  time.Duration
	Extensions   []string

	Target         int
	PerShot        time.Duration
	Deadline       time.Duration
	Interval       time.Duration
	ManualFallback bool

	Trigger          bool
	Titles           []string
	Attempts         int
	Backoff          time.Duration
	MaxBackoff       time.Duration
	TriggerSettle    time.Duration
	MinInterval      time.Duration
	BreakerThreshold int
	BreakerTimeout   time.Duration
	ActivateCommand  string
	KeyCommand       string

	Quality     int
	Placeholder string

	Cleanup          bool
	CleanupInterval  time.Duration
	CleanupMaxAge    time.Duration
	CleanupHighBytes int64
	CleanupLowBytes  int64

	MetricsAddr string
	LogLevel    string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	cleanup := compose.DefaultCleanupConfig()
	return Config{
		LayoutKey:        layout.DefaultKey,
		PollInterval:     capture.DefaultPollInterval,
		SettleDelay:      capture.DefaultSettleDelay,
		Extensions:       append([]string(nil), capture.DefaultExtensions...),
		Target:           booth.DefaultTarget,
		PerShot:          booth.DefaultPerShot,
		Deadline:         booth.DefaultDeadline,
		Trigger:          true,
		Titles:           append([]string(nil), shutter.DefaultTitles...),
		Attempts:         shutter.DefaultAttempts,
		Backoff:          shutter.DefaultBackoff,
		MaxBackoff:       shutter.DefaultMaxBackoff,
		TriggerSettle:    shutter.DefaultSettle,
		BreakerThreshold: shutter.DefaultBreakerThreshold,
		BreakerTimeout:   shutter.DefaultBreakerTimeout,
		Quality:          compose.DefaultQuality,
		Placeholder:      "#C8C8C8",
		Cleanup:          true,
		CleanupInterval:  cleanup.CheckInterval,
		CleanupMaxAge:    cleanup.MaxAge,
		CleanupHighBytes: cleanup.HighWatermark,
		CleanupLowBytes:  cleanup.LowWatermark,
		LogLevel:         "info",
	}
}

// DefaultHome returns ~/.tetherbooth if the user home directory is accessible.
func DefaultHome() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".tetherbooth")
	}
	return ""
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.Home == "" {
		c.Home = DefaultHome()
	}
	if c.Home == "" && c.WatchDir == "" {
		return fmt.Errorf("home is required (or watch-dir)")
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
		return fmt.Errorf("poll interval must be positive")
	}
	if c.SettleDelay <= 0 {
		return fmt.Errorf("settle delay must be positive")
	}
	if c.Target <= 0 {
		return fmt.Errorf("target must be positive")
	}
	if c.Deadline <= 0 {
		return fmt.Errorf("deadline must be positive")
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("quality must be between 1 and 100")
	}
	if c.BreakerThreshold < 0 {
		return fmt.Errorf("breaker threshold must not be negative")
	}
	if _, err := ParseHexColor(c.Placeholder); err != nil {
		return fmt.Errorf("placeholder: %w", err)
	}
	if _, err := SplitCommand(c.ActivateCommand); err != nil {
		return fmt.Errorf("activate command: %w", err)
	}
	if _, err := SplitCommand(c.KeyCommand); err != nil {
		return fmt.Errorf("key command: %w", err)
	}

	return nil
}

// BoothConfig converts the CLI configuration into a booth.Config.
// Call Validate first.
func (c Config) BoothConfig() (booth.Config, error) {
	placeholder, err := ParseHexColor(c.Placeholder)
	if err != nil {
		return booth.Config{}, fmt.Errorf("placeholder: %w", err)
	}
	activate, err := SplitCommand(c.ActivateCommand)
	if err != nil {
		return booth.Config{}, fmt.Errorf("activate command: %w", err)
	}
	keys, err := SplitCommand(c.KeyCommand)
	if err != nil {
		return booth.Config{}, fmt.Errorf("key command: %w", err)
	}
	return booth.Config{
		Home:           c.Home,
		WatchDir:       c.WatchDir,
		SessionsDir:    c.SessionsDir,
		ResultsDir:     c.ResultsDir,
		MirrorDir:      c.MirrorDir,
		LayoutsFile:    c.LayoutsFile,
		PollInterval:   c.PollInterval,
		SettleDelay:    c.SettleDelay,
		Extensions:     c.Extensions,
		Target:         c.Target,
		PerShot:        c.PerShot,
		Deadline:       c.Deadline,
		Interval:       c.Interval,
		ManualFallback: c.ManualFallback,
		Trigger: booth.TriggerConfig{
			Enabled:          c.Trigger,
			Titles:           c.Titles,
			Attempts:         c.Attempts,
			Backoff:          c.Backoff,
			MaxBackoff:       c.MaxBackoff,
			Settle:           c.TriggerSettle,
			MinInterval:      c.MinInterval,
			BreakerThreshold: uint32(c.BreakerThreshold),
			BreakerTimeout:   c.BreakerTimeout,
			ActivateCommand:  activate,
			KeyCommand:       keys,
		},
		Quality:     c.Quality,
		Placeholder: placeholder,
		Cleanup: compose.CleanupConfig{
			Enabled:       c.Cleanup,
			CheckInterval: c.CleanupInterval,
			MaxAge:        c.CleanupMaxAge,
			HighWatermark: c.CleanupHighBytes,
			LowWatermark:  c.CleanupLowBytes,
		},
	}, nil
}

// SplitCommand splits a command line into arguments with shell quoting
// rules, so `sh -c "xdotool key space"` keeps its script as one argument.
// Environment variables are not expanded. A blank line yields nil.
func SplitCommand(line string) ([]string, error) {
	if strings.TrimSpace(line) == "" {
		return nil, nil
	}
	args, err := shellwords.Parse(line)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, nil
	}
	return args, nil
}

// ParseHexColor parses "#RRGGBB" or "RRGGBB" into an opaque colour.
func ParseHexColor(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q: want #RRGGBB", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}, nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setStrings sets a list if not empty and flag not changed.
func (s *configSetter) setStrings(flag string, value []string, dst *[]string) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = append([]string(nil), value...)
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt64 sets an int64 value if positive and flag not changed.
func (s *configSetter) setInt64(flag string, value int64, dst *int64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setInt64FromString parses a string to int64 and sets the destination if valid.
func (s *configSetter) setInt64FromString(flag, value string, dst *int64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setStringsFromString splits a comma-separated list and sets the destination.
func (s *configSetter) setStringsFromString(flag, value string, dst *[]string) {
	if value == "" || s.changed[flag] {
		return
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) > 0 {
		*dst = out
	}
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
