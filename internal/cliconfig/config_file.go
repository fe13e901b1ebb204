package cliconfig

import (
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Home        string `toml:"home"`
	WatchDir    string `toml:"watch_dir"`
	SessionsDir string `toml:"sessions_dir"`
	ResultsDir  string `toml:"results_dir"`
	MirrorDir   string `toml:"mirror_dir"`
	LayoutsFile string `toml:"layouts_file"`

	LayoutKey string `toml:"layout"`
	FramePath string `toml:"frame"`
	Filter    string `toml:"filter"`
	Mirror    *bool  `toml:"mirror"`

	Capture CaptureFileConfig `toml:"capture"`
	Trigger TriggerFileConfig `toml:"trigger"`
	Compose ComposeFileConfig `toml:"compose"`
	Cleanup CleanupFileConfig `toml:"cleanup"`

	MetricsAddr string `toml:"metrics_addr"`
	LogLevel    string `toml:"log_level"`
}

// CaptureFileConfig is the [capture] table.
type CaptureFileConfig struct {
	PollInterval   string   `toml:"poll_interval"`
	SettleDelay    string   `toml:"settle_delay"`
	Extensions     []string `toml:"extensions"`
	Target         int      `toml:"target"`
	PerShot        string   `toml:"per_shot"`
	Deadline       string   `toml:"deadline"`
	Interval       string   `toml:"interval"`
	ManualFallback *bool    `toml:"manual_fallback"`
}

// TriggerFileConfig is the [trigger] table.
type TriggerFileConfig struct {
	Enabled          *bool    `toml:"enabled"`
	Titles           []string `toml:"titles"`
	Attempts         int      `toml:"attempts"`
	Backoff          string   `toml:"backoff"`
	MaxBackoff       string   `toml:"max_backoff"`
	Settle           string   `toml:"settle"`
	MinInterval      string   `toml:"min_interval"`
	BreakerThreshold int      `toml:"breaker_threshold"`
	BreakerTimeout   string   `toml:"breaker_timeout"`
	ActivateCommand  string   `toml:"activate_command"`
	KeyCommand       string   `toml:"key_command"`
}

// ComposeFileConfig is the [compose] table.
type ComposeFileConfig struct {
	Quality     int    `toml:"quality"`
	Placeholder string `toml:"placeholder"`
}

// CleanupFileConfig is the [cleanup] table.
type CleanupFileConfig struct {
	Enabled       *bool  `toml:"enabled"`
	CheckInterval string `toml:"check_interval"`
	MaxAge        string `toml:"max_age"`
	HighWatermark int64  `toml:"high_watermark"`
	LowWatermark  int64  `toml:"low_watermark"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.tetherbooth/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h := DefaultHome(); h != "" {
		return filepath.Join(h, "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("home", fc.Home, &cfg.Home)
	s.setString("watch-dir", fc.WatchDir, &cfg.WatchDir)
	s.setString("sessions-dir", fc.SessionsDir, &cfg.SessionsDir)
	s.setString("results-dir", fc.ResultsDir, &cfg.ResultsDir)
	s.setString("mirror-dir", fc.MirrorDir, &cfg.MirrorDir)
	s.setString("layouts", fc.LayoutsFile, &cfg.LayoutsFile)
	s.setString("layout", fc.LayoutKey, &cfg.LayoutKey)
	s.setString("frame", fc.FramePath, &cfg.FramePath)
	s.setString("filter", fc.Filter, &cfg.Filter)
	s.setBool("mirror", fc.Mirror, &cfg.Mirror)
	s.setString("metrics-addr", fc.MetricsAddr, &cfg.MetricsAddr)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	c := fc.Capture
	durations := []struct {
		flag  string
		value string
		dst   *time.Duration
	}{
		{"poll", c.PollInterval, &cfg.PollInterval},
		{"settle", c.SettleDelay, &cfg.SettleDelay},
		{"per-shot", c.PerShot, &cfg.PerShot},
		{"deadline", c.Deadline, &cfg.Deadline},
		{"interval", c.Interval, &cfg.Interval},
		{"backoff", fc.Trigger.Backoff, &cfg.Backoff},
		{"max-backoff", fc.Trigger.MaxBackoff, &cfg.MaxBackoff},
		{"trigger-settle", fc.Trigger.Settle, &cfg.TriggerSettle},
		{"min-interval", fc.Trigger.MinInterval, &cfg.MinInterval},
		{"breaker-timeout", fc.Trigger.BreakerTimeout, &cfg.BreakerTimeout},
		{"cleanup-interval", fc.Cleanup.CheckInterval, &cfg.CleanupInterval},
		{"cleanup-max-age", fc.Cleanup.MaxAge, &cfg.CleanupMaxAge},
	}
	for _, d := range durations {
		if err := s.setDuration(d.flag, d.value, d.dst); err != nil {
			return err
		}
	}

	s.setStrings("extensions", c.Extensions, &cfg.Extensions)
	s.setInt("target", c.Target, &cfg.Target)
	s.setBool("manual-fallback", c.ManualFallback, &cfg.ManualFallback)

	t := fc.Trigger
	s.setBool("trigger", t.Enabled, &cfg.Trigger)
	s.setStrings("titles", t.Titles, &cfg.Titles)
	s.setInt("attempts", t.Attempts, &cfg.Attempts)
	s.setInt("breaker-threshold", t.BreakerThreshold, &cfg.BreakerThreshold)
	s.setString("activate-cmd", t.ActivateCommand, &cfg.ActivateCommand)
	s.setString("key-cmd", t.KeyCommand, &cfg.KeyCommand)

	s.setInt("quality", fc.Compose.Quality, &cfg.Quality)
	s.setString("placeholder", fc.Compose.Placeholder, &cfg.Placeholder)

	s.setBool("cleanup", fc.Cleanup.Enabled, &cfg.Cleanup)
	s.setInt64("cleanup-high-bytes", fc.Cleanup.HighWatermark, &cfg.CleanupHighBytes)
	s.setInt64("cleanup-low-bytes", fc.Cleanup.LowWatermark, &cfg.CleanupLowBytes)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
