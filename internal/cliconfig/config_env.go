package cliconfig

import (
	"os"
	"time"
)

// ApplyEnvConfig applies configuration from environment variables (TETHERBOOTH_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)
	env := func(name string) string { return os.Getenv(EnvPrefix + name) }

	s.setString("home", env("HOME"), &cfg.Home)
	s.setString("watch-dir", env("WATCH_DIR"), &cfg.WatchDir)
	s.setString("sessions-dir", env("SESSIONS_DIR"), &cfg.SessionsDir)
	s.setString("results-dir", env("RESULTS_DIR"), &cfg.ResultsDir)
	s.setString("mirror-dir", env("MIRROR_DIR"), &cfg.MirrorDir)
	s.setString("layouts", env("LAYOUTS_FILE"), &cfg.LayoutsFile)
	s.setString("layout", env("LAYOUT"), &cfg.LayoutKey)
	s.setString("frame", env("FRAME"), &cfg.FramePath)
	s.setString("filter", env("FILTER"), &cfg.Filter)
	s.setString("activate-cmd", env("ACTIVATE_COMMAND"), &cfg.ActivateCommand)
	s.setString("key-cmd", env("KEY_COMMAND"), &cfg.KeyCommand)
	s.setString("placeholder", env("PLACEHOLDER"), &cfg.Placeholder)
	s.setString("metrics-addr", env("METRICS_ADDR"), &cfg.MetricsAddr)
	s.setString("log-level", env("LOG_LEVEL"), &cfg.LogLevel)

	s.setStringsFromString("extensions", env("EXTENSIONS"), &cfg.Extensions)
	s.setStringsFromString("titles", env("TITLES"), &cfg.Titles)

	durations := []struct {
		flag string
		name string
		dst  *time.Duration
	}{
		{"poll", "POLL_INTERVAL", &cfg.PollInterval},
		{"settle", "SETTLE_DELAY", &cfg.SettleDelay},
		{"per-shot", "PER_SHOT", &cfg.PerShot},
		{"deadline", "DEADLINE", &cfg.Deadline},
		{"interval", "INTERVAL", &cfg.Interval},
		{"backoff", "BACKOFF", &cfg.Backoff},
		{"max-backoff", "MAX_BACKOFF", &cfg.MaxBackoff},
		{"trigger-settle", "TRIGGER_SETTLE", &cfg.TriggerSettle},
		{"min-interval", "MIN_INTERVAL", &cfg.MinInterval},
		{"breaker-timeout", "BREAKER_TIMEOUT", &cfg.BreakerTimeout},
		{"cleanup-interval", "CLEANUP_INTERVAL", &cfg.CleanupInterval},
		{"cleanup-max-age", "CLEANUP_MAX_AGE", &cfg.CleanupMaxAge},
	}
	for _, d := range durations {
		if err := s.setDuration(d.flag, env(d.name), d.dst); err != nil {
			return err
		}
	}

	ints := []struct {
		flag string
		name string
		dst  *int
	}{
		{"target", "TARGET", &cfg.Target},
		{"attempts", "ATTEMPTS", &cfg.Attempts},
		{"breaker-threshold", "BREAKER_THRESHOLD", &cfg.BreakerThreshold},
		{"quality", "QUALITY", &cfg.Quality},
	}
	for _, i := range ints {
		if err := s.setIntFromString(i.flag, env(i.name), i.dst); err != nil {
			return err
		}
	}

	if err := s.setInt64FromString("cleanup-high-bytes", env("CLEANUP_HIGH_BYTES"), &cfg.CleanupHighBytes); err != nil {
		return err
	}
	if err := s.setInt64FromString("cleanup-low-bytes", env("CLEANUP_LOW_BYTES"), &cfg.CleanupLowBytes); err != nil {
		return err
	}

	s.setBoolFromString("mirror", env("MIRROR"), &cfg.Mirror)
	s.setBoolFromString("manual-fallback", env("MANUAL_FALLBACK"), &cfg.ManualFallback)
	s.setBoolFromString("trigger", env("TRIGGER"), &cfg.Trigger)
	s.setBoolFromString("cleanup", env("CLEANUP"), &cfg.Cleanup)

	return nil
}
