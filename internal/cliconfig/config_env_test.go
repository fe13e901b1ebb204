package cliconfig

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"TETHERBOOTH_HOME":          "/env/booth",
				"TETHERBOOTH_WATCH_DIR":     "/env/incoming",
				"TETHERBOOTH_POLL_INTERVAL": "150ms",
				"TETHERBOOTH_TARGET":        "6",
				"TETHERBOOTH_MIRROR":        "true",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				Home:         "/env/booth",
				WatchDir:     "/env/incoming",
				PollInterval: 150 * time.Millisecond,
				Target:       6,
				Mirror:       true,
			},
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"TETHERBOOTH_HOME":   "/env/booth",
				"TETHERBOOTH_LAYOUT": "full_h2",
			},
			changed: map[string]bool{"home": true},
			initial: Config{Home: "/flag/booth"},
			expected: Config{
				Home:      "/flag/booth",
				LayoutKey: "full_h2",
			},
		},
		{
			name: "returns error for invalid duration",
			envVars: map[string]string{
				"TETHERBOOTH_DEADLINE": "soon",
			},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name: "returns error for invalid int",
			envVars: map[string]string{
				"TETHERBOOTH_QUALITY": "high",
			},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name: "returns error for invalid int64",
			envVars: map[string]string{
				"TETHERBOOTH_CLEANUP_HIGH_BYTES": "lots",
			},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name: "handles bool '1' as true",
			envVars: map[string]string{
				"TETHERBOOTH_MANUAL_FALLBACK": "1",
			},
			changed:  map[string]bool{},
			expected: Config{ManualFallback: true},
		},
		{
			name: "handles bool 'false' as false",
			envVars: map[string]string{
				"TETHERBOOTH_TRIGGER": "false",
			},
			changed:  map[string]bool{},
			initial:  Config{Trigger: true},
			expected: Config{Trigger: false},
		},
		{
			name: "splits comma-separated lists",
			envVars: map[string]string{
				"TETHERBOOTH_TITLES":     "EOS R100, Remote Live View ,",
				"TETHERBOOTH_EXTENSIONS": ".jpg,.cr3",
			},
			changed: map[string]bool{},
			expected: Config{
				Titles:     []string{"EOS R100", "Remote Live View"},
				Extensions: []string{".jpg", ".cr3"},
			},
		},
		{
			name: "handles all field types correctly",
			envVars: map[string]string{
				"TETHERBOOTH_RESULTS_DIR":        "/prints",
				"TETHERBOOTH_FRAME":              "/frames/gold.png",
				"TETHERBOOTH_FILTER":             "warm",
				"TETHERBOOTH_SETTLE_DELAY":       "400ms",
				"TETHERBOOTH_PER_SHOT":           "8s",
				"TETHERBOOTH_ATTEMPTS":           "5",
				"TETHERBOOTH_BREAKER_THRESHOLD":  "9",
				"TETHERBOOTH_MIN_INTERVAL":       "2s",
				"TETHERBOOTH_KEY_COMMAND":        "xdotool key Return",
				"TETHERBOOTH_PLACEHOLDER":        "#101010",
				"TETHERBOOTH_CLEANUP":            "0",
				"TETHERBOOTH_CLEANUP_MAX_AGE":    "48h",
				"TETHERBOOTH_CLEANUP_HIGH_BYTES": "1048576",
				"TETHERBOOTH_METRICS_ADDR":       ":9100",
				"TETHERBOOTH_LOG_LEVEL":          "debug",
			},
			changed: map[string]bool{},
			initial: Config{Cleanup: true},
			expected: Config{
				ResultsDir:       "/prints",
				FramePath:        "/frames/gold.png",
				Filter:           "warm",
				SettleDelay:      400 * time.Millisecond,
				PerShot:          8 * time.Second,
				Attempts:         5,
				BreakerThreshold: 9,
				MinInterval:      2 * time.Second,
				KeyCommand:       "xdotool key Return",
				Placeholder:      "#101010",
				Cleanup:          false,
				CleanupMaxAge:    48 * time.Hour,
				CleanupHighBytes: 1 << 20,
				MetricsAddr:      ":9100",
				LogLevel:         "debug",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)

			if tt.wantErr && err == nil {
				t.Error("ApplyEnvConfig() expected error but got nil")
				return
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ApplyEnvConfig() unexpected error: %v", err)
				return
			}

			if !tt.wantErr && !reflect.DeepEqual(cfg, tt.expected) {
				t.Errorf("ApplyEnvConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "TETHERBOOTH_LAYOUT=half_v4\nTETHERBOOTH_TARGET=8\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create .env file: %v", err)
	}

	// Already-set variables win over the file.
	t.Setenv("TETHERBOOTH_TARGET", "2")
	t.Setenv("TETHERBOOTH_LAYOUT", "")
	os.Unsetenv("TETHERBOOTH_LAYOUT")

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}

	if got := os.Getenv("TETHERBOOTH_LAYOUT"); got != "half_v4" {
		t.Errorf("TETHERBOOTH_LAYOUT = %q, want half_v4", got)
	}
	if got := os.Getenv("TETHERBOOTH_TARGET"); got != "2" {
		t.Errorf("TETHERBOOTH_TARGET = %q, want 2 (environment should win)", got)
	}
	os.Unsetenv("TETHERBOOTH_LAYOUT")
}

// Integration test: precedence order (CLI > Env > File)
func TestConfigPrecedence(t *testing.T) {
	trueVal := true

	fileConf := FileConfig{
		Home:      "/file/booth",
		LayoutKey: "full_v2",
		Mirror:    &trueVal,
		Capture:   CaptureFileConfig{Target: 2},
	}

	t.Setenv("TETHERBOOTH_HOME", "/env/booth")
	t.Setenv("TETHERBOOTH_LAYOUT", "full_h4")
	t.Setenv("TETHERBOOTH_WATCH_DIR", "/env/incoming")

	changed := map[string]bool{
		"home": true, // CLI flag was set for home
	}

	cfg := Config{
		Home: "/cli/booth", // This should remain (CLI wins)
	}

	if err := ApplyFileConfig(&cfg, fileConf, changed); err != nil {
		t.Fatalf("ApplyFileConfig failed: %v", err)
	}
	if err := ApplyEnvConfig(&cfg, changed); err != nil {
		t.Fatalf("ApplyEnvConfig failed: %v", err)
	}

	if cfg.Home != "/cli/booth" {
		t.Errorf("Home = %v, want /cli/booth (CLI should win)", cfg.Home)
	}
	if cfg.LayoutKey != "full_h4" {
		t.Errorf("LayoutKey = %v, want full_h4 (env should override file)", cfg.LayoutKey)
	}
	if cfg.WatchDir != "/env/incoming" {
		t.Errorf("WatchDir = %v, want /env/incoming (env should set)", cfg.WatchDir)
	}
	if cfg.Target != 2 {
		t.Errorf("Target = %v, want 2 (file should set)", cfg.Target)
	}
	if !cfg.Mirror {
		t.Errorf("Mirror = %v, want true (file should set)", cfg.Mirror)
	}
}
