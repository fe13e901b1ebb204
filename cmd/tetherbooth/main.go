package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/tetherbooth/internal/cliconfig"
	"github.com/bft-labs/tetherbooth/internal/metrics"
	"github.com/bft-labs/tetherbooth/pkg/booth"
	"github.com/bft-labs/tetherbooth/pkg/log"
)

const helpBanner = `
 _       _   _               _                 _   _
| |_ ___| |_| |__   ___ _ __| |__   ___   ___ | |_| |__
| __/ _ \ __| '_ \ / _ \ '__| '_ \ / _ \ / _ \| __| '_ \
| ||  __/ |_| | | |  __/ |  | |_) | (_) | (_) | |_| | | |
 \__\___|\__|_| |_|\___|_|  |_.__/ \___/ \___/ \__|_| |_|
`

const helpDescription = `
Run a tethered photo booth: fire the camera, collect the shots, print the strip.

Highlights:
  - Picks up photos from your tethering software's folder once they are fully written.
  - Fires the remote shutter by focusing the live-view window, with retries.
  - Composes 2x6 strips and 4x6 sheets from a validated layout table.
  - Configure via $HOME/.tetherbooth/config.toml, .env / TETHERBOOTH_* variables, or flags.
`

var longHelp = strings.TrimSpace(helpBanner) + "\n\n" + strings.TrimSpace(helpDescription)

var exampleUsage = strings.TrimSpace(`
  tetherbooth shoot --watch-dir ~/Pictures/EOS --layout full_v4a --filter warm
  tetherbooth compose --layout half_v2 a.jpg b.jpg
  tetherbooth layouts list
  tetherbooth --config /etc/tetherbooth.toml cleanup
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// app carries state shared by every subcommand.
type app struct {
	cfg     cliconfig.Config
	cfgPath string
	envFile string
	zl      zerolog.Logger
	logger  log.Logger
	set     *metrics.Set
}

func main() {
	a := &app{cfg: cliconfig.DefaultConfig()}
	a.zl = cliconfig.Logger("info")

	root := &cobra.Command{
		Use:               "tetherbooth",
		Short:             "Run a tethered photo booth from the command line",
		Long:              longHelp,
		Example:           exampleUsage,
		Version:           fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}

	a.bindFlags(root.PersistentFlags())

	root.AddCommand(
		a.shootCmd(),
		a.watchCmd(),
		a.composeCmd(),
		a.filterCmd(),
		a.layoutsCmd(),
		a.triggerCmd(),
		a.cleanupCmd(),
	)

	if err := root.Execute(); err != nil {
		a.zl.Error().Err(err).Msg("tetherbooth")
		os.Exit(1)
	}
}

func (a *app) bindFlags(fs *pflag.FlagSet) {
	cfg := &a.cfg

	fs.StringVar(&a.cfgPath, "config", "", "path to config file (default: $HOME/.tetherbooth/config.toml)")
	fs.StringVar(&a.envFile, "env-file", "", "path to a .env file (default: ./.env)")

	fs.StringVar(&cfg.Home, "home", cfg.Home, "base directory for derived paths (default: $HOME/.tetherbooth)")
	fs.StringVar(&cfg.WatchDir, "watch-dir", cfg.WatchDir, "directory the tethering software writes photos to")
	fs.StringVar(&cfg.SessionsDir, "sessions-dir", cfg.SessionsDir, "directory for session copies")
	fs.StringVar(&cfg.ResultsDir, "results-dir", cfg.ResultsDir, "directory for composed prints")
	fs.StringVar(&cfg.MirrorDir, "mirror-dir", cfg.MirrorDir, "directory for mirrored photo cache")
	fs.StringVar(&cfg.LayoutsFile, "layouts", cfg.LayoutsFile, "YAML layout table replacing the built-in one")

	fs.StringVar(&cfg.LayoutKey, "layout", cfg.LayoutKey, "layout key, e.g. full_v4a or half_v2")
	fs.StringVar(&cfg.FramePath, "frame", cfg.FramePath, "frame overlay image")
	fs.StringVar(&cfg.Filter, "filter", cfg.Filter, "filter applied to the print (original, gray, warm, cool, bright, beauty)")
	fs.BoolVar(&cfg.Mirror, "mirror", cfg.Mirror, "mirror photos horizontally before composing")

	fs.DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "watch directory poll interval")
	fs.DurationVar(&cfg.SettleDelay, "settle", cfg.SettleDelay, "time a file size must stay unchanged before it is accepted")
	fs.StringSliceVar(&cfg.Extensions, "extensions", cfg.Extensions, "accepted photo extensions")
	fs.IntVar(&cfg.Target, "target", cfg.Target, "photos per session")
	fs.DurationVar(&cfg.PerShot, "per-shot", cfg.PerShot, "capture window after each trigger")
	fs.DurationVar(&cfg.Deadline, "deadline", cfg.Deadline, "time limit for a whole session")
	fs.DurationVar(&cfg.Interval, "interval", cfg.Interval, "pause before each shot")
	fs.BoolVar(&cfg.ManualFallback, "manual-fallback", cfg.ManualFallback, "keep waiting for a shot when the trigger fails")

	fs.BoolVar(&cfg.Trigger, "trigger", cfg.Trigger, "fire the remote shutter automatically")
	fs.StringSliceVar(&cfg.Titles, "titles", cfg.Titles, "remote live view window titles, tried in order")
	fs.IntVar(&cfg.Attempts, "attempts", cfg.Attempts, "activation attempts per shot")
	fs.DurationVar(&cfg.Backoff, "backoff", cfg.Backoff, "initial delay between activation attempts")
	fs.DurationVar(&cfg.MaxBackoff, "max-backoff", cfg.MaxBackoff, "maximum delay between activation attempts")
	fs.DurationVar(&cfg.TriggerSettle, "trigger-settle", cfg.TriggerSettle, "delay after sending the capture key")
	fs.DurationVar(&cfg.MinInterval, "min-interval", cfg.MinInterval, "minimum time between two shots")
	fs.IntVar(&cfg.BreakerThreshold, "breaker-threshold", cfg.BreakerThreshold, "consecutive trigger failures before pausing (0 disables)")
	fs.DurationVar(&cfg.BreakerTimeout, "breaker-timeout", cfg.BreakerTimeout, "pause after repeated trigger failures")
	fs.StringVar(&cfg.ActivateCommand, "activate-cmd", cfg.ActivateCommand, "window activation command; {title} is replaced by the window title")
	fs.StringVar(&cfg.KeyCommand, "key-cmd", cfg.KeyCommand, "command that sends the capture key")

	fs.IntVar(&cfg.Quality, "quality", cfg.Quality, "JPEG quality of prints")
	fs.StringVar(&cfg.Placeholder, "placeholder", cfg.Placeholder, "colour for unreadable photos (#RRGGBB)")

	fs.BoolVar(&cfg.Cleanup, "cleanup", cfg.Cleanup, "prune the mirror cache in the background")
	fs.DurationVar(&cfg.CleanupInterval, "cleanup-interval", cfg.CleanupInterval, "mirror cache check interval")
	fs.DurationVar(&cfg.CleanupMaxAge, "cleanup-max-age", cfg.CleanupMaxAge, "remove mirrored files unused for longer than this")
	fs.Int64Var(&cfg.CleanupHighBytes, "cleanup-high-bytes", cfg.CleanupHighBytes, "mirror cache size that triggers trimming")
	fs.Int64Var(&cfg.CleanupLowBytes, "cleanup-low-bytes", cfg.CleanupLowBytes, "mirror cache size to trim down to")

	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve Prometheus metrics on this address (e.g. :9100)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	for _, name := range []string{"sessions-dir", "mirror-dir", "backoff", "max-backoff", "trigger-settle", "breaker-timeout"} {
		if err := fs.MarkHidden(name); err != nil {
			a.zl.Info().Err(err).Str("flag", name).Msg("failed to hide flag")
		}
	}
}

// load layers the configuration: defaults < config file < .env and
// environment < explicitly set flags.
func (a *app) load(cmd *cobra.Command, _ []string) error {
	if err := a.loadDotEnv(); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}

	cfgFile := a.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&a.cfg, fc, changed); err != nil {
			return err
		}
	} else if a.cfgPath != "" {
		return fmt.Errorf("config file %s not found", a.cfgPath)
	}

	if err := cliconfig.ApplyEnvConfig(&a.cfg, changed); err != nil {
		return err
	}

	if err := a.cfg.Validate(); err != nil {
		return err
	}

	a.zl = cliconfig.Logger(a.cfg.LogLevel)
	a.logger = log.NewZerologAdapterWithLogger(a.zl)
	a.zl.Debug().Interface("config", a.cfg).Msg("configuration")
	return nil
}

func (a *app) loadDotEnv() error {
	if a.envFile != "" {
		if !cliconfig.FileExists(a.envFile) {
			return fmt.Errorf("%s not found", a.envFile)
		}
		return cliconfig.LoadDotEnv(a.envFile)
	}
	return cliconfig.LoadDotEnv()
}

// newBooth builds a booth from the loaded configuration.
func (a *app) newBooth(opts ...booth.Option) (*booth.Booth, error) {
	bc, err := a.cfg.BoothConfig()
	if err != nil {
		return nil, err
	}
	opts = append([]booth.Option{booth.WithLogger(a.logger)}, opts...)
	if a.set != nil {
		opts = append(opts, booth.WithMetrics(a.set))
	}
	b, err := booth.New(bc, opts...)
	if err != nil {
		return nil, fmt.Errorf("create booth: %w", err)
	}
	return b, nil
}

// withBooth starts a booth, runs fn and stops the booth again.
func (a *app) withBooth(ctx context.Context, fn func(context.Context, *booth.Booth) error, opts ...booth.Option) error {
	b, err := a.newBooth(opts...)
	if err != nil {
		return err
	}
	if err := b.Start(ctx); err != nil {
		return fmt.Errorf("start booth: %w", err)
	}

	runErr := fn(ctx, b)

	if err := b.Stop(); err != nil {
		return errors.Join(runErr, fmt.Errorf("stop booth: %w", err))
	}
	return runErr
}

// serveMetrics starts the metrics endpoint when an address is configured.
// The returned function shuts it down.
func (a *app) serveMetrics() func() {
	if a.cfg.MetricsAddr == "" {
		return func() {}
	}
	reg := metrics.NewRegistry()
	a.set = metrics.NewSet(reg)

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	srv := &http.Server{
		Addr:              a.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.zl.Info().Str("addr", a.cfg.MetricsAddr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.zl.Error().Err(err).Msg("metrics server")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
