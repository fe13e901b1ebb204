// Package tetherbooth runs a tethered photo booth: it fires a camera through
// its remote live view window, collects the photos the tethering software
// writes, and composes them into printable strips and sheets.
//
// Example usage:
//
//	cfg := tetherbooth.DefaultConfig()
//	cfg.WatchDir = "/home/booth/Pictures/EOS"
//	b, err := tetherbooth.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := b.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Stop()
//	if _, err := b.RunSession(ctx, 0); err != nil {
//	    log.Fatal(err)
//	}
//	print, err := b.Finalize(ctx, tetherbooth.Selection{LayoutKey: "full_v4a"})
package tetherbooth

import (
	"github.com/bft-labs/tetherbooth/pkg/booth"
)

// Config holds the booth configuration.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = booth.Config

// TriggerConfig configures the remote shutter.
type TriggerConfig = booth.TriggerConfig

// Booth is a running photo booth.
type Booth = booth.Booth

// Selection describes one print to produce.
type Selection = booth.Selection

// Print is the output of Booth.Finalize.
type Print = booth.Print

// Option configures a Booth.
type Option = booth.Option

// New creates a booth in the stopped state. Call Start before use.
func New(cfg Config, opts ...Option) (*Booth, error) {
	return booth.New(cfg, opts...)
}

// DefaultConfig returns a Config with sensible default values.
// At minimum, set WatchDir to the tethering software's output folder.
func DefaultConfig() Config {
	return booth.DefaultConfig()
}
