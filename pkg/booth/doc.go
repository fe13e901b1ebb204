// Package booth runs a tethered photo booth: it collects photos from the
// camera software's output directory into capture sessions, fires the
// remote shutter, and turns a selection of photos into a finished print.
//
// # Basic Usage
//
//	cfg := booth.DefaultConfig()
//	cfg.WatchDir = "/srv/eos/incoming"
//	cfg.Trigger.Enabled = true
//
//	b, err := booth.New(cfg, booth.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := b.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Stop()
//
//	report, err := b.RunSession(ctx, 4)
//	if err != nil {
//	    return err
//	}
//	p, err := b.Finalize(ctx, booth.Selection{
//	    Photos:    report.Session.SessionPaths(),
//	    LayoutKey: "full_v4a",
//	    Filter:    "warm",
//	})
//
// # Configuration
//
// Create a [Config] with [DefaultConfig] or fill one in and let [New] call
// [Config.SetDefaults]. Unset directories are derived from Config.Home.
// The configuration is copied at construction and never changes afterwards.
//
// # Event Handling
//
// Implement [EventHandler] (or embed [BaseEventHandler]) and pass it via
// [WithEventHandler] to observe state changes, accepted photos and stored
// prints. Events are called synchronously from the working goroutine.
//
// # Lifecycle States
//
// A Booth can be in one of five states: [StateStopped], [StateStarting],
// [StateRunning], [StateStopping], or [StateCrashed]. RunSession and
// Finalize require StateRunning; Stop cancels them and waits up to
// lifecycle.ShutdownTimeout.
//
// # Mirror Cache Cleanup
//
// When Config.Cleanup.Enabled is set, Start launches a runner that prunes
// the mirror cache on Config.Cleanup.CheckInterval. [Booth.CleanupMirror]
// runs one pass on demand.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package booth
