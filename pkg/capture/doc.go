// Package capture detects newly written, fully stabilized photos in a
// directory owned by an external tethering application.
//
// A [Watcher] compares the directory against a [Baseline] taken before the
// shot. A file whose name is absent from the baseline becomes a candidate.
// A candidate is accepted once its size is greater than zero and unchanged
// across two observations at least the settle delay apart. Candidates that
// vanish between observations are dropped without error and may be picked up
// again if they reappear.
//
// Single-shot and batch capture share one loop: single-shot is
// Watch(ctx, base, 1, timeout).
//
// # Basic Usage
//
//	w := capture.New("/srv/incoming")
//	base, err := w.Snapshot()
//	if err != nil {
//	    return err
//	}
//	// ... fire the shutter ...
//	res := w.Watch(ctx, base, 4, 20*time.Second)
//	if res.TimedOut {
//	    // res.Files holds whatever stabilized in time
//	}
//
// The watcher only reads the directory. It never deletes, renames or writes
// files there.
package capture
