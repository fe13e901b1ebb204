// Package shutter asks an already running remote-capture application to
// take a picture.
//
// The booth has no camera SDK. Instead a [Trigger] brings one of several
// known windows to the foreground and sends the application's capture key.
// Candidate titles are tried in order, and the whole list is retried a
// bounded number of times with backoff. When no window can be activated no
// key is sent at all, so a stray keystroke never reaches an unrelated
// application.
//
// Failures are reported in the returned [Outcome]. The caller decides
// whether to fall back to another capture path.
//
// # Basic Usage
//
//	t := shutter.New(shutter.NewXdotoolActivator(), shutter.NewXdotoolKeySender(),
//	    shutter.WithSettle(500*time.Millisecond),
//	)
//	if out := t.Fire(ctx); !out.Fired {
//	    logger.Warn("shutter failed", log.Err(out.Err))
//	}
package shutter
