package ports

import "context"

// WindowActivator brings a window whose title contains title to the
// foreground. It reports false, nil when no such window exists.
type WindowActivator interface {
	Activate(ctx context.Context, title string) (bool, error)
}

// KeySender sends the capture keystroke to the focused window.
type KeySender interface {
	SendCaptureKey(ctx context.Context) error
}
