package domain

import "errors"

// Domain errors represent error conditions in the tetherbooth domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running booth.
	ErrAlreadyRunning = errors.New("tetherbooth: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped booth.
	ErrNotRunning = errors.New("tetherbooth: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("tetherbooth: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("tetherbooth: invalid configuration")

	// ErrNoSession is returned when a session operation runs with no active session.
	ErrNoSession = errors.New("tetherbooth: no active session")

	// ErrSessionBusy is returned when a capture runs while another capture of
	// the same session is still in progress.
	ErrSessionBusy = errors.New("tetherbooth: capture already in progress")

	// ErrStaleBaseline is returned when a baseline snapshot from an earlier
	// session is used after a newer session has started.
	ErrStaleBaseline = errors.New("tetherbooth: stale baseline")

	// ErrNoPhotos is returned when a composition request carries no photos.
	ErrNoPhotos = errors.New("tetherbooth: no photos to compose")

	// ErrInvalidLayout is returned when the layout table fails validation.
	ErrInvalidLayout = errors.New("tetherbooth: invalid layout table")

	// ErrActivation is returned when no remote capture window could be
	// brought to the foreground. No capture key was sent.
	ErrActivation = errors.New("tetherbooth: remote capture window not activated")
)
