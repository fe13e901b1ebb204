package domain

import (
	"fmt"
	"time"
)

// SessionState is the collection state of a CaptureSession.
type SessionState int

const (
	SessionCollecting SessionState = iota
	SessionComplete
	SessionTimedOut
)

// String returns a human-readable representation of the state.
func (s SessionState) String() string {
	switch s {
	case SessionCollecting:
		return "collecting"
	case SessionComplete:
		return "complete"
	case SessionTimedOut:
		return "timed-out"
	default:
		return "unknown"
	}
}

// CapturedPhoto is one accepted file from the watch directory.
type CapturedPhoto struct {
	// SourcePath is the original file in the watch directory.
	SourcePath string `json:"source_path"`

	// SessionPath is the durable copy inside the session directory.
	SessionPath string `json:"session_path"`

	// Size is the byte size observed when the file was accepted.
	Size int64 `json:"size"`

	// Index is the 0-based acceptance order within the session.
	Index int `json:"index"`
}

// CaptureSession is a bounded photo-collection period tied to one customer.
// ID names the session directory; Token is an opaque random identifier that
// can be handed to systems outside the booth.
type CaptureSession struct {
	ID        string          `json:"id"`
	Token     string          `json:"token"`
	Dir       string          `json:"dir"`
	Target    int             `json:"target"`
	Photos    []CapturedPhoto `json:"photos"`
	State     SessionState    `json:"state"`
	StartedAt time.Time       `json:"started_at"`
	ClosedAt  time.Time       `json:"closed_at,omitempty"`
}

// Remaining returns how many photos are still needed to reach Target.
func (s *CaptureSession) Remaining() int {
	if n := s.Target - len(s.Photos); n > 0 {
		return n
	}
	return 0
}

// Clone returns a deep copy safe to hand to callers outside the owner.
func (s *CaptureSession) Clone() CaptureSession {
	c := *s
	c.Photos = append([]CapturedPhoto(nil), s.Photos...)
	return c
}

// SessionPaths returns the session-copy paths in acceptance order.
func (s *CaptureSession) SessionPaths() []string {
	out := make([]string, len(s.Photos))
	for i, p := range s.Photos {
		out[i] = p.SessionPath
	}
	return out
}

// MarshalText encodes the state by name.
func (s SessionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name written by MarshalText.
func (s *SessionState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "collecting":
		*s = SessionCollecting
	case "complete":
		*s = SessionComplete
	case "timed-out":
		*s = SessionTimedOut
	default:
		return fmt.Errorf("unknown session state %q", b)
	}
	return nil
}
