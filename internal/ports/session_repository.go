package ports

import (
	"context"

	"github.com/bft-labs/tetherbooth/internal/domain"
)

// SessionRepository owns the on-disk layout of capture sessions.
type SessionRepository interface {
	// Create makes a new, uniquely named session directory and returns its
	// ID and absolute path.
	Create(ctx context.Context) (id, dir string, err error)

	// Import copies src into dir as the index-th photo. The source file is
	// never moved or modified.
	Import(ctx context.Context, dir string, index int, src string) (domain.CapturedPhoto, error)

	// SaveManifest persists the session snapshot and its latest pointer.
	SaveManifest(ctx context.Context, s domain.CaptureSession) error

	// LoadManifest reads a previously saved session snapshot from dir.
	LoadManifest(ctx context.Context, dir string) (domain.CaptureSession, error)
}
