package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonboulle/clockwork"

	"github.com/bft-labs/tetherbooth/internal/domain"
)

const (
	manifestFileName = "session.json"
	latestFileName   = "latest.txt"

	// TimestampLayout formats the timestamp part of session and result names.
	TimestampLayout = "20060102_150405"
)

// SessionStore implements ports.SessionRepository under a root directory.
type SessionStore struct {
	root  string
	clock clockwork.Clock
}

// NewSessionStore creates a SessionStore rooted at root. A nil clock selects
// the real clock.
func NewSessionStore(root string, clock clockwork.Clock) *SessionStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SessionStore{root: root, clock: clock}
}

// Root returns the sessions root directory.
func (r *SessionStore) Root() string {
	return r.root
}

// Create makes "session_YYYYMMDD_HHMMSS", adding "_2", "_3", ... when a
// session with the same second already exists.
func (r *SessionStore) Create(ctx context.Context) (string, string, error) {
	if err := os.MkdirAll(r.root, 0o755); err != nil {
		return "", "", fmt.Errorf("create sessions root: %w", err)
	}
	root, err := filepath.Abs(r.root)
	if err != nil {
		return "", "", err
	}

	base := "session_" + r.clock.Now().Format(TimestampLayout)
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return "", "", err
		}
		id := base
		if n > 1 {
			id = fmt.Sprintf("%s_%d", base, n)
		}
		dir := filepath.Join(root, id)
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			return id, dir, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", "", fmt.Errorf("create session dir: %w", err)
		}
	}
}

// Import copies src into dir as "NN_<name>", NN being the 1-based index.
func (r *SessionStore) Import(ctx context.Context, dir string, index int, src string) (domain.CapturedPhoto, error) {
	if err := ctx.Err(); err != nil {
		return domain.CapturedPhoto{}, err
	}
	dst := filepath.Join(dir, fmt.Sprintf("%02d_%s", index+1, filepath.Base(src)))
	n, err := copyFile(src, dst)
	if err != nil {
		return domain.CapturedPhoto{}, fmt.Errorf("import %s: %w", filepath.Base(src), err)
	}
	return domain.CapturedPhoto{
		SourcePath:  src,
		SessionPath: dst,
		Size:        n,
		Index:       index,
	}, nil
}

// SaveManifest writes session.json and, when the session has photos,
// latest.txt holding the path of the newest copy.
func (r *SessionStore) SaveManifest(ctx context.Context, s domain.CaptureSession) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := writeFileAtomic(s.Dir, manifestFileName, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if len(s.Photos) == 0 {
		return nil
	}
	latest := s.Photos[len(s.Photos)-1].SessionPath
	if err := writeFileAtomic(s.Dir, latestFileName, []byte(latest), 0o644); err != nil {
		return fmt.Errorf("write latest pointer: %w", err)
	}
	return nil
}

// LoadManifest reads session.json from dir.
func (r *SessionStore) LoadManifest(ctx context.Context, dir string) (domain.CaptureSession, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFileName))
	if err != nil {
		return domain.CaptureSession{}, err
	}
	var s domain.CaptureSession
	if err := json.Unmarshal(data, &s); err != nil {
		return domain.CaptureSession{}, fmt.Errorf("decode manifest: %w", err)
	}
	return s, nil
}

// Latest returns the path recorded in dir/latest.txt.
func (r *SessionStore) Latest(dir string) (string, error) {
	b, err := os.ReadFile(filepath.Join(dir, latestFileName))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
