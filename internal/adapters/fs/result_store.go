package fs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jonboulle/clockwork"
)

// ResultStore implements ports.ResultRepository in a single directory.
type ResultStore struct {
	dir   string
	clock clockwork.Clock
}

// NewResultStore creates a ResultStore writing into dir. A nil clock selects
// the real clock.
func NewResultStore(dir string, clock clockwork.Clock) *ResultStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ResultStore{dir: dir, clock: clock}
}

// Dir returns the results directory.
func (r *ResultStore) Dir() string {
	return r.dir
}

// Save writes to a temp file and then claims the first free name of the form
// "<prefix>_YYYYMMDD_HHMMSS[_N]<ext>".
func (r *ResultStore) Save(ctx context.Context, prefix, ext string, write func(io.Writer) error) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create results dir: %w", err)
	}

	tmp, err := os.CreateTemp(r.dir, "."+prefix+".tmp-*"+ext)
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	bw := bufio.NewWriter(tmp)
	if err := write(bw); err != nil {
		return "", err
	}
	if err := bw.Flush(); err != nil {
		return "", err
	}
	if err := tmp.Chmod(0o644); err != nil {
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	base := prefix + "_" + r.clock.Now().Format(TimestampLayout)
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		name := base + ext
		if n > 1 {
			name = fmt.Sprintf("%s_%d%s", base, n, ext)
		}
		dst := filepath.Join(r.dir, name)
		err := claim(tmpName, dst)
		if err == nil {
			return dst, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("store result: %w", err)
		}
	}
}

// claim moves tmp to dst without replacing an existing dst. It prefers a
// hard link and falls back to an exclusive create plus rename.
func claim(tmp, dst string) error {
	err := os.Link(tmp, dst)
	if err == nil {
		return nil
	}
	if errors.Is(err, os.ErrExist) {
		return err
	}

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	_ = f.Close()
	return os.Rename(tmp, dst)
}
