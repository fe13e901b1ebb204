package ports

import (
	"context"
	"io"
)

// ResultRepository persists generated prints.
type ResultRepository interface {
	// Save writes the output of write to a new file named
	// "<prefix>_YYYYMMDD_HHMMSS[_N]<ext>" and returns its path. An existing
	// file is never overwritten.
	Save(ctx context.Context, prefix, ext string, write func(io.Writer) error) (string, error)
}
