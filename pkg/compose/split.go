package compose

import (
	"context"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/bft-labs/tetherbooth/pkg/log"
)

// IsHalfCut reports whether key is a half-cut layout, printed as two strips.
func IsHalfCut(key string) bool {
	return strings.HasPrefix(key, "half_")
}

// SplitHalves cuts a stored composite into its left and right halves and
// stores them as "half_left_*.jpg" and "half_right_*.jpg".
func (c *Compositor) SplitHalves(ctx context.Context, path string) (left, right string, err error) {
	img, err := imaging.Open(path)
	if err != nil {
		return "", "", fmt.Errorf("open composite: %w", err)
	}
	b := img.Bounds()
	mid := b.Min.X + b.Dx()/2

	halves := []struct {
		prefix string
		rect   image.Rectangle
		out    *string
	}{
		{"half_left", image.Rect(b.Min.X, b.Min.Y, mid, b.Max.Y), &left},
		{"half_right", image.Rect(mid, b.Min.Y, b.Max.X, b.Max.Y), &right},
	}
	for _, h := range halves {
		part := imaging.Crop(img, h.rect)
		p, err := c.results.Save(ctx, h.prefix, ".jpg", func(w io.Writer) error {
			return imaging.Encode(w, part, imaging.JPEG, imaging.JPEGQuality(c.opts.quality))
		})
		if err != nil {
			return "", "", fmt.Errorf("save %s: %w", h.prefix, err)
		}
		*h.out = p
	}

	c.opts.logger.Info("Half-cut strips saved", log.String("left", left), log.String("right", right))
	return left, right, nil
}
