package compose

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/disintegration/imaging"

	"github.com/bft-labs/tetherbooth/internal/domain"
	"github.com/bft-labs/tetherbooth/internal/ports"
	"github.com/bft-labs/tetherbooth/pkg/layout"
	"github.com/bft-labs/tetherbooth/pkg/log"
)

// PrintPrefix is the file name prefix of composed prints.
const PrintPrefix = "print"

// Compositor renders CompositionRequests onto layout canvases.
type Compositor struct {
	registry *layout.Registry
	results  ports.ResultRepository
	opts     options
}

// New creates a Compositor that resolves layouts through reg and stores
// prints in results.
func New(reg *layout.Registry, results ports.ResultRepository, opts ...Option) *Compositor {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Compositor{registry: reg, results: results, opts: o}
}

// Rendered is an in-memory composition.
type Rendered struct {
	Image        *image.NRGBA
	Layout       domain.SlotLayout
	Fallback     bool
	Placeholders []int
}

// Compose renders req and stores it as "print_YYYYMMDD_HHMMSS[_N].jpg".
func (c *Compositor) Compose(ctx context.Context, req domain.CompositionRequest) (domain.CompositeResult, error) {
	start := c.opts.clock.Now()

	if len(req.Photos) == 0 {
		return domain.CompositeResult{}, domain.ErrNoPhotos
	}

	photos := req.Photos
	flip := false
	if req.Mirror {
		if c.opts.mirror != nil {
			mirrored, err := c.opts.mirror.Mirror(ctx, photos)
			if err != nil {
				return domain.CompositeResult{}, err
			}
			photos = mirrored
		} else {
			flip = true
		}
	}

	r, err := c.render(ctx, photos, req.LayoutKey, req.FramePath, flip)
	if err != nil {
		return domain.CompositeResult{}, err
	}

	path, err := c.results.Save(ctx, PrintPrefix, ".jpg", func(w io.Writer) error {
		return imaging.Encode(w, r.Image, imaging.JPEG, imaging.JPEGQuality(c.opts.quality))
	})
	if err != nil {
		return domain.CompositeResult{}, fmt.Errorf("save composite: %w", err)
	}

	c.opts.metrics.Composed(r.Layout.Key, len(r.Placeholders), c.opts.clock.Since(start))
	c.opts.logger.Info("Composite saved",
		log.String("path", path),
		log.String("layout", r.Layout.Key),
		log.Int("photos", len(req.Photos)),
		log.Int("placeholders", len(r.Placeholders)),
	)

	return domain.CompositeResult{
		Path:         path,
		Width:        r.Layout.Width,
		Height:       r.Layout.Height,
		LayoutKey:    r.Layout.Key,
		Fallback:     r.Fallback,
		Placeholders: r.Placeholders,
	}, nil
}

// Render composes req in memory without mirroring or storing it.
func (c *Compositor) Render(ctx context.Context, req domain.CompositionRequest) (Rendered, error) {
	if len(req.Photos) == 0 {
		return Rendered{}, domain.ErrNoPhotos
	}
	return c.render(ctx, req.Photos, req.LayoutKey, req.FramePath, req.Mirror)
}

func (c *Compositor) render(ctx context.Context, photos []string, key, framePath string, flip bool) (Rendered, error) {
	l, found := c.registry.Lookup(key)
	if !found {
		c.opts.logger.Warn("Unknown layout, using default",
			log.String("requested", key),
			log.String("layout", l.Key),
		)
	}

	canvas := imaging.New(l.Width, l.Height, color.White)
	decoded := make(map[string]image.Image, len(photos))
	failed := make(map[string]bool)
	var placeholders []int

	for i, slot := range l.Slots {
		if err := ctx.Err(); err != nil {
			return Rendered{}, err
		}

		path := photos[i%len(photos)]
		img, ok := decoded[path]
		if !ok && !failed[path] {
			var err error
			img, err = loadImage(path)
			if err != nil {
				c.opts.logger.Warn("Photo unreadable, using placeholder",
					log.String("path", path),
					log.Int("slot", i),
					log.Err(err),
				)
				failed[path] = true
			} else {
				if flip {
					img = imaging.FlipH(img)
				}
				decoded[path] = img
			}
		}

		if img == nil {
			fillRect(canvas, slot.Rect(), c.opts.placeholder)
			placeholders = append(placeholders, i)
			continue
		}

		draw.Draw(canvas, slot.Rect(), fillSlot(img, slot.W, slot.H), image.Point{}, draw.Src)
	}

	if framePath != "" {
		frame, err := loadImage(framePath)
		if err != nil {
			c.opts.logger.Warn("Frame unreadable, skipping overlay",
				log.String("path", framePath),
				log.Err(err),
			)
		} else {
			frame = imaging.Resize(frame, l.Width, l.Height, imaging.Lanczos)
			canvas = imaging.Overlay(canvas, frame, image.Pt(0, 0), 1.0)
		}
	}

	return Rendered{
		Image:        canvas,
		Layout:       l,
		Fallback:     !found,
		Placeholders: placeholders,
	}, nil
}

// fillSlot center-crops img to the w:h aspect and resizes it to exactly w x h.
func fillSlot(img image.Image, w, h int) *image.NRGBA {
	crop := imaging.Crop(img, FitRect(img.Bounds(), w, h))
	return imaging.Resize(crop, w, h, imaging.Lanczos)
}

func fillRect(dst *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func loadImage(path string) (image.Image, error) {
	return imaging.Open(path, imaging.AutoOrientation(true))
}
