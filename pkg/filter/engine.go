package filter

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/bft-labs/tetherbooth/internal/metrics"
	"github.com/bft-labs/tetherbooth/pkg/log"
)

// Filter names.
const (
	Original = "original"
	Gray     = "gray"
	Warm     = "warm"
	Cool     = "cool"
	Bright   = "bright"
	Beauty   = "beauty"
)

// DefaultQuality is the JPEG quality of filtered prints.
const DefaultQuality = 95

// Func transforms one decoded image.
type Func func(image.Image) *image.NRGBA

// smoothMore is the 5x5 SMOOTH_MORE kernel: a dominant centre tap, a
// medium inner ring and a light outer ring. Taps sum to 100.
var smoothMore = [25]float64{
	1, 1, 1, 1, 1,
	1, 5, 5, 5, 1,
	1, 5, 44, 5, 1,
	1, 5, 5, 5, 1,
	1, 1, 1, 1, 1,
}

var builtin = map[string]Func{
	Gray: func(img image.Image) *image.NRGBA {
		return imaging.Grayscale(img)
	},
	Warm: func(img image.Image) *image.NRGBA {
		return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
			c.R = scale(c.R, 1.1)
			return c
		})
	},
	Cool: func(img image.Image) *image.NRGBA {
		return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
			c.B = scale(c.B, 1.1)
			return c
		})
	},
	Bright: func(img image.Image) *image.NRGBA {
		return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
			c.R = scale(c.R, 1.2)
			c.G = scale(c.G, 1.2)
			c.B = scale(c.B, 1.2)
			return c
		})
	},
	Beauty: func(img image.Image) *image.NRGBA {
		return imaging.Convolve5x5(img, smoothMore, &imaging.ConvolveOptions{Normalize: true})
	},
}

// scale multiplies v by f, rounding and clamping to 255.
func scale(v uint8, f float64) uint8 {
	x := float64(v)*f + 0.5
	if x >= 255 {
		return 255
	}
	return uint8(x)
}

// Engine applies named filters to image files.
type Engine struct {
	funcs   map[string]Func
	quality int
	logger  log.Logger
	metrics *metrics.ComposeMetrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithQuality sets the JPEG quality, 1 to 100.
func WithQuality(q int) Option {
	return func(e *Engine) {
		if q >= 1 && q <= 100 {
			e.quality = q
		}
	}
}

// WithFilter registers fn under name, replacing a built-in of the same name.
// The identity name "original" cannot be replaced.
func WithFilter(name string, fn Func) Option {
	return func(e *Engine) {
		if name != Original && fn != nil {
			e.funcs[name] = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(e *Engine) {
		e.logger = log.OrNoop(l)
	}
}

// WithMetrics sets the metrics that count applied filters.
func WithMetrics(m *metrics.ComposeMetrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New creates an Engine with the built-in filters.
func New(opts ...Option) *Engine {
	e := &Engine{
		funcs:   make(map[string]Func, len(builtin)),
		quality: DefaultQuality,
		logger:  log.NewNoopLogger(),
	}
	for name, fn := range builtin {
		e.funcs[name] = fn
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Names returns "original" followed by the other filters in sorted order.
func (e *Engine) Names() []string {
	names := make([]string, 0, len(e.funcs))
	for name := range e.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return append([]string{Original}, names...)
}

// Known reports whether name selects a transform.
func (e *Engine) Known(name string) bool {
	_, ok := e.funcs[name]
	return ok || name == Original
}

// OutputPath returns where Apply writes the result of name for path.
func OutputPath(path, name string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_" + name + ext
}

// Apply runs the filter name on the image at path and returns the path of
// the result. Identity filters return path itself. On failure the input path
// is returned together with the error, so callers can keep the unfiltered
// print.
func (e *Engine) Apply(ctx context.Context, path, name string) (string, error) {
	fn, ok := e.funcs[name]
	if !ok {
		if name != Original && name != "" {
			e.logger.Warn("Unknown filter, keeping original", log.String("filter", name))
		}
		return path, nil
	}
	if err := ctx.Err(); err != nil {
		return path, err
	}

	img, err := imaging.Open(path)
	if err != nil {
		return path, fmt.Errorf("open %s: %w", path, err)
	}
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		format = imaging.JPEG
	}

	out := OutputPath(path, name)
	if err := save(out, fn(img), format, e.quality); err != nil {
		return path, fmt.Errorf("save %s: %w", out, err)
	}

	e.metrics.Filtered(name)
	e.logger.Info("Filter applied", log.String("filter", name), log.String("path", out))
	return out, nil
}

func save(path string, img image.Image, format imaging.Format, quality int) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".filter-*"+filepath.Ext(path))
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if err := imaging.Encode(tmp, img, format, imaging.JPEGQuality(quality)); err != nil {
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
