package compose

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/tetherbooth/internal/domain"
	"github.com/bft-labs/tetherbooth/pkg/layout"
)

func TestFitRect(t *testing.T) {
	tests := []struct {
		name string
		src  image.Rectangle
		w, h int
		want image.Rectangle
	}{
		{"wider source", image.Rect(0, 0, 400, 100), 100, 100, image.Rect(150, 0, 250, 100)},
		{"taller source", image.Rect(0, 0, 100, 400), 100, 100, image.Rect(0, 150, 100, 250)},
		{"same aspect", image.Rect(0, 0, 300, 200), 600, 400, image.Rect(0, 0, 300, 200)},
		{"offset bounds", image.Rect(10, 10, 410, 110), 1, 1, image.Rect(160, 10, 260, 110)},
		{"portrait slot", image.Rect(0, 0, 3000, 2000), 1140, 1560, image.Rect(769, 0, 2230, 2000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FitRect(tt.src, tt.w, tt.h)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.In(tt.src))
		})
	}
}

func TestFillSlot_ExactSize(t *testing.T) {
	for _, src := range []image.Rectangle{
		image.Rect(0, 0, 37, 911),
		image.Rect(0, 0, 1000, 10),
		image.Rect(0, 0, 1, 1),
	} {
		img := imaging.New(src.Dx(), src.Dy(), red)
		got := fillSlot(img, 714, 1004)
		assert.Equal(t, image.Rect(0, 0, 714, 1004), got.Bounds())
	}
}

func TestCompose_DimensionsMatchCanvas(t *testing.T) {
	dir := t.TempDir()
	wide := solidPNG(t, dir, "wide.png", 300, 40, red)
	tall := solidPNG(t, dir, "tall.png", 20, 500, blue)

	c, _ := newTestCompositor(t)
	for _, key := range []string{"full_v4a", "full_h2"} {
		res, err := c.Compose(context.Background(), domain.CompositionRequest{
			Photos:    []string{wide, tall},
			LayoutKey: key,
		})
		require.NoError(t, err)

		w, h := layout.CanvasSize(key)
		assert.Equal(t, w, res.Width)
		assert.Equal(t, h, res.Height)

		out, err := imaging.Open(res.Path)
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, w, h), out.Bounds())
		assert.Regexp(t, `print_20260501_120000(_\d+)?\.jpg$`, res.Path)
	}
}

func TestRender_WrapLawAndBackground(t *testing.T) {
	dir := t.TempDir()
	r := solidPNG(t, dir, "r.png", 64, 64, red)
	b := solidPNG(t, dir, "b.png", 64, 64, blue)

	c, _ := newTestCompositor(t)
	got, err := c.Render(context.Background(), domain.CompositionRequest{
		Photos:    []string{r, b},
		LayoutKey: "full_v4a",
	})
	require.NoError(t, err)
	require.Len(t, got.Layout.Slots, 4)

	for i, slot := range got.Layout.Slots {
		want := red
		if i%2 == 1 {
			want = blue
		}
		p := center(slot.Rect())
		assert.True(t, near(got.Image.NRGBAAt(p.X, p.Y), want, 2), "slot %d", i)
	}
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, got.Image.NRGBAAt(5, 5))
	assert.Empty(t, got.Placeholders)
	assert.False(t, got.Fallback)
}

func TestRender_CropToFillKeepsCenter(t *testing.T) {
	dir := t.TempDir()
	// 300x100: red | blue | red stripes. A square slot must show only blue.
	img := imaging.New(300, 100, red)
	img = imaging.Paste(img, imaging.New(100, 100, blue), image.Pt(100, 0))
	path := filepath.Join(dir, "stripes.png")
	require.NoError(t, imaging.Save(img, path))

	c, _ := newTestCompositor(t)
	got, err := c.Render(context.Background(), domain.CompositionRequest{
		Photos:    []string{path},
		LayoutKey: "full_v1",
	})
	require.NoError(t, err)

	slot := got.Layout.Slots[0].Rect()
	for _, p := range []image.Point{
		center(slot),
		image.Pt(slot.Min.X+50, slot.Min.Y+50),
		image.Pt(slot.Max.X-50, slot.Max.Y-50),
	} {
		assert.True(t, near(got.Image.NRGBAAt(p.X, p.Y), blue, 2), "pixel %v", p)
	}
}

func TestRender_PlaceholderForMissingPhoto(t *testing.T) {
	dir := t.TempDir()
	r := solidPNG(t, dir, "r.png", 32, 32, red)
	missing := filepath.Join(dir, "missing.jpg")

	c, _ := newTestCompositor(t)
	got, err := c.Render(context.Background(), domain.CompositionRequest{
		Photos:    []string{missing, r},
		LayoutKey: "full_v4a",
	})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 2}, got.Placeholders)
	p := center(got.Layout.Slots[0].Rect())
	assert.Equal(t, DefaultPlaceholder, got.Image.NRGBAAt(p.X, p.Y))
	p = center(got.Layout.Slots[1].Rect())
	assert.True(t, near(got.Image.NRGBAAt(p.X, p.Y), red, 2))
}

func TestRender_CorruptPhotoIsPlaceholder(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.jpg")
	require.NoError(t, os.WriteFile(bad, []byte("not a jpeg"), 0o644))

	c, _ := newTestCompositor(t, WithPlaceholder(color.NRGBA{R: 1, G: 2, B: 3, A: 255}))
	got, err := c.Render(context.Background(), domain.CompositionRequest{
		Photos:    []string{bad},
		LayoutKey: "full_v2",
	})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, got.Placeholders)
	p := center(got.Layout.Slots[1].Rect())
	assert.Equal(t, color.NRGBA{R: 1, G: 2, B: 3, A: 255}, got.Image.NRGBAAt(p.X, p.Y))
}

func TestRender_FrameOverlay(t *testing.T) {
	dir := t.TempDir()
	r := solidPNG(t, dir, "r.png", 32, 32, red)

	// 24x36 frame: opaque black band on the top row, transparent elsewhere.
	frame := imaging.New(24, 36, color.NRGBA{})
	frame = imaging.Paste(frame, imaging.New(24, 2, color.NRGBA{A: 255}), image.Pt(0, 0))
	framePath := filepath.Join(dir, "frame.png")
	require.NoError(t, imaging.Save(frame, framePath))

	c, _ := newTestCompositor(t)
	got, err := c.Render(context.Background(), domain.CompositionRequest{
		Photos:    []string{r},
		LayoutKey: "full_v4a",
		FramePath: framePath,
	})
	require.NoError(t, err)

	// The 2px band scales to 200px; its middle row is free of resampling blur.
	assert.Equal(t, color.NRGBA{A: 255}, got.Image.NRGBAAt(1200, 100))

	// Transparent frame areas show the photos, not the white background.
	for _, i := range []int{0, 3} {
		p := center(got.Layout.Slots[i].Rect())
		assert.True(t, near(got.Image.NRGBAAt(p.X, p.Y), red, 2), "slot %d", i)
	}
}

func TestRender_MissingFrameSkipped(t *testing.T) {
	dir := t.TempDir()
	r := solidPNG(t, dir, "r.png", 32, 32, red)

	c, _ := newTestCompositor(t)
	got, err := c.Render(context.Background(), domain.CompositionRequest{
		Photos:    []string{r},
		LayoutKey: "full_v1",
		FramePath: filepath.Join(dir, "nope.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, got.Image.NRGBAAt(5, 5))
}

func TestCompose_NoPhotos(t *testing.T) {
	c, _ := newTestCompositor(t)
	_, err := c.Compose(context.Background(), domain.CompositionRequest{LayoutKey: "full_v1"})
	assert.ErrorIs(t, err, domain.ErrNoPhotos)
}

func TestCompose_UnknownLayoutFallsBack(t *testing.T) {
	dir := t.TempDir()
	r := solidPNG(t, dir, "r.png", 16, 16, red)

	c, _ := newTestCompositor(t)
	res, err := c.Compose(context.Background(), domain.CompositionRequest{
		Photos:    []string{r},
		LayoutKey: "poster_x9",
	})
	require.NoError(t, err)

	assert.True(t, res.Fallback)
	assert.Equal(t, layout.DefaultKey, res.LayoutKey)
	assert.Equal(t, domain.PortraitWidth, res.Width)
}

func TestCompose_Deterministic(t *testing.T) {
	dir := t.TempDir()
	img := imaging.New(120, 90, red)
	img = imaging.Paste(img, imaging.New(40, 90, blue), image.Pt(40, 0))
	path := filepath.Join(dir, "p.png")
	require.NoError(t, imaging.Save(img, path))

	c, _ := newTestCompositor(t)
	req := domain.CompositionRequest{Photos: []string{path}, LayoutKey: "full_v2"}

	a, err := c.Compose(context.Background(), req)
	require.NoError(t, err)
	b, err := c.Compose(context.Background(), req)
	require.NoError(t, err)
	require.NotEqual(t, a.Path, b.Path)

	ab, err := os.ReadFile(a.Path)
	require.NoError(t, err)
	bb, err := os.ReadFile(b.Path)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(ab, bb))
}

func TestCompose_MirrorInMemory(t *testing.T) {
	dir := t.TempDir()
	img := imaging.New(100, 100, red)
	img = imaging.Paste(img, imaging.New(50, 100, blue), image.Pt(50, 0))
	path := filepath.Join(dir, "lr.png")
	require.NoError(t, imaging.Save(img, path))

	c, _ := newTestCompositor(t)
	got, err := c.Render(context.Background(), domain.CompositionRequest{
		Photos:    []string{path},
		LayoutKey: "full_v1",
		Mirror:    true,
	})
	require.NoError(t, err)

	slot := got.Layout.Slots[0].Rect()
	left := got.Image.NRGBAAt(slot.Min.X+100, center(slot).Y)
	right := got.Image.NRGBAAt(slot.Max.X-100, center(slot).Y)
	assert.True(t, near(left, blue, 2))
	assert.True(t, near(right, red, 2))
}

func TestCompose_MirrorThroughCache(t *testing.T) {
	dir := t.TempDir()
	path := solidPNG(t, dir, "p.png", 40, 40, red)
	cache := NewMirrorCache(filepath.Join(t.TempDir(), "mirror"))

	c, _ := newTestCompositor(t, WithMirrorCache(cache))
	_, err := c.Compose(context.Background(), domain.CompositionRequest{
		Photos:    []string{path},
		LayoutKey: "full_v1",
		Mirror:    true,
	})
	require.NoError(t, err)

	entries, err := os.ReadDir(cache.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Regexp(t, `^p_mirror_[0-9a-f]{8}\.png$`, entries[0].Name())
}

func TestSplitHalves(t *testing.T) {
	dir := t.TempDir()
	r := solidPNG(t, dir, "r.png", 32, 32, red)

	c, out := newTestCompositor(t)
	res, err := c.Compose(context.Background(), domain.CompositionRequest{
		Photos:    []string{r},
		LayoutKey: "half_v2",
	})
	require.NoError(t, err)
	require.True(t, IsHalfCut(res.LayoutKey))

	left, right, err := c.SplitHalves(context.Background(), res.Path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(out, "half_left_20260501_120000.jpg"), left)
	assert.Equal(t, filepath.Join(out, "half_right_20260501_120000.jpg"), right)
	for _, p := range []string{left, right} {
		img, err := imaging.Open(p)
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 1200, 3600), img.Bounds())
	}
	assert.False(t, IsHalfCut("full_v2"))
}
