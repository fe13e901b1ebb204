package compose

import "image"

// FitRect returns the largest rectangle centered in src that has the aspect
// ratio w:h. Cropping src to it and scaling to w x h fills the target with
// no letterboxing and no distortion.
func FitRect(src image.Rectangle, w, h int) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	if sw <= 0 || sh <= 0 || w <= 0 || h <= 0 {
		return src
	}

	if int64(sw)*int64(h) > int64(sh)*int64(w) {
		cw := int(int64(sh) * int64(w) / int64(h))
		if cw < 1 {
			cw = 1
		}
		x0 := src.Min.X + (sw-cw)/2
		return image.Rect(x0, src.Min.Y, x0+cw, src.Max.Y)
	}

	ch := int(int64(sw) * int64(h) / int64(w))
	if ch < 1 {
		ch = 1
	}
	y0 := src.Min.Y + (sh-ch)/2
	return image.Rect(src.Min.X, y0, src.Max.X, y0+ch)
}
