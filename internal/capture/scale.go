package capture

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// Scale resamples src by the given factor using Catmull-Rom interpolation.
// Factors outside (0, 1] are treated as 1, which skips resampling and only
// converts to RGBA. Dimensions round down but never below one pixel.
func Scale(src image.Image, factor float64) *image.RGBA {
	if factor <= 0 || factor > 1 {
		factor = 1
	}

	b := src.Bounds()
	if factor == 1 {
		dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		xdraw.Draw(dst, dst.Bounds(), src, b.Min, xdraw.Src)
		return dst
	}

	w := int(float64(b.Dx()) * factor)
	h := int(float64(b.Dy()) * factor)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}
