// Package viewport converts between canonical image space and the display
// space a consumer renders the image in. A single uniform ratio relates the
// two spaces; it is recomputed whenever the canvas or image size changes.
package viewport

import (
	"image"
	"math"

	"minview/internal/minutiae"
)

// AspectRatio returns the ratio to scale an image by so that it fills the
// canvas while keeping its aspect ratio: min(cw/iw, ch/ih). Degenerate
// sizes (any dimension <= 0) yield 0.
func AspectRatio(canvas, img image.Point) float64 {
	if canvas.X <= 0 || canvas.Y <= 0 || img.X <= 0 || img.Y <= 0 {
		return 0
	}
	return math.Min(float64(canvas.X)/float64(img.X), float64(canvas.Y)/float64(img.Y))
}

// Transform is the fitted mapping of one image into one canvas
type Transform struct {
	Ratio  float64
	Image  image.Point // canonical image size
	Scaled image.Point // image size in display space
}

// Fit computes the transform that fits an image of the given size into the canvas
func Fit(canvas, img image.Point) Transform {
	r := AspectRatio(canvas, img)
	return Transform{
		Ratio:  r,
		Image:  img,
		Scaled: ScaleSize(img, r),
	}
}

// Identity returns a 1:1 transform for an image of the given size
func Identity(img image.Point) Transform {
	return Transform{Ratio: 1, Image: img, Scaled: img}
}

// ScaleSize returns (round(w*r), round(h*r))
func ScaleSize(size image.Point, r float64) image.Point {
	return image.Pt(
		int(math.Round(float64(size.X)*r)),
		int(math.Round(float64(size.Y)*r)),
	)
}

// Degenerate reports whether the transform cannot be rendered
func (t Transform) Degenerate() bool {
	return t.Ratio <= 0 || t.Scaled.X <= 0 || t.Scaled.Y <= 0
}

// ToDisplay maps a canonical point into display space
func (t Transform) ToDisplay(p image.Point) image.Point {
	return image.Pt(
		int(math.Round(float64(p.X)*t.Ratio)),
		int(math.Round(float64(p.Y)*t.Ratio)),
	)
}

// ToCanonical maps a display point into canonical space. A degenerate
// transform returns the point unchanged.
func (t Transform) ToCanonical(p image.Point) image.Point {
	if t.Ratio <= 0 {
		return p
	}
	return image.Pt(
		int(math.Round(float64(p.X)/t.Ratio)),
		int(math.Round(float64(p.Y)/t.Ratio)),
	)
}

// Contains reports whether a display point lies on the scaled image
func (t Transform) Contains(p image.Point) bool {
	if t.Degenerate() {
		return false
	}
	return p.In(image.Rectangle{Max: t.Scaled})
}

// ScaleMinutiae maps canonical minutiae into display space. Angle, type
// and quality are kept.
func ScaleMinutiae(ms []minutiae.Minutia, ratio float64) []minutiae.Minutia {
	out := make([]minutiae.Minutia, len(ms))
	for i, m := range ms {
		m.X = int(math.Round(float64(m.X) * ratio))
		m.Y = int(math.Round(float64(m.Y) * ratio))
		out[i] = m
	}
	return out
}
