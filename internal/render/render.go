// Package render draws the minutiae overlay and prepares fingerprint
// images for display.
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/gogpu/gg"
	xdraw "golang.org/x/image/draw"

	"minview/internal/minutiae"
)

// Marker colours, as RGB in [0, 1]
var (
	BifurcationColor = [3]float64{1, 0, 0}
	RidgeEndingColor = [3]float64{0, 1, 0}
)

// DirectionScale is the length of the direction line relative to the marker size
const DirectionScale = 1.5

// DefaultOpacity draws fully opaque markers
const DefaultOpacity = 100

// Options controls how the overlay is drawn
type Options struct {
	// MarkerSize is the marker width in pixels. Zero picks DefaultMarkerSize.
	MarkerSize float64
	// Opacity of the markers, 0-100, clamped. Zero hides the overlay, so
	// callers start from DefaultOpacity.
	Opacity int
	// LineWidth of marker outlines and direction lines. Zero means 1.
	LineWidth float64
}

// DefaultMarkerSize scales the marker with the image: 10px on a 512px image
func DefaultMarkerSize(w, h int) float64 {
	return float64(min(w, h)) / 512.0 * 10.0
}

// DrawMinutiae draws the minutiae onto a copy of img. Bifurcations are
// drawn as circles and ridge endings as squares, each with a line
// pointing along the minutia's direction. The minutiae must already be in
// img's coordinate space.
func DrawMinutiae(img image.Image, ms []minutiae.Minutia, opts Options) (image.Image, error) {
	b := img.Bounds()
	size := opts.MarkerSize
	if size <= 0 {
		size = DefaultMarkerSize(b.Dx(), b.Dy())
	}
	alpha := float64(min(max(opts.Opacity, 0), 100)) / 100
	if alpha == 0 {
		for _, m := range ms {
			if !m.Type.IsValid() {
				return nil, fmt.Errorf("unknown minutia type: %v", m)
			}
		}
		dst := image.NewRGBA(image.Rectangle{Max: b.Size()})
		xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
		return dst, nil
	}
	lineWidth := opts.LineWidth
	if lineWidth <= 0 {
		lineWidth = 1
	}

	dc := gg.NewContextForImage(img)
	defer dc.Close()
	dc.SetLineWidth(lineWidth)

	half := size / 2
	for _, m := range ms {
		x := float64(m.X - b.Min.X)
		y := float64(m.Y - b.Min.Y)

		var rgb [3]float64
		switch m.Type {
		case minutiae.Bifurcation:
			rgb = BifurcationColor
			dc.DrawCircle(x, y, half)
		case minutiae.RidgeEnding:
			rgb = RidgeEndingColor
			dc.DrawRectangle(x-half, y-half, size, size)
		default:
			return nil, fmt.Errorf("unknown minutia type: %v", m)
		}
		dc.SetRGBA(rgb[0], rgb[1], rgb[2], alpha)
		if err := dc.Stroke(); err != nil {
			return nil, fmt.Errorf("failed to draw marker: %w", err)
		}

		dx, dy := m.Direction()
		length := size * DirectionScale
		dc.DrawLine(x, y, x+dx*length, y+dy*length)
		if err := dc.Stroke(); err != nil {
			return nil, fmt.Errorf("failed to draw direction: %w", err)
		}
	}

	if err := dc.FlushGPU(); err != nil {
		return nil, fmt.Errorf("failed to flush overlay: %w", err)
	}
	return dc.Image(), nil
}

// Scale resizes img to size. A size matching the image returns img as is.
func Scale(img image.Image, size image.Point) image.Image {
	if size.X <= 0 || size.Y <= 0 {
		return image.NewRGBA(image.Rectangle{})
	}
	if img.Bounds().Size() == size {
		return img
	}
	dst := image.NewRGBA(image.Rectangle{Max: size})
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}

// Fade composites img at the given opacity (0-100) over white. 100 returns
// img unchanged.
func Fade(img image.Image, opacity int) image.Image {
	if opacity >= 100 {
		return img
	}
	opacity = max(opacity, 0)

	b := img.Bounds()
	dst := image.NewRGBA(image.Rectangle{Max: b.Size()})
	xdraw.Draw(dst, dst.Bounds(), image.White, image.Point{}, xdraw.Src)
	mask := image.NewUniform(color.Alpha{A: uint8(math.Round(float64(opacity) * 255 / 100))})
	xdraw.DrawMask(dst, dst.Bounds(), img, b.Min, mask, image.Point{}, xdraw.Over)
	return dst
}
