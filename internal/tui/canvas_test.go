package tui

import (
	"image"
	"image/color"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestCanvasGeometry(t *testing.T) {
	assert.Equal(t, image.Pt(80, 48), CanvasSize(80, 24))
	assert.Equal(t, image.Point{}, CanvasSize(0, 24))
	assert.Equal(t, image.Pt(7, 10), CellToPixel(7, 5))
}

func TestRenderHalfBlocks(t *testing.T) {
	r := lipgloss.NewRenderer(io.Discard)
	img := image.NewRGBA(image.Rect(0, 0, 2, 3))

	out := RenderHalfBlocks(r, img, 3, 3)
	lines := strings.Split(out, "\n")
	assert.Equal(t, []string{"▀▀ ", "▀▀ ", "   "}, lines)

	assert.Empty(t, RenderHalfBlocks(r, img, 0, 3))
}

func TestPixelHex(t *testing.T) {
	img := image.NewRGBA(image.Rect(10, 10, 12, 12))
	img.Set(11, 10, color.RGBA{R: 255, G: 128, A: 255})

	assert.Equal(t, "#ff8000", pixelHex(img, 1, 0))
	assert.Equal(t, "#000000", pixelHex(img, 0, 0))
	assert.Equal(t, "", pixelHex(img, 2, 0))
	assert.Equal(t, "", pixelHex(nil, 0, 0))
}
