package tui

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Each terminal cell shows two vertically stacked pixels: the upper one as
// the foreground of an upper half block, the lower one as its background.
const halfBlock = "▀"

// CanvasSize returns the display size in pixels of a canvas of cols x rows cells
func CanvasSize(cols, rows int) image.Point {
	if cols <= 0 || rows <= 0 {
		return image.Point{}
	}
	return image.Pt(cols, rows*2)
}

// CellToPixel maps a cell of the canvas to the display pixel under its upper half
func CellToPixel(col, row int) image.Point {
	return image.Pt(col, row*2)
}

// cell is the pair of colours drawn in one terminal cell. An empty string
// leaves that half unpainted.
type cell struct {
	fg, bg string
}

// RenderHalfBlocks draws img into a cols x rows block of text. Pixels
// outside img are left blank. Runs of identical cells share one style so
// the output stays small over SSH.
func RenderHalfBlocks(r *lipgloss.Renderer, img image.Image, cols, rows int) string {
	if cols <= 0 || rows <= 0 {
		return ""
	}

	var b strings.Builder
	for row := 0; row < rows; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		var run cell
		n := 0
		flush := func() {
			if n > 0 {
				b.WriteString(renderRun(r, run, n))
			}
		}
		for col := 0; col < cols; col++ {
			c := cell{
				fg: pixelHex(img, col, row*2),
				bg: pixelHex(img, col, row*2+1),
			}
			if n > 0 && c == run {
				n++
				continue
			}
			flush()
			run, n = c, 1
		}
		flush()
	}
	return b.String()
}

func renderRun(r *lipgloss.Renderer, c cell, n int) string {
	if c.fg == "" {
		return strings.Repeat(" ", n)
	}
	style := r.NewStyle().Foreground(lipgloss.Color(c.fg))
	if c.bg != "" {
		style = style.Background(lipgloss.Color(c.bg))
	}
	return style.Render(strings.Repeat(halfBlock, n))
}

// pixelHex returns the #rrggbb colour of the pixel at (x, y) relative to
// the image origin, or "" outside the image
func pixelHex(img image.Image, x, y int) string {
	if img == nil {
		return ""
	}
	b := img.Bounds()
	p := image.Pt(b.Min.X+x, b.Min.Y+y)
	if !p.In(b) {
		return ""
	}
	c := color.NRGBAModel.Convert(img.At(p.X, p.Y)).(color.NRGBA)
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
