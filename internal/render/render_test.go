package render

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minview/internal/minutiae"
)

func whiteImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	return img
}

func rgb(img image.Image, x, y int) (r, g, b uint8) {
	c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
	return c.R, c.G, c.B
}

func TestDefaultMarkerSize(t *testing.T) {
	assert.Equal(t, 10.0, DefaultMarkerSize(512, 600))
	assert.Equal(t, 5.0, DefaultMarkerSize(1024, 256))
}

func TestDrawMinutiae(t *testing.T) {
	src := whiteImage(100, 100)
	ms := []minutiae.Minutia{
		minutiae.New(50, 50, 90, minutiae.Bifurcation, 1),
		minutiae.New(20, 80, 0, minutiae.RidgeEnding, 1),
	}

	out, err := DrawMinutiae(src, ms, Options{MarkerSize: 20, Opacity: DefaultOpacity, LineWidth: 3})
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), out.Bounds())

	// right edge of the bifurcation circle
	r, g, b := rgb(out, 60, 50)
	assert.Greater(t, r, uint8(150))
	assert.Less(t, g, uint8(150))
	assert.Less(t, b, uint8(150))

	// left edge of the ridge ending square
	r, g, _ = rgb(out, 10, 80)
	assert.Greater(t, g, uint8(150))
	assert.Less(t, r, uint8(150))

	// untouched background
	r, g, b = rgb(out, 95, 5)
	assert.Equal(t, [3]uint8{255, 255, 255}, [3]uint8{r, g, b})

	// the source is never drawn on
	r, g, b = rgb(src, 60, 50)
	assert.Equal(t, [3]uint8{255, 255, 255}, [3]uint8{r, g, b})
}

func TestDrawMinutiae_Opacity(t *testing.T) {
	ms := []minutiae.Minutia{minutiae.New(32, 32, 0, minutiae.RidgeEnding, 1)}
	edge := func(opacity int) [3]uint8 {
		out, err := DrawMinutiae(whiteImage(64, 64), ms, Options{MarkerSize: 20, Opacity: opacity, LineWidth: 3})
		require.NoError(t, err)
		r, g, b := rgb(out, 22, 32)
		return [3]uint8{r, g, b}
	}

	hidden := edge(0)
	half := edge(50)
	full := edge(100)

	assert.Equal(t, [3]uint8{255, 255, 255}, hidden)
	assert.Less(t, full[0], half[0], "half opacity is lighter than full")
	assert.Less(t, half[0], uint8(255), "half opacity still draws")
	assert.Equal(t, full, edge(150), "opacity is clamped to 100")
	assert.Equal(t, hidden, edge(-5), "opacity is clamped to 0")
}

func TestDrawMinutiae_UnknownType(t *testing.T) {
	_, err := DrawMinutiae(whiteImage(10, 10), []minutiae.Minutia{{X: 1, Y: 1}}, Options{Opacity: DefaultOpacity})
	assert.Error(t, err)

	_, err = DrawMinutiae(whiteImage(10, 10), []minutiae.Minutia{{X: 1, Y: 1}}, Options{})
	assert.Error(t, err, "a hidden overlay still rejects unknown types")
}

func TestScale(t *testing.T) {
	src := whiteImage(40, 20)
	out := Scale(src, image.Pt(20, 10))
	assert.Equal(t, image.Pt(20, 10), out.Bounds().Size())

	assert.Same(t, src, Scale(src, image.Pt(40, 20)).(*image.RGBA))
	assert.True(t, Scale(src, image.Pt(0, 10)).Bounds().Empty())
}

func TestFade(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	draw.Draw(src, src.Bounds(), image.Black, image.Point{}, draw.Src)

	assert.Same(t, src, Fade(src, 100).(*image.RGBA))

	r, _, _ := rgb(Fade(src, 0), 0, 0)
	assert.Equal(t, uint8(255), r)

	r, _, _ = rgb(Fade(src, 50), 1, 1)
	assert.InDelta(t, 128, int(r), 2)
}
