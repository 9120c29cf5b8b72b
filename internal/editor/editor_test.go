package editor

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minview/internal/minutiae"
	"minview/internal/viewport"
)

func newMachine(ms ...minutiae.Minutia) (*Machine, *minutiae.Collection) {
	c := minutiae.NewCollection(ms...)
	return New(c, viewport.Identity(image.Pt(200, 200))), c
}

func TestPlacement_Commit(t *testing.T) {
	m, c := newMachine()

	require.True(t, m.Press(image.Pt(50, 50), false))
	assert.Equal(t, StatePlacing, m.State())

	preview, ok := m.Drag(image.Pt(60, 50))
	require.True(t, ok)
	assert.Equal(t, 90.0, preview.Angle)
	assert.Equal(t, 0, c.Len(), "dragging does not commit")

	placed, ok := m.Release(image.Pt(60, 50))
	require.True(t, ok)
	assert.Equal(t, StateIdle, m.State())
	require.Equal(t, 1, c.Len())
	assert.Equal(t, minutiae.Minutia{X: 50, Y: 50, Angle: 90, Type: minutiae.RidgeEnding, Quality: 1}, c.At(0))
	assert.Equal(t, placed, c.At(0))
}

func TestPlacement_Directions(t *testing.T) {
	cases := []struct {
		to   image.Point
		want float64
	}{
		{image.Pt(50, 40), 0},   // up
		{image.Pt(60, 50), 90},  // right
		{image.Pt(50, 60), 180}, // down
		{image.Pt(40, 50), 270}, // left
	}
	for _, tc := range cases {
		m, c := newMachine()
		require.True(t, m.Press(image.Pt(50, 50), true))
		_, ok := m.Release(tc.to)
		require.True(t, ok)
		assert.InDelta(t, tc.want, c.At(0).Angle, 1e-9, "%v", tc.to)
		assert.Equal(t, minutiae.Bifurcation, c.At(0).Type)
	}
}

func TestPlacement_AnchorFixedAtPress(t *testing.T) {
	m, c := newMachine()
	require.True(t, m.Press(image.Pt(20, 30), false))
	m.Drag(image.Pt(100, 100))
	m.Drag(image.Pt(150, 10))
	_, ok := m.Release(image.Pt(150, 10))
	require.True(t, ok)
	assert.Equal(t, 20, c.At(0).X)
	assert.Equal(t, 30, c.At(0).Y)
}

func TestPlacement_ScaledViewport(t *testing.T) {
	c := minutiae.NewCollection()
	m := New(c, viewport.Fit(image.Pt(800, 600), image.Pt(1600, 1200)))

	require.True(t, m.Press(image.Pt(50, 100), false))
	_, ok := m.Release(image.Pt(50, 90))
	require.True(t, ok)
	assert.Equal(t, 100, c.At(0).X)
	assert.Equal(t, 200, c.At(0).Y)
	assert.Equal(t, 0.0, c.At(0).Angle)
}

func TestPress_OutsideImageIsNoop(t *testing.T) {
	m, _ := newMachine()
	assert.False(t, m.Press(image.Pt(250, 10), false))
	assert.False(t, m.Press(image.Pt(-1, 10), false))
	assert.Equal(t, StateIdle, m.State())

	_, ok := m.Drag(image.Pt(10, 10))
	assert.False(t, ok)
	_, ok = m.Release(image.Pt(10, 10))
	assert.False(t, ok)
}

func TestPress_RestartsPlacement(t *testing.T) {
	m, c := newMachine()
	require.True(t, m.Press(image.Pt(10, 10), false))
	require.True(t, m.Press(image.Pt(70, 80), true))

	p, ok := m.Placement()
	require.True(t, ok)
	assert.Equal(t, image.Pt(70, 80), p.Anchor)

	m.Release(image.Pt(70, 70))
	require.Equal(t, 1, c.Len())
	assert.Equal(t, 70, c.At(0).X)
	assert.Equal(t, minutiae.Bifurcation, c.At(0).Type)
}

func TestCancel(t *testing.T) {
	m, c := newMachine()
	assert.False(t, m.Cancel())

	require.True(t, m.Press(image.Pt(10, 10), false))
	assert.True(t, m.Cancel())
	assert.Equal(t, StateIdle, m.State())
	_, ok := m.Preview()
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestSecondaryClick_DeletesNearest(t *testing.T) {
	a := minutiae.New(100, 100, 0, minutiae.RidgeEnding, 1)
	b := minutiae.New(105, 100, 0, minutiae.Bifurcation, 1)
	m, c := newMachine(a, b)

	removed, ok := m.SecondaryClick(image.Pt(102, 100))
	require.True(t, ok)
	assert.Equal(t, a, removed)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, b, c.At(0))
}

func TestSecondaryClick_RadiusIsExclusive(t *testing.T) {
	m, c := newMachine(minutiae.New(100, 100, 0, minutiae.RidgeEnding, 1))

	_, ok := m.SecondaryClick(image.Pt(106, 104))
	assert.False(t, ok, "distance 10 is not within the radius")
	assert.Equal(t, 1, c.Len())

	_, ok = m.SecondaryClick(image.Pt(105, 104))
	assert.True(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestSecondaryClick_TiesGoToLowestIndex(t *testing.T) {
	first := minutiae.New(98, 100, 0, minutiae.RidgeEnding, 1)
	second := minutiae.New(102, 100, 0, minutiae.RidgeEnding, 1)
	m, c := newMachine(first, second)

	removed, ok := m.SecondaryClick(image.Pt(100, 100))
	require.True(t, ok)
	assert.Equal(t, first, removed)
	assert.Equal(t, second, c.At(0))
}

func TestSecondaryClick_KeepsPlacement(t *testing.T) {
	m, c := newMachine(minutiae.New(10, 10, 0, minutiae.RidgeEnding, 1))
	require.True(t, m.Press(image.Pt(50, 50), false))

	_, ok := m.SecondaryClick(image.Pt(10, 10))
	require.True(t, ok)
	assert.Equal(t, StatePlacing, m.State())
	assert.Equal(t, 0, c.Len())

	_, ok = m.SecondaryClick(image.Pt(300, 300))
	assert.False(t, ok)
}

func TestNearest(t *testing.T) {
	_, ok := Nearest(nil, image.Pt(0, 0), DeleteRadius)
	assert.False(t, ok)

	ms := []minutiae.Minutia{{X: 0, Y: 0}, {X: 3, Y: 3}, {X: 4, Y: 1}}
	idx, ok := Nearest(ms, image.Pt(4, 2), DeleteRadius)
	require.True(t, ok)
	assert.Equal(t, 2, idx)
}
