// Package modules provides the feature modules of the viewer. Each module
// backs one tab of the user interface and takes part in the frame
// pipeline through the capabilities it implements.
package modules

import (
	"image"

	"minview/internal/minutiae"
	"minview/internal/pipeline"
	"minview/internal/render"
)

// Module names, also used as tab titles
const (
	DrawFromFileName = "Draw from File"
	EditorName       = "Manual Labeling"
	MindtctName      = "MINDTCT"
)

// OverlayStyler is implemented by modules that control how the minutiae
// overlay is drawn.
type OverlayStyler interface {
	OverlayOpacity() int
}

// Summarizer is implemented by modules that report a one-line status for
// their tab.
type Summarizer interface {
	Summary() string
}

// Default builds the registry with the three modules in their fixed order
func Default(settings MindtctSettings) (*pipeline.Registry, *Mindtct, error) {
	m := NewMindtct(settings)
	r, err := pipeline.NewRegistry(NewDrawFromFile(), NewEditor(), m)
	if err != nil {
		return nil, nil, err
	}
	return r, m, nil
}

// OverlayOpacity returns the opacity requested by the last module in r
// that styles the overlay, or 100.
func OverlayOpacity(r *pipeline.Registry) int {
	opacity := render.DefaultOpacity
	for _, m := range r.Modules() {
		if s, ok := m.(OverlayStyler); ok {
			opacity = s.OverlayOpacity()
		}
	}
	return opacity
}

// QualityFilter keeps minutiae whose quality is at least min
type QualityFilter struct {
	Min float64
}

func (f QualityFilter) Name() string { return "quality-filter" }

// MinutiaeFiltering returns a new slice; the input is not modified
func (f QualityFilter) MinutiaeFiltering(ms []minutiae.Minutia) []minutiae.Minutia {
	out := make([]minutiae.Minutia, 0, len(ms))
	for _, m := range ms {
		if m.Quality >= f.Min {
			out = append(out, m)
		}
	}
	return out
}

// LimitFilter keeps at most Max minutiae, in order. Max <= 0 keeps all.
type LimitFilter struct {
	Max int
}

func (f LimitFilter) Name() string { return "limit-filter" }

func (f LimitFilter) MinutiaeFiltering(ms []minutiae.Minutia) []minutiae.Minutia {
	if f.Max <= 0 || len(ms) <= f.Max {
		return ms
	}
	return append([]minutiae.Minutia(nil), ms[:f.Max]...)
}

// counts tracks the loaded image size and the collection a module reports on
type counts struct {
	size       image.Point
	collection *minutiae.Collection
}

func (c *counts) OnLoadImage(img image.Image) {
	c.size = img.Bounds().Size()
}

func (c *counts) OnLoadMinutiae(col *minutiae.Collection) {
	c.collection = col
}

// Count returns the live number of minutiae in the reported collection
func (c *counts) Count() int {
	return c.collection.Len()
}

// ImageSize returns the size of the last loaded image
func (c *counts) ImageSize() image.Point {
	return c.size
}
