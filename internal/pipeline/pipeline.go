// Package pipeline composes independent feature modules into the frame that
// is drawn on each redraw. A module contributes only the capabilities it
// implements; anything it leaves out behaves as the identity.
package pipeline

import (
	"fmt"
	"image"
	"strings"

	"minview/internal/minutiae"
	"minview/internal/viewport"
)

// Module is the contract every feature module satisfies
type Module interface {
	// Name is the unique identifier of the module within a registry
	Name() string
}

// ImageTransformer is implemented by modules that alter the fingerprint
// image before it is drawn.
type ImageTransformer interface {
	FingerprintDrawing(img image.Image) image.Image
}

// MinutiaeFilter is implemented by modules that alter the minutiae handed
// to the overlay. Implementations must not modify the input slice.
type MinutiaeFilter interface {
	MinutiaeFiltering(ms []minutiae.Minutia) []minutiae.Minutia
}

// ImageLoadListener is notified when the session loads a new image
type ImageLoadListener interface {
	OnLoadImage(img image.Image)
}

// MinutiaeLoadListener is notified when the session's collection is
// replaced by a file load or an extraction.
type MinutiaeLoadListener interface {
	OnLoadMinutiae(c *minutiae.Collection)
}

// Registry holds the active modules in the fixed order they are applied
type Registry struct {
	modules []Module
}

// NewRegistry creates a registry and registers the given modules in order
func NewRegistry(modules ...Module) (*Registry, error) {
	r := &Registry{}
	for _, m := range modules {
		if err := r.Register(m); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends a module to the end of the order. Returns an error if
// the module is nil, unnamed or already registered.
func (r *Registry) Register(m Module) error {
	if m == nil {
		return fmt.Errorf("module must not be nil")
	}
	name := m.Name()
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("module name is required")
	}
	if _, ok := r.Get(name); ok {
		return fmt.Errorf("module %q is already registered", name)
	}
	r.modules = append(r.modules, m)
	return nil
}

// Get retrieves a registered module by name
func (r *Registry) Get(name string) (Module, bool) {
	for _, m := range r.modules {
		if m.Name() == name {
			return m, true
		}
	}
	return nil, false
}

// Modules returns the registered modules in application order
func (r *Registry) Modules() []Module {
	return append([]Module(nil), r.modules...)
}

// Len returns the number of registered modules
func (r *Registry) Len() int {
	return len(r.modules)
}

// NotifyImageLoaded calls OnLoadImage on every module that listens for it
func (r *Registry) NotifyImageLoaded(img image.Image) {
	for _, m := range r.modules {
		if l, ok := m.(ImageLoadListener); ok {
			l.OnLoadImage(img)
		}
	}
}

// NotifyMinutiaeLoaded calls OnLoadMinutiae on every module that listens for it
func (r *Registry) NotifyMinutiaeLoaded(c *minutiae.Collection) {
	for _, m := range r.modules {
		if l, ok := m.(MinutiaeLoadListener); ok {
			l.OnLoadMinutiae(c)
		}
	}
}

// Frame is the composited result of one pass through the pipeline, still
// in canonical image space.
type Frame struct {
	Image    image.Image
	Minutiae []minutiae.Minutia
}

// Compose folds the image and a copy of the collection through every
// module in registration order. The collection itself is never modified.
func (r *Registry) Compose(img image.Image, c *minutiae.Collection) Frame {
	ms := c.All()
	for _, m := range r.modules {
		if t, ok := m.(ImageTransformer); ok && img != nil {
			img = t.FingerprintDrawing(img)
		}
		if f, ok := m.(MinutiaeFilter); ok {
			ms = f.MinutiaeFiltering(ms)
		}
	}
	return Frame{Image: img, Minutiae: ms}
}

// DisplayFrame is a frame mapped into a display canvas
type DisplayFrame struct {
	Transform viewport.Transform
	Image     image.Image
	Minutiae  []minutiae.Minutia // display space
}

// Empty reports whether there is nothing to draw
func (d DisplayFrame) Empty() bool {
	return d.Transform.Degenerate() || d.Image == nil
}

// Display fits the frame into a canvas and maps the minutiae into display
// space. The image itself is left at canonical size; scaling it is the
// renderer's job. A degenerate canvas yields an empty display frame.
func (f Frame) Display(canvas image.Point) DisplayFrame {
	if f.Image == nil {
		return DisplayFrame{}
	}
	t := viewport.Fit(canvas, f.Image.Bounds().Size())
	if t.Degenerate() {
		return DisplayFrame{Transform: t}
	}
	return DisplayFrame{
		Transform: t,
		Image:     f.Image,
		Minutiae:  viewport.ScaleMinutiae(f.Minutiae, t.Ratio),
	}
}
