// Package session holds the state of one viewer: the fingerprint image,
// the minutiae collection being edited, the module pipeline and the
// editor state machine. Every consumer (CLI, TUI, SSH connection) owns its
// own Session; nothing is shared between them.
package session

import (
	"context"
	"errors"
	"image"

	"minview/internal/codec"
	"minview/internal/editor"
	"minview/internal/imageio"
	"minview/internal/minutiae"
	"minview/internal/modules"
	"minview/internal/pipeline"
	"minview/internal/render"
	"minview/internal/viewport"
)

// ErrNoImage is returned by operations that need a loaded image
var ErrNoImage = errors.New("no fingerprint image loaded")

// Extractor detects minutiae in an image
type Extractor interface {
	Extract(ctx context.Context, img image.Image) (*minutiae.Collection, error)
}

// Options configures a new session
type Options struct {
	// Registry of modules; nil builds the default three modules
	Registry *pipeline.Registry
	// MarkerSize in canonical pixels; zero scales with the image
	MarkerSize float64
}

// Session is the state of one viewer
type Session struct {
	image      image.Image
	collection *minutiae.Collection
	registry   *pipeline.Registry
	editor     *editor.Machine
	canvas     image.Point
	markerSize float64
}

// New creates an empty session
func New(opts Options) (*Session, error) {
	registry := opts.Registry
	if registry == nil {
		r, _, err := modules.Default(modules.DefaultMindtctSettings())
		if err != nil {
			return nil, err
		}
		registry = r
	}

	c := minutiae.NewCollection()
	s := &Session{
		collection: c,
		registry:   registry,
		editor:     editor.New(c, viewport.Transform{}),
		markerSize: opts.MarkerSize,
	}
	registry.NotifyMinutiaeLoaded(c)
	return s, nil
}

// Image returns the loaded fingerprint image, or nil
func (s *Session) Image() image.Image {
	return s.image
}

// Dims returns the size of the loaded image
func (s *Session) Dims() image.Point {
	if s.image == nil {
		return image.Point{}
	}
	return s.image.Bounds().Size()
}

// Collection returns the live collection. It is the same value for the
// lifetime of the session; loads replace its contents.
func (s *Session) Collection() *minutiae.Collection {
	return s.collection
}

// Registry returns the module pipeline
func (s *Session) Registry() *pipeline.Registry {
	return s.registry
}

// Editor returns the editor state machine
func (s *Session) Editor() *editor.Machine {
	return s.editor
}

// LoadImage replaces the image. The collection is cleared and any
// placement in progress is dropped.
func (s *Session) LoadImage(img image.Image) {
	s.image = img
	s.collection.Clear()
	s.editor.Reset()
	s.refit()
	s.registry.NotifyImageLoaded(img)
	s.registry.NotifyMinutiaeLoaded(s.collection)
}

// LoadImageFile decodes an image file and loads it
func (s *Session) LoadImageFile(path string) error {
	img, err := imageio.Load(path)
	if err != nil {
		return err
	}
	s.LoadImage(img)
	return nil
}

// LoadMinutiae reads a minutiae file, choosing the format from its
// extension. On error the current collection is left untouched.
func (s *Session) LoadMinutiae(path string) error {
	c, err := codec.ReadFile(path)
	if err != nil {
		return err
	}
	s.replace(c)
	return nil
}

// LoadMinutiaeFrom decodes minutiae text in the given format. On error the
// current collection is left untouched.
func (s *Session) LoadMinutiaeFrom(f codec.Format, text string) error {
	c, err := codec.Decode(f, text)
	if err != nil {
		return err
	}
	s.replace(c)
	return nil
}

// SaveMinutiae writes the collection, choosing the format from the path's
// extension.
func (s *Session) SaveMinutiae(path string) error {
	return codec.WriteFile(path, s.collection, s.Dims())
}

// EncodeMinutiae renders the collection in the given format
func (s *Session) EncodeMinutiae(f codec.Format) (string, error) {
	return codec.Encode(f, s.collection, s.Dims())
}

// Extract runs automatic detection on the image. The collection is only
// replaced when detection succeeds.
func (s *Session) Extract(ctx context.Context, ex Extractor) (int, error) {
	if s.image == nil {
		return 0, ErrNoImage
	}
	c, err := ex.Extract(ctx, s.image)
	if err != nil {
		return 0, err
	}
	s.replace(c)
	return c.Len(), nil
}

// SetMinutiae replaces the collection's contents with c, for results
// produced outside the session such as a detection run on another goroutine
func (s *Session) SetMinutiae(c *minutiae.Collection) {
	s.replace(c)
}

func (s *Session) replace(c *minutiae.Collection) {
	s.collection.Replace(c)
	s.editor.Reset()
	s.registry.NotifyMinutiaeLoaded(s.collection)
}

// SetCanvas sets the display size and recomputes the viewport transform
func (s *Session) SetCanvas(size image.Point) {
	s.canvas = size
	s.refit()
}

// Canvas returns the display size
func (s *Session) Canvas() image.Point {
	return s.canvas
}

// Transform returns the current viewport transform
func (s *Session) Transform() viewport.Transform {
	return s.editor.Transform()
}

func (s *Session) refit() {
	s.editor.SetTransform(viewport.Fit(s.canvas, s.Dims()))
}

// Frame composes the image and collection through the module pipeline
func (s *Session) Frame() pipeline.Frame {
	return s.registry.Compose(s.image, s.collection)
}

// Display composes a frame and maps it into the current canvas. The
// minutia being placed, if any, is included.
func (s *Session) Display() pipeline.DisplayFrame {
	d := s.Frame().Display(s.canvas)
	if d.Empty() {
		return d
	}
	if p, ok := s.editor.Preview(); ok {
		d.Minutiae = append(d.Minutiae, viewport.ScaleMinutiae([]minutiae.Minutia{p}, d.Transform.Ratio)...)
	}
	return d
}

// Render draws the display frame: the composed image scaled into the
// canvas with the minutiae overlay on top.
func (s *Session) Render() (image.Image, error) {
	d := s.Display()
	if d.Empty() {
		return nil, ErrNoImage
	}
	scaled := render.Scale(d.Image, d.Transform.Scaled)
	return render.DrawMinutiae(scaled, d.Minutiae, render.Options{
		MarkerSize: s.markerSize * d.Transform.Ratio,
		Opacity:    modules.OverlayOpacity(s.registry),
	})
}

// RenderFull draws the composed frame at the image's own size
func (s *Session) RenderFull() (image.Image, error) {
	if s.image == nil {
		return nil, ErrNoImage
	}
	f := s.Frame()
	return render.DrawMinutiae(f.Image, f.Minutiae, render.Options{
		MarkerSize: s.markerSize,
		Opacity:    modules.OverlayOpacity(s.registry),
	})
}

// Press forwards a primary press in display space to the editor
func (s *Session) Press(p image.Point, modifier bool) bool {
	return s.editor.Press(p, modifier)
}

// Drag forwards pointer motion with the primary button held
func (s *Session) Drag(p image.Point) (minutiae.Minutia, bool) {
	return s.editor.Drag(p)
}

// Release forwards a primary release, committing a placement
func (s *Session) Release(p image.Point) (minutiae.Minutia, bool) {
	return s.editor.Release(p)
}

// SecondaryClick forwards a secondary click, deleting the nearest minutia
func (s *Session) SecondaryClick(p image.Point) (minutiae.Minutia, bool) {
	return s.editor.SecondaryClick(p)
}

// Cancel abandons a placement in progress
func (s *Session) Cancel() bool {
	return s.editor.Cancel()
}
