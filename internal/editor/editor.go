// Package editor implements the pointer-driven placement and removal of
// minutiae. All input points are in display space; the machine converts
// them into canonical image space through the current viewport transform
// before touching the collection.
package editor

import (
	"image"
	"math"
	"sort"

	"minview/internal/minutiae"
	"minview/internal/viewport"
)

// DeleteRadius is the exclusive Manhattan distance, in canonical pixels,
// within which a secondary click removes a minutia.
const DeleteRadius = 10

// State represents the current editing state
type State string

const (
	StateIdle    State = "idle"    // Waiting for a press on the image
	StatePlacing State = "placing" // Anchor fixed, direction follows the pointer
)

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// Placement is the in-progress minutia while the machine is Placing
type Placement struct {
	Anchor image.Point // display space
	Type   minutiae.Type
	Angle  float64
}

// Machine is the Idle/Placing state machine bound to one collection
type Machine struct {
	collection *minutiae.Collection
	transform  viewport.Transform
	state      State
	placement  Placement
}

// New creates a machine editing the given collection
func New(c *minutiae.Collection, t viewport.Transform) *Machine {
	return &Machine{
		collection: c,
		transform:  t,
		state:      StateIdle,
	}
}

// State returns the current state
func (m *Machine) State() State {
	return m.state
}

// Transform returns the viewport transform pointer events are mapped with
func (m *Machine) Transform() viewport.Transform {
	return m.transform
}

// SetTransform replaces the viewport transform after a canvas or image
// size change. An in-progress placement keeps its display anchor.
func (m *Machine) SetTransform(t viewport.Transform) {
	m.transform = t
}

// SetCollection rebinds the machine to another collection and drops any
// in-progress placement.
func (m *Machine) SetCollection(c *minutiae.Collection) {
	m.collection = c
	m.Reset()
}

// Reset returns the machine to Idle without committing anything
func (m *Machine) Reset() {
	m.state = StateIdle
	m.placement = Placement{}
}

// Press starts a placement at p when p lies on the image. The modifier
// selects a bifurcation instead of a ridge ending. A press while already
// placing restarts the placement at the new anchor.
func (m *Machine) Press(p image.Point, modifier bool) bool {
	if !m.transform.Contains(p) {
		return false
	}
	typ := minutiae.RidgeEnding
	if modifier {
		typ = minutiae.Bifurcation
	}
	m.state = StatePlacing
	m.placement = Placement{Anchor: p, Type: typ}
	return true
}

// Drag updates the direction of the placement towards p and returns the
// uncommitted preview.
func (m *Machine) Drag(p image.Point) (minutiae.Minutia, bool) {
	if m.state != StatePlacing {
		return minutiae.Minutia{}, false
	}
	m.placement.Angle = angleTo(m.placement.Anchor, p)
	return m.preview(), true
}

// Release commits the placement with the direction towards p, appends it
// to the collection and returns to Idle.
func (m *Machine) Release(p image.Point) (minutiae.Minutia, bool) {
	if m.state != StatePlacing {
		return minutiae.Minutia{}, false
	}
	m.placement.Angle = angleTo(m.placement.Anchor, p)
	placed := m.preview()
	m.collection.Append(placed)
	m.Reset()
	return placed, true
}

// Cancel abandons an in-progress placement
func (m *Machine) Cancel() bool {
	if m.state != StatePlacing {
		return false
	}
	m.Reset()
	return true
}

// Preview returns the minutia that a release would commit, in canonical
// space.
func (m *Machine) Preview() (minutiae.Minutia, bool) {
	if m.state != StatePlacing {
		return minutiae.Minutia{}, false
	}
	return m.preview(), true
}

// Placement returns the in-progress placement in display space
func (m *Machine) Placement() (Placement, bool) {
	return m.placement, m.state == StatePlacing
}

// SecondaryClick removes the minutia nearest to p if one lies strictly
// within DeleteRadius. It works in any state and leaves a placement alone.
func (m *Machine) SecondaryClick(p image.Point) (minutiae.Minutia, bool) {
	if !m.transform.Contains(p) {
		return minutiae.Minutia{}, false
	}
	idx, ok := Nearest(m.collection.All(), m.transform.ToCanonical(p), DeleteRadius)
	if !ok {
		return minutiae.Minutia{}, false
	}
	return m.collection.RemoveAt(idx)
}

func (m *Machine) preview() minutiae.Minutia {
	anchor := m.transform.ToCanonical(m.placement.Anchor)
	return minutiae.New(anchor.X, anchor.Y, m.placement.Angle, m.placement.Type, minutiae.DefaultQuality)
}

// angleTo returns the clockwise-from-up direction from a to b in degrees
func angleTo(a, b image.Point) float64 {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	return minutiae.NormalizeAngle(math.Atan2(dy, dx)*180/math.Pi + 90)
}

// Nearest returns the index of the minutia closest to p by Manhattan
// distance, considering only those strictly closer than radius. Ties go to
// the lowest index.
func Nearest(ms []minutiae.Minutia, p image.Point, radius int) (int, bool) {
	type candidate struct {
		index    int
		distance int
	}
	var candidates []candidate
	for i, m := range ms {
		d := abs(m.X-p.X) + abs(m.Y-p.Y)
		if d < radius {
			candidates = append(candidates, candidate{index: i, distance: d})
		}
	}
	if len(candidates) == 0 {
		return 0, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})
	return candidates[0].index, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
