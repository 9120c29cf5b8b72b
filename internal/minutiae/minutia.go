// Package minutiae holds the canonical fingerprint minutia model and the
// ordered collection a session edits.
package minutiae

import (
	"fmt"
	"math"
)

// DefaultQuality is assigned to hand-placed minutiae and to minutiae read
// from formats that do not carry a quality value.
const DefaultQuality = 1.0

// Type identifies the kind of ridge feature
type Type int

const (
	TypeUnknown Type = iota
	RidgeEnding
	Bifurcation
)

// String returns the string representation of the minutia type
func (t Type) String() string {
	switch t {
	case RidgeEnding:
		return "ridge ending"
	case Bifurcation:
		return "bifurcation"
	default:
		return "unknown"
	}
}

// IsValid returns true if the type is one of the known variants
func (t Type) IsValid() bool {
	return t == RidgeEnding || t == Bifurcation
}

// Minutia is a single ridge feature. X and Y are always canonical image
// space pixels. Angle is in degrees with 0 pointing up (towards decreasing
// y) and increasing clockwise.
type Minutia struct {
	X       int     `json:"x"`
	Y       int     `json:"y"`
	Angle   float64 `json:"angle"`
	Type    Type    `json:"type"`
	Quality float64 `json:"quality"`
}

// New returns a minutia with its invariants applied: coordinates are
// clamped to zero, the angle is folded into [0, 360) and the quality is
// clamped to [0, 1].
func New(x, y int, angle float64, t Type, quality float64) Minutia {
	return Minutia{
		X:       max(x, 0),
		Y:       max(y, 0),
		Angle:   NormalizeAngle(angle),
		Type:    t,
		Quality: ClampQuality(quality),
	}
}

// NormalizeAngle folds an angle in degrees into [0, 360).
func NormalizeAngle(angle float64) float64 {
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return 0
	}
	a := math.Mod(angle, 360)
	if a < 0 {
		a += 360
	}
	// -1e-15 + 360 rounds to 360 in float64
	if a >= 360 {
		a = 0
	}
	return a
}

// ClampQuality clamps a quality value into [0, 1]. NaN maps to 0.
func ClampQuality(q float64) float64 {
	if math.IsNaN(q) || q < 0 {
		return 0
	}
	if q > 1 {
		return 1
	}
	return q
}

// Direction returns the unit vector the minutia points at in image space
// (y grows downwards).
func (m Minutia) Direction() (dx, dy float64) {
	rad := (m.Angle - 90) * math.Pi / 180
	return math.Cos(rad), math.Sin(rad)
}

func (m Minutia) String() string {
	return fmt.Sprintf("Minutia(x: %d, y: %d, angle: %g, type: %s, quality: %g)",
		m.X, m.Y, m.Angle, m.Type, m.Quality)
}
