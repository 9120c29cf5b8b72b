package modules

import (
	"fmt"
	"image"

	"minview/internal/mindtct"
	"minview/internal/minutiae"
	"minview/internal/render"
)

// MindtctSettings are the display and extraction settings of the MINDTCT tab
type MindtctSettings struct {
	QualityThreshold   float64           `json:"quality_threshold" yaml:"quality_threshold"`
	FingerprintOpacity int               `json:"fingerprint_opacity" yaml:"fingerprint_opacity"`
	MinutiaeOpacity    int               `json:"minutiae_opacity" yaml:"minutiae_opacity"`
	Brightness         int               `json:"brightness" yaml:"brightness"`
	Contrast           int               `json:"contrast" yaml:"contrast"`
	Algorithm          mindtct.Algorithm `json:"algorithm" yaml:"algorithm"`
}

// DefaultMindtctSettings returns the settings a reset restores
func DefaultMindtctSettings() MindtctSettings {
	return MindtctSettings{
		FingerprintOpacity: 100,
		MinutiaeOpacity:    100,
		Algorithm:          mindtct.AlgorithmM1,
	}
}

// Validate checks that every setting is inside its range
func (s MindtctSettings) Validate() error {
	if s.QualityThreshold < 0 || s.QualityThreshold > 1 {
		return fmt.Errorf("quality threshold must be between 0 and 1, got %g", s.QualityThreshold)
	}
	if err := checkRange("fingerprint opacity", s.FingerprintOpacity, 0, 100); err != nil {
		return err
	}
	if err := checkRange("minutiae opacity", s.MinutiaeOpacity, 0, 100); err != nil {
		return err
	}
	if err := checkRange("brightness", s.Brightness, -100, 100); err != nil {
		return err
	}
	if err := checkRange("contrast", s.Contrast, -100, 100); err != nil {
		return err
	}
	if !s.Algorithm.IsValid() {
		return fmt.Errorf("unknown algorithm %q", s.Algorithm)
	}
	return nil
}

func checkRange(name string, v, lo, hi int) error {
	if v < lo || v > hi {
		return fmt.Errorf("%s must be between %d and %d, got %d", name, lo, hi, v)
	}
	return nil
}

// Mindtct is the automatic detection tab. It filters the overlay by
// quality and fades the fingerprint.
type Mindtct struct {
	counts
	settings MindtctSettings
}

// NewMindtct creates the module. Invalid settings fall back to the defaults.
func NewMindtct(s MindtctSettings) *Mindtct {
	if s.Validate() != nil {
		s = DefaultMindtctSettings()
	}
	return &Mindtct{settings: s}
}

func (m *Mindtct) Name() string { return MindtctName }

// Settings returns a copy of the current settings
func (m *Mindtct) Settings() MindtctSettings {
	return m.settings
}

// SetSettings replaces the settings if they are valid
func (m *Mindtct) SetSettings(s MindtctSettings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	m.settings = s
	return nil
}

// Reset restores the default settings
func (m *Mindtct) Reset() {
	m.settings = DefaultMindtctSettings()
}

// AdjustQuality moves the quality threshold by delta, clamped to [0, 1]
func (m *Mindtct) AdjustQuality(delta float64) float64 {
	q := m.settings.QualityThreshold + delta
	// keep two decimals so repeated steps do not drift
	q = float64(int(minutiae.ClampQuality(q)*100+0.5)) / 100
	m.settings.QualityThreshold = q
	return q
}

// ToggleAlgorithm switches between M1 and IAFIS
func (m *Mindtct) ToggleAlgorithm() mindtct.Algorithm {
	m.settings.Algorithm = m.settings.Algorithm.Toggle()
	return m.settings.Algorithm
}

// FingerprintDrawing fades the fingerprint. Brightness and contrast are
// kept as settings only and leave the image untouched.
func (m *Mindtct) FingerprintDrawing(img image.Image) image.Image {
	return render.Fade(img, m.settings.FingerprintOpacity)
}

// MinutiaeFiltering hides minutiae below the quality threshold
func (m *Mindtct) MinutiaeFiltering(ms []minutiae.Minutia) []minutiae.Minutia {
	if m.settings.QualityThreshold <= 0 {
		return ms
	}
	return QualityFilter{Min: m.settings.QualityThreshold}.MinutiaeFiltering(ms)
}

func (m *Mindtct) OverlayOpacity() int {
	return m.settings.MinutiaeOpacity
}

func (m *Mindtct) Summary() string {
	return fmt.Sprintf("Width: %d  Height: %d  Total minutiae detected: %d  Quality >= %.2f  Algorithm: %s",
		m.size.X, m.size.Y, m.Count(), m.settings.QualityThreshold, m.settings.Algorithm)
}
