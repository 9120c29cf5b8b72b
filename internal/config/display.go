package config

import (
	"fmt"

	"minview/internal/mindtct"
	"minview/internal/modules"
)

// DisplayConfig contains the initial overlay settings
type DisplayConfig struct {
	// MarkerSize in image pixels. Zero derives it from the image size.
	MarkerSize         int     `json:"marker_size" yaml:"marker_size"`
	QualityThreshold   float64 `json:"quality_threshold" yaml:"quality_threshold"`
	FingerprintOpacity int     `json:"fingerprint_opacity" yaml:"fingerprint_opacity"`
	MinutiaeOpacity    int     `json:"minutiae_opacity" yaml:"minutiae_opacity"`
	Brightness         int     `json:"brightness" yaml:"brightness"`
	Contrast           int     `json:"contrast" yaml:"contrast"`
}

// Validate validates the display configuration
func (d DisplayConfig) Validate() error {
	if d.MarkerSize < 0 {
		return fmt.Errorf("marker size cannot be negative (got %d)", d.MarkerSize)
	}
	return d.Settings(mindtct.AlgorithmM1).Validate()
}

// Settings returns the MINDTCT tab settings for the given algorithm
func (d DisplayConfig) Settings(algorithm mindtct.Algorithm) modules.MindtctSettings {
	return modules.MindtctSettings{
		QualityThreshold:   d.QualityThreshold,
		FingerprintOpacity: d.FingerprintOpacity,
		MinutiaeOpacity:    d.MinutiaeOpacity,
		Brightness:         d.Brightness,
		Contrast:           d.Contrast,
		Algorithm:          algorithm,
	}
}

// DefaultDisplayConfig returns default display configuration
func DefaultDisplayConfig() DisplayConfig {
	return DisplayConfig{
		FingerprintOpacity: 100,
		MinutiaeOpacity:    100,
	}
}

// MindtctSettings combines the display and mindtct sections into the
// settings of the MINDTCT tab
func (c *Config) MindtctSettings() modules.MindtctSettings {
	return c.Display.Settings(c.Mindtct.Algorithm)
}
