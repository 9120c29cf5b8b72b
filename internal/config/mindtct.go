package config

import (
	"fmt"
	"time"

	"minview/internal/mindtct"
)

// MindtctConfig contains settings for the external mindtct detector
type MindtctConfig struct {
	// Path to the mindtct binary. Empty searches next to the minview
	// executable and then PATH.
	Path           string            `json:"path,omitempty" yaml:"path,omitempty"`
	Algorithm      mindtct.Algorithm `json:"algorithm" yaml:"algorithm"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
	// Jobs bounds concurrent runs of batch extraction
	Jobs int `json:"jobs" yaml:"jobs"`
}

// Validate validates the mindtct configuration
func (m MindtctConfig) Validate() error {
	if !m.Algorithm.IsValid() {
		return fmt.Errorf("invalid algorithm %q (must be m1 or iafis)", m.Algorithm)
	}
	if m.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout cannot be negative (got %d seconds)", m.TimeoutSeconds)
	}
	if m.TimeoutSeconds > 3600 {
		return fmt.Errorf("timeout cannot exceed 1 hour (got %d seconds)", m.TimeoutSeconds)
	}
	if m.Jobs < 0 {
		return fmt.Errorf("jobs cannot be negative (got %d)", m.Jobs)
	}
	return nil
}

// Timeout returns the per-run timeout as a time.Duration
func (m MindtctConfig) Timeout() time.Duration {
	if m.TimeoutSeconds <= 0 {
		return mindtct.DefaultTimeout
	}
	return time.Duration(m.TimeoutSeconds) * time.Second
}

// Extractor builds an extractor from the configuration
func (m MindtctConfig) Extractor() *mindtct.Extractor {
	return &mindtct.Extractor{
		Path:      m.Path,
		Algorithm: m.Algorithm,
		Timeout:   m.Timeout(),
	}
}

// JobLimit returns the batch concurrency, defaulting to mindtct.DefaultJobs
func (m MindtctConfig) JobLimit() int {
	if m.Jobs <= 0 {
		return mindtct.DefaultJobs
	}
	return m.Jobs
}

// DefaultMindtctConfig returns default mindtct configuration
func DefaultMindtctConfig() MindtctConfig {
	return MindtctConfig{
		Algorithm:      mindtct.AlgorithmM1,
		TimeoutSeconds: int(mindtct.DefaultTimeout / time.Second),
		Jobs:           mindtct.DefaultJobs,
	}
}
