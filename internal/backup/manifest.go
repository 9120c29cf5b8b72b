package backup

import (
	"encoding/json"
	"fmt"
	"time"

	"minview/internal/version"
)

const ManifestVersion = "1.0"

// NewManifest builds a manifest for the given components and paths
func NewManifest(components Components, paths OriginalPaths, info CatalogInfo) *Manifest {
	return &Manifest{
		Version:        ManifestVersion,
		Timestamp:      time.Now().UTC(),
		MinviewVersion: version.Full(),
		Components:     components,
		OriginalPaths:  paths,
		CatalogInfo:    info,
	}
}

// ValidateManifest checks that a manifest is usable for restore
func ValidateManifest(m *Manifest) error {
	if m.Version == "" {
		return fmt.Errorf("manifest missing version")
	}
	if m.Version != ManifestVersion {
		return fmt.Errorf("unsupported manifest version %q (expected %q)", m.Version, ManifestVersion)
	}
	if m.Timestamp.IsZero() {
		return fmt.Errorf("manifest missing timestamp")
	}
	if m.Components == 0 {
		return fmt.Errorf("manifest has no components")
	}
	return nil
}

func marshalManifest(m *Manifest) ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

func unmarshalManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid manifest JSON: %w", err)
	}
	return &m, nil
}
