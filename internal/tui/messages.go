package tui

import (
	"minview/internal/mindtct"
	"minview/internal/minutiae"
)

// ExtractDoneMsg delivers the result of a mindtct run started with x
type ExtractDoneMsg struct {
	// Generation of the image the run was started on
	Generation int
	Algorithm  mindtct.Algorithm
	Minutiae   *minutiae.Collection
	Err        error
}

// CatalogSavedMsg reports an explicit save into the catalog
type CatalogSavedMsg struct {
	ID  string
	Err error
}
