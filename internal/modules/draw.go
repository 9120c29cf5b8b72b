package modules

import (
	"fmt"

	"minview/internal/minutiae"
)

// DrawFromFile shows a minutiae file over its image unchanged
type DrawFromFile struct {
	counts
}

func NewDrawFromFile() *DrawFromFile {
	return &DrawFromFile{}
}

func (d *DrawFromFile) Name() string { return DrawFromFileName }

func (d *DrawFromFile) Summary() string {
	if d.collection == nil {
		return "No minutiae loaded"
	}
	return fmt.Sprintf("%d minutiae (%d bifurcations, %d ridge endings)",
		d.Count(), d.collection.Count(minutiae.Bifurcation), d.collection.Count(minutiae.RidgeEnding))
}

// Editor is the manual labeling tab; the editing itself is done by the
// session's editor state machine.
type Editor struct {
	counts
}

func NewEditor() *Editor {
	return &Editor{}
}

func (e *Editor) Name() string { return EditorName }

func (e *Editor) Summary() string {
	return fmt.Sprintf("Minutiae: %d", e.Count())
}

// Hint describes the pointer bindings of the editor
func (e *Editor) Hint() string {
	return "drag: ridge ending  ctrl+drag: bifurcation  right click: delete  esc: cancel"
}
