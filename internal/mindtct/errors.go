package mindtct

import "errors"

// ErrExtractionTool matches every failure of the external extraction tool
var ErrExtractionTool = errors.New("extraction tool failed")

// ExtractionToolError describes which step of an extraction failed
type ExtractionToolError struct {
	Op     string // resolve, prepare, run, read
	Err    error
	Output string // combined output of the tool, if it ran
}

func (e *ExtractionToolError) Error() string {
	msg := "mindtct " + e.Op + ": " + e.Err.Error()
	if e.Output != "" {
		msg += " (" + e.Output + ")"
	}
	return msg
}

func (e *ExtractionToolError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrExtractionTool
func (e *ExtractionToolError) Is(target error) bool {
	return target == ErrExtractionTool
}
