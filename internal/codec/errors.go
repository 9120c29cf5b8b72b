package codec

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks against the typed errors below
var (
	ErrCorruptFile       = errors.New("corrupt minutiae file")
	ErrUnsupportedFormat = errors.New("unsupported minutiae format")
)

// CorruptFileError reports a line that could not be decoded, an unknown
// type code, or a minutia that cannot be represented in the target format.
type CorruptFileError struct {
	Format Format
	Line   int // 1-based line number, 0 when not tied to a line
	Msg    string
}

func (e *CorruptFileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("corrupt %s minutiae file: line %d: %s", e.Format, e.Line, e.Msg)
	}
	return fmt.Sprintf("corrupt %s minutiae file: %s", e.Format, e.Msg)
}

func (e *CorruptFileError) Is(target error) bool {
	return target == ErrCorruptFile
}

// UnsupportedFormatError reports a file extension that maps to no format
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Ext == "" {
		return "unsupported minutiae format: file has no extension"
	}
	return fmt.Sprintf("unsupported minutiae format %q (expected .sim, .min or .xyt)", e.Ext)
}

func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

func corrupt(f Format, line int, format string, args ...interface{}) error {
	return &CorruptFileError{Format: f, Line: line, Msg: fmt.Sprintf(format, args...)}
}
