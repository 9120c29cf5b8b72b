// Package codec reads and writes minutiae collections in the SIMPLE,
// NBIST/MINDTCT and XYT text formats.
//
// Each format keeps its own type vocabulary: SIMPLE writes ridge endings
// as END, NBIST writes them as RIG. Consumers of each format expect their
// own convention, so the two are never unified.
package codec

import (
	"fmt"
	"image"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"minview/internal/minutiae"
)

// Format identifies a minutiae text format
type Format int

const (
	FormatUnknown Format = iota
	Simple
	NBIST
	// MINDTCT is the name the NIST tool gives the NBIST layout; it shares
	// the NBIST codec.
	MINDTCT
	XYT
)

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case Simple:
		return "SIMPLE"
	case NBIST:
		return "NBIST"
	case MINDTCT:
		return "MINDTCT"
	case XYT:
		return "XYT"
	default:
		return "UNKNOWN"
	}
}

// Ext returns the file extension conventionally used for the format
func (f Format) Ext() string {
	switch f {
	case Simple:
		return ".sim"
	case NBIST, MINDTCT:
		return ".min"
	case XYT:
		return ".xyt"
	default:
		return ""
	}
}

// CanDecode reports whether the format has a reader
func (f Format) CanDecode() bool {
	return f == Simple || f == NBIST || f == MINDTCT || f == XYT
}

// ParseFormat resolves a format name as accepted on the command line
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sim", "simple":
		return Simple, nil
	case "min", "nbist":
		return NBIST, nil
	case "mindtct":
		return MINDTCT, nil
	case "xyt":
		return XYT, nil
	default:
		return FormatUnknown, &UnsupportedFormatError{Ext: name}
	}
}

// FormatForPath resolves the format from a file extension
func FormatForPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".sim":
		return Simple, nil
	case ".min":
		return NBIST, nil
	case ".xyt":
		return XYT, nil
	default:
		return FormatUnknown, &UnsupportedFormatError{Ext: ext}
	}
}

// Encode serialises the collection in the given format. dims is the size of
// the source image; only NBIST stores it.
func Encode(f Format, c *minutiae.Collection, dims image.Point) (string, error) {
	switch f {
	case Simple:
		return encodeSimple(c)
	case NBIST, MINDTCT:
		return encodeNBIST(c, dims)
	case XYT:
		return encodeXYT(c)
	default:
		return "", corrupt(f, 0, "no encoder for format")
	}
}

// Decode parses text in the given format into a new collection
func Decode(f Format, text string) (*minutiae.Collection, error) {
	switch f {
	case Simple:
		return decodeSimple(text)
	case NBIST, MINDTCT:
		return decodeNBIST(text)
	case XYT:
		return decodeXYT(text)
	default:
		return nil, corrupt(f, 0, "no decoder for format")
	}
}

// formatFloat renders a float the way the reference files do: the
// shortest representation, with a decimal point in plain notation ("45.0",
// "0.8") and exponent notation outside [1e-4, 1e16) ("1e-05").
func formatFloat(v float64) string {
	if v != 0 && !math.IsInf(v, 0) && !math.IsNaN(v) {
		e := strconv.FormatFloat(v, 'e', -1, 64)
		if exp, err := strconv.Atoi(e[strings.IndexByte(e, 'e')+1:]); err == nil && (exp < -4 || exp >= 16) {
			return e
		}
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".IN") {
		s += ".0"
	}
	return s
}

// lines splits text into lines, tolerating CRLF endings
func lines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}

func parseInt(f Format, line int, field, s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, corrupt(f, line, "invalid %s %q", field, strings.TrimSpace(s))
	}
	if v < 0 {
		return 0, corrupt(f, line, "negative %s %d", field, v)
	}
	return v, nil
}

func parseFloat(f Format, line int, field, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, corrupt(f, line, "invalid %s %q", field, strings.TrimSpace(s))
	}
	return v, nil
}

func typeError(f Format, m minutiae.Minutia) error {
	return corrupt(f, 0, "minutia of unknown type: %s", fmt.Sprint(m))
}
