package codec

import (
	"fmt"
	"image"
	"math"
	"strings"

	"minview/internal/minutiae"
)

// NBIST/MINDTCT layout:
//
//	Image (w,h) 512 480
//
//	2 Minutiae Detected
//
//	 0 :  100,  200 : 4 :  0.8 :BIF : This file is incomplete
//	 1 :  30,  40 : 8 :  1.0 :RIG : This file is incomplete
//
// Only the fields this viewer consumes are reproduced; mindtct itself
// writes neighbour lists after the type code, which decoding ignores.

const (
	// AngleStep is the width of one quantized NBIST direction in degrees
	AngleStep = 11.25
	// AngleSteps is the number of quantized directions over a full turn
	AngleSteps = 32

	nbistHeaderPrefix = "Image (w,h)"
	nbistCountSuffix  = "Minutiae Detected"
	nbistTrailer      = "This file is incomplete"
)

// QuantizeAngle maps an angle in degrees onto its NBIST direction code.
// Halves round to even, matching the reference files.
func QuantizeAngle(angle float64) int {
	code := int(math.RoundToEven(minutiae.NormalizeAngle(angle) / AngleStep))
	return code % AngleSteps
}

// DequantizeAngle maps an NBIST direction code back to degrees
func DequantizeAngle(code int) float64 {
	return minutiae.NormalizeAngle(float64(code) * AngleStep)
}

func nbistTypeCode(t minutiae.Type) (string, bool) {
	switch t {
	case minutiae.Bifurcation:
		return "BIF", true
	case minutiae.RidgeEnding:
		return "RIG", true
	default:
		return "", false
	}
}

func encodeNBIST(c *minutiae.Collection, dims image.Point) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d %d\n", nbistHeaderPrefix, dims.X, dims.Y)
	b.WriteString("\n")
	fmt.Fprintf(&b, "%d %s\n", c.Len(), nbistCountSuffix)
	b.WriteString("\n")

	for i, m := range c.All() {
		code, ok := nbistTypeCode(m.Type)
		if !ok {
			return "", typeError(NBIST, m)
		}
		fmt.Fprintf(&b, " %d :  %d,  %d : %d :  %s :%s : %s\n",
			i, m.X, m.Y, QuantizeAngle(m.Angle), formatFloat(m.Quality), code, nbistTrailer)
	}
	return b.String(), nil
}

func decodeNBIST(text string) (*minutiae.Collection, error) {
	c := minutiae.NewCollection()
	for i, raw := range lines(text) {
		lineNo := i + 1
		line := strings.TrimSpace(raw)
		if line == "" || isNBISTHeader(line) {
			continue
		}

		fields := strings.Split(line, ":")
		if len(fields) < 5 {
			return nil, corrupt(NBIST, lineNo, "expected at least 5 ':' separated fields, got %d", len(fields))
		}

		if _, err := parseInt(NBIST, lineNo, "index", fields[0]); err != nil {
			return nil, err
		}

		xs, ys, ok := strings.Cut(fields[1], ",")
		if !ok {
			return nil, corrupt(NBIST, lineNo, "invalid position %q", strings.TrimSpace(fields[1]))
		}
		x, err := parseInt(NBIST, lineNo, "x", xs)
		if err != nil {
			return nil, err
		}
		y, err := parseInt(NBIST, lineNo, "y", ys)
		if err != nil {
			return nil, err
		}

		code, err := parseInt(NBIST, lineNo, "direction", fields[2])
		if err != nil {
			return nil, err
		}

		quality := minutiae.DefaultQuality
		if q := strings.TrimSpace(fields[3]); q != "" {
			if quality, err = parseFloat(NBIST, lineNo, "quality", q); err != nil {
				return nil, err
			}
		}

		var t minutiae.Type
		switch strings.ToUpper(strings.TrimSpace(fields[4])) {
		case "BIF":
			t = minutiae.Bifurcation
		case "RIG":
			t = minutiae.RidgeEnding
		default:
			return nil, corrupt(NBIST, lineNo, "unknown minutia type %q", strings.TrimSpace(fields[4]))
		}

		c.Append(minutiae.New(x, y, DequantizeAngle(code), t, quality))
	}
	return c, nil
}

func isNBISTHeader(line string) bool {
	return strings.HasPrefix(line, nbistHeaderPrefix) || strings.HasSuffix(line, nbistCountSuffix)
}

// Header extracts the image size recorded in an NBIST header. The size is
// metadata only; decoding never needs it.
func Header(text string) (image.Point, bool) {
	for _, raw := range lines(text) {
		line := strings.TrimSpace(raw)
		if !strings.HasPrefix(line, nbistHeaderPrefix) {
			continue
		}
		var w, h int
		if _, err := fmt.Sscanf(strings.TrimPrefix(line, nbistHeaderPrefix), "%d %d", &w, &h); err != nil {
			return image.Point{}, false
		}
		return image.Pt(w, h), true
	}
	return image.Point{}, false
}
