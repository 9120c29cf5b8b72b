package codec

import (
	"fmt"
	"strings"

	"minview/internal/minutiae"
)

// SIMPLE: one "x y angle type quality" line per minutia, no header, no
// newline after the last line. Types are BIF and END.

func simpleTypeCode(t minutiae.Type) (string, bool) {
	switch t {
	case minutiae.Bifurcation:
		return "BIF", true
	case minutiae.RidgeEnding:
		return "END", true
	default:
		return "", false
	}
}

func encodeSimple(c *minutiae.Collection) (string, error) {
	rows := make([]string, 0, c.Len())
	for _, m := range c.All() {
		code, ok := simpleTypeCode(m.Type)
		if !ok {
			return "", typeError(Simple, m)
		}
		rows = append(rows, fmt.Sprintf("%d %d %s %s %s",
			m.X, m.Y, formatFloat(m.Angle), code, formatFloat(m.Quality)))
	}
	return strings.Join(rows, "\n"), nil
}

func decodeSimple(text string) (*minutiae.Collection, error) {
	c := minutiae.NewCollection()
	for i, raw := range lines(text) {
		lineNo := i + 1
		fields := strings.Fields(raw)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 4 && len(fields) != 5 {
			return nil, corrupt(Simple, lineNo, "expected 5 fields, got %d", len(fields))
		}

		x, err := parseInt(Simple, lineNo, "x", fields[0])
		if err != nil {
			return nil, err
		}
		y, err := parseInt(Simple, lineNo, "y", fields[1])
		if err != nil {
			return nil, err
		}
		angle, err := parseFloat(Simple, lineNo, "angle", fields[2])
		if err != nil {
			return nil, err
		}

		var t minutiae.Type
		switch strings.ToUpper(fields[3]) {
		case "BIF":
			t = minutiae.Bifurcation
		case "END":
			t = minutiae.RidgeEnding
		default:
			return nil, corrupt(Simple, lineNo, "unknown minutia type %q", fields[3])
		}

		quality := minutiae.DefaultQuality
		if len(fields) == 5 {
			if quality, err = parseFloat(Simple, lineNo, "quality", fields[4]); err != nil {
				return nil, err
			}
		}

		c.Append(minutiae.New(x, y, angle, t, quality))
	}
	return c, nil
}
