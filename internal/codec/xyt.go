package codec

import (
	"fmt"
	"math"
	"strings"

	"minview/internal/minutiae"
)

// XYT: "x y theta quality" per line, no header, no newline after the last
// line. theta is folded into [0, 180), which drops the direction sense;
// quality is written as an integer percentage. The format carries no type.

func encodeXYT(c *minutiae.Collection) (string, error) {
	rows := make([]string, 0, c.Len())
	for _, m := range c.All() {
		theta := int(math.Mod(minutiae.NormalizeAngle(m.Angle), 180))
		quality := int(m.Quality * 100)
		rows = append(rows, fmt.Sprintf("%d %d %d %d", m.X, m.Y, theta, quality))
	}
	return strings.Join(rows, "\n"), nil
}

// decodeXYT reads XYT files written by this package or by bozorth-style
// tools. Every entry is typed as a ridge ending.
func decodeXYT(text string) (*minutiae.Collection, error) {
	c := minutiae.NewCollection()
	for i, raw := range lines(text) {
		lineNo := i + 1
		fields := strings.Fields(raw)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 3 && len(fields) != 4 {
			return nil, corrupt(XYT, lineNo, "expected 4 fields, got %d", len(fields))
		}

		x, err := parseInt(XYT, lineNo, "x", fields[0])
		if err != nil {
			return nil, err
		}
		y, err := parseInt(XYT, lineNo, "y", fields[1])
		if err != nil {
			return nil, err
		}
		theta, err := parseFloat(XYT, lineNo, "theta", fields[2])
		if err != nil {
			return nil, err
		}

		quality := minutiae.DefaultQuality
		if len(fields) == 4 {
			pct, err := parseFloat(XYT, lineNo, "quality", fields[3])
			if err != nil {
				return nil, err
			}
			quality = pct / 100
		}

		c.Append(minutiae.New(x, y, theta, minutiae.RidgeEnding, quality))
	}
	return c, nil
}
