package overlay

import (
	"fmt"
	"image/color"
	"regexp"
	"strconv"
	"strings"
)

// EraserColor is the color value the viewer uses to select the eraser.
const EraserColor = "eraser"

// Color is an RGBA color with 8-bit channels and a fractional alpha, the
// shape CSS rgba() strings have. It serializes as an rgba() string.
type Color struct {
	R, G, B uint8
	A       float64
}

// DefaultHighlight is the translucent yellow new strokes use.
var DefaultHighlight = Color{R: 255, G: 255, B: 0, A: 0.5}

var rgbaPattern = regexp.MustCompile(`^rgba?\(\s*(\d{1,3})\s*,\s*(\d{1,3})\s*,\s*(\d{1,3})\s*(?:,\s*([\d.]+)\s*)?\)$`)

// ParseColor parses rgb(), rgba() and #rrggbb color strings.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if strings.HasPrefix(s, "#") && len(s) == 7 {
		v, err := strconv.ParseUint(s[1:], 16, 32)
		if err != nil {
			return Color{}, fmt.Errorf("invalid hex color %q: %w", s, err)
		}
		return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 1}, nil
	}

	m := rgbaPattern.FindStringSubmatch(s)
	if m == nil {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	var c Color
	for i, dst := range []*uint8{&c.R, &c.G, &c.B} {
		v, err := strconv.Atoi(m[i+1])
		if err != nil || v > 255 {
			return Color{}, fmt.Errorf("invalid color channel %q in %q", m[i+1], s)
		}
		*dst = uint8(v)
	}
	c.A = 1
	if m[4] != "" {
		a, err := strconv.ParseFloat(m[4], 64)
		if err != nil || a < 0 || a > 1 {
			return Color{}, fmt.Errorf("invalid alpha %q in %q", m[4], s)
		}
		c.A = a
	}
	return c, nil
}

// String formats the color as a CSS rgba() string.
func (c Color) String() string {
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B, strconv.FormatFloat(c.A, 'f', -1, 64))
}

// Unit returns the RGB channels scaled to [0, 1].
func (c Color) Unit() (r, g, b float64) {
	return float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255
}

// NRGBA converts to a non-premultiplied image color.
func (c Color) NRGBA() color.NRGBA {
	a := c.A
	if a < 0 {
		a = 0
	}
	if a > 1 {
		a = 1
	}
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(a*255 + 0.5)}
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
