package render

import (
	"fmt"
	"image/color"
	"strings"
)

// ParseHex parses a #rrggbb color string.
func ParseHex(hex string) (color.RGBA, error) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("color %q is not #rrggbb", hex)
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, fmt.Errorf("color %q is not #rrggbb: %w", hex, err)
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// Lerp blends two colors channel-wise; w=0 yields a, w=1 yields b.
func Lerp(a, b color.RGBA, w float64) color.RGBA {
	if w < 0 {
		w = 0
	} else if w > 1 {
		w = 1
	}
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*w + 0.5)
	}
	return color.RGBA{
		R: mix(a.R, b.R),
		G: mix(a.G, b.G),
		B: mix(a.B, b.B),
		A: 255,
	}
}
