package operations

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

var namedColors = map[string]color.NRGBA{
	"white":  {255, 255, 255, 255},
	"black":  {0, 0, 0, 255},
	"red":    {255, 0, 0, 255},
	"green":  {0, 128, 0, 255},
	"blue":   {0, 0, 255, 255},
	"yellow": {255, 255, 0, 255},
	"gray":   {128, 128, 128, 255},
	"grey":   {128, 128, 128, 255},
}

var white = color.NRGBA{255, 255, 255, 255}

// ParseColor accepts "#rgb", "#rrggbb", "r,g,b" and a few color names.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.ToLower(strings.ReplaceAll(s, " ", ""))
	if s == "" {
		return white, fmt.Errorf("empty color")
	}

	if c, ok := namedColors[s]; ok {
		return c, nil
	}

	if strings.HasPrefix(s, "#") {
		return parseHex(s[1:])
	}

	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return white, fmt.Errorf("invalid color format %q", s)
	}

	var rgb [3]uint8
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return white, fmt.Errorf("invalid color values %q: %w", s, err)
		}
		rgb[i] = uint8(clamp(v, 0, 255))
	}

	return color.NRGBA{rgb[0], rgb[1], rgb[2], 255}, nil
}

func parseHex(h string) (color.NRGBA, error) {
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return white, fmt.Errorf("invalid hex color #%s", h)
	}

	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return white, fmt.Errorf("invalid hex color #%s: %w", h, err)
	}

	return color.NRGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}, nil
}

// ShadowColor is black behind pure white text and white behind anything else.
func ShadowColor(c color.NRGBA) color.NRGBA {
	if c.R == 255 && c.G == 255 && c.B == 255 {
		return color.NRGBA{0, 0, 0, 255}
	}
	return white
}

func withOpacity(c color.NRGBA, opacity float64) color.NRGBA {
	c.A = uint8(clamp(int(opacity*255+0.5), 0, 255))
	return c
}

func clamp(value, lo, hi int) int {
	return min(hi, max(lo, value))
}
