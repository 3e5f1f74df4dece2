package media

import (
	"fmt"
	"math"
	"strings"
)

// ColorRange holds inclusive lower/upper bounds in HSV space using the
// conventional fixed-point scaling: hue in [0,179] (degrees halved),
// saturation and value in [0,255]. Channel order is H, S, V.
type ColorRange struct {
	Lower [3]uint8
	Upper [3]uint8
}

// DefaultGreenRange covers the neutral green backdrop used by most
// green-screen footage.
func DefaultGreenRange() ColorRange {
	return ColorRange{
		Lower: [3]uint8{40, 40, 40},
		Upper: [3]uint8{80, 255, 255},
	}
}

var colorChannelNames = [3]string{"hue", "saturation", "value"}

// Validate enforces lower <= upper on every channel. Hue wrap-around ranges
// (lower > upper on hue) are rejected rather than reinterpreted; the matcher
// never treats inverted bounds as a wrapped interval.
func (r ColorRange) Validate() error {
	for i := range r.Lower {
		if r.Lower[i] > r.Upper[i] {
			if i == 0 {
				return fmt.Errorf("color range: hue lower %d exceeds upper %d (wrap-around ranges are not supported)", r.Lower[i], r.Upper[i])
			}
			return fmt.Errorf("color range: %s lower %d exceeds upper %d", colorChannelNames[i], r.Lower[i], r.Upper[i])
		}
	}
	if r.Lower[0] > 179 || r.Upper[0] > 179 {
		return fmt.Errorf("color range: hue bounds %d..%d outside [0,179]", r.Lower[0], r.Upper[0])
	}
	return nil
}

// Contains reports whether the HSV triple falls inside the inclusive bounds.
func (r ColorRange) Contains(h, s, v uint8) bool {
	return h >= r.Lower[0] && h <= r.Upper[0] &&
		s >= r.Lower[1] && s <= r.Upper[1] &&
		v >= r.Lower[2] && v <= r.Upper[2]
}

// RGBToHSV converts one pixel to the fixed-point HSV scaling used by
// ColorRange: hue in [0,179], saturation and value in [0,255].
func RGBToHSV(r, g, b uint8) (uint8, uint8, uint8) {
	rf, gf, bf := float64(r), float64(g), float64(b)
	max := math.Max(rf, math.Max(gf, bf))
	min := math.Min(rf, math.Min(gf, bf))
	delta := max - min

	v := max
	var s float64
	if max > 0 {
		s = delta / max * 255
	}
	var h float64
	if delta > 0 {
		switch max {
		case rf:
			h = 60 * (gf - bf) / delta
		case gf:
			h = 120 + 60*(bf-rf)/delta
		default:
			h = 240 + 60*(rf-gf)/delta
		}
		if h < 0 {
			h += 360
		}
	}
	hh := math.Round(h / 2)
	if hh >= 180 {
		hh -= 180
	}
	return uint8(hh), uint8(math.Round(s)), uint8(math.Round(v))
}

// RGB is a plain 8-bit color triple.
type RGB struct {
	R, G, B uint8
}

// ParseHexColor accepts "#RRGGBB", "0xRRGGBB", or bare "RRGGBB".
func ParseHexColor(value string) (RGB, error) {
	cleaned := strings.TrimSpace(value)
	cleaned = strings.TrimPrefix(cleaned, "#")
	cleaned = strings.TrimPrefix(cleaned, "0x")
	cleaned = strings.TrimPrefix(cleaned, "0X")
	if len(cleaned) != 6 {
		return RGB{}, fmt.Errorf("hex color %q: want 6 hex digits", value)
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(cleaned, "%02x%02x%02x", &r, &g, &b); err != nil {
		return RGB{}, fmt.Errorf("hex color %q: %w", value, err)
	}
	return RGB{R: r, G: g, B: b}, nil
}

// Hex renders the color in the 0xRRGGBB form ffmpeg filters accept.
func (c RGB) Hex() string {
	return fmt.Sprintf("0x%02X%02X%02X", c.R, c.G, c.B)
}
