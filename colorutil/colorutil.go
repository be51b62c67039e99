// Package colorutil generates and manipulates player display colors.
//
// Random colors are sampled in HSL with fixed saturation and lightness so
// every player gets a bright, distinguishable color regardless of hue.
package colorutil

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
)

const (
	randomSaturation = 80.0
	randomLightness  = 50.0
)

// Random returns an uppercase "#RRGGBB" color with a uniformly random hue,
// saturation 80% and lightness 50%.
func Random() string {
	return HSLToHex(rand.Float64()*360, randomSaturation, randomLightness)
}

// ShiftHue converts hex to HSL, adds delta to the hue (wrapping into
// [0, 360)) and converts back. Saturation and lightness are preserved.
// An unparsable color is returned unchanged.
func ShiftHue(hex string, delta float64) string {
	h, s, l, err := HexToHSL(hex)
	if err != nil {
		return hex
	}
	return HSLToHex(h+delta, s, l)
}

// HSLToHex converts hue [0,360), saturation [0,100] and lightness [0,100]
// to an uppercase "#RRGGBB" string. Hue values outside the range wrap.
func HSLToHex(hue, saturation, lightness float64) string {
	hue = math.Mod(hue, 360)
	if hue < 0 {
		hue += 360
	}
	lightness /= 100
	a := saturation * math.Min(lightness, 1-lightness) / 100

	f := func(n float64) int {
		k := math.Mod(n+hue/30, 12)
		c := lightness - a*math.Max(math.Min(math.Min(k-3, 9-k), 1), -1)
		return int(math.Round(255 * c))
	}

	return strings.ToUpper(fmt.Sprintf("#%02x%02x%02x", f(0), f(8), f(4)))
}

// HexToHSL parses "#RRGGBB" (case insensitive, leading '#' optional) into
// hue [0,360), saturation [0,100] and lightness [0,100].
func HexToHSL(hex string) (h, s, l float64, err error) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 0, 0, 0, fmt.Errorf("invalid hex color %q", hex)
	}
	var ri, gi, bi int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &ri, &gi, &bi); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}

	r := float64(ri) / 255
	g := float64(gi) / 255
	b := float64(bi) / 255

	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	l = (max + min) / 2

	if max == min {
		// achromatic
		return 0, 0, l * 100, nil
	}

	d := max - min
	if l > 0.5 {
		s = d / (2 - max - min)
	} else {
		s = d / (max + min)
	}

	switch max {
	case r:
		h = (g - b) / d
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	case b:
		h = (r-g)/d + 4
	}
	h *= 60
	if h >= 360 {
		h -= 360
	}

	return h, s * 100, l * 100, nil
}
