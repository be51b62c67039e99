package colorutil

import (
	"math"
	"regexp"
	"testing"
)

var hexPattern = regexp.MustCompile(`^#[0-9A-F]{6}$`)

func TestRandom_Format(t *testing.T) {
	for i := 0; i < 100; i++ {
		c := Random()
		if !hexPattern.MatchString(c) {
			t.Fatalf("Random returned malformed color %q", c)
		}
	}
}

func TestRandom_Brightness(t *testing.T) {
	for i := 0; i < 100; i++ {
		c := Random()
		_, s, l, err := HexToHSL(c)
		if err != nil {
			t.Fatalf("HexToHSL(%q) failed: %v", c, err)
		}
		// 8-bit quantization moves saturation/lightness slightly off the
		// generator's fixed values.
		if math.Abs(s-80) > 2 {
			t.Errorf("color %q has saturation %.1f, want ~80", c, s)
		}
		if math.Abs(l-50) > 2 {
			t.Errorf("color %q has lightness %.1f, want ~50", c, l)
		}
	}
}

func TestHSLToHex_KnownValues(t *testing.T) {
	tests := []struct {
		h, s, l float64
		want    string
	}{
		{0, 100, 50, "#FF0000"},
		{120, 100, 50, "#00FF00"},
		{240, 100, 50, "#0000FF"},
		{0, 0, 100, "#FFFFFF"},
		{0, 0, 0, "#000000"},
		{360, 100, 50, "#FF0000"}, // wraps
		{-120, 100, 50, "#0000FF"},
	}
	for _, tt := range tests {
		if got := HSLToHex(tt.h, tt.s, tt.l); got != tt.want {
			t.Errorf("HSLToHex(%v, %v, %v) = %q, want %q", tt.h, tt.s, tt.l, got, tt.want)
		}
	}
}

func TestHexToHSL_Invalid(t *testing.T) {
	for _, bad := range []string{"", "#fff", "#gggggg", "not-a-color"} {
		if _, _, _, err := HexToHSL(bad); err == nil {
			t.Errorf("HexToHSL(%q) should fail", bad)
		}
	}
}

func TestShiftHue_RoundTrip(t *testing.T) {
	start := HSLToHex(200, 80, 50)
	shifted := ShiftHue(start, 90)
	back := ShiftHue(shifted, -90)

	h0, s0, l0, err := HexToHSL(start)
	if err != nil {
		t.Fatal(err)
	}
	h1, s1, l1, err := HexToHSL(back)
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(h0-h1) > 2 {
		t.Errorf("hue round trip drifted: %v -> %v", h0, h1)
	}
	if math.Abs(s0-s1) > 2 || math.Abs(l0-l1) > 2 {
		t.Errorf("saturation/lightness changed: (%v,%v) -> (%v,%v)", s0, l0, s1, l1)
	}
}

func TestShiftHue_Wraps(t *testing.T) {
	start := HSLToHex(350, 80, 50)
	shifted := ShiftHue(start, 20) // 370 -> 10
	h, _, _, err := HexToHSL(shifted)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(h-10) > 2 {
		t.Errorf("expected hue ~10 after wrap, got %v", h)
	}
}

func TestShiftHue_InvalidPassthrough(t *testing.T) {
	if got := ShiftHue("nonsense", 40); got != "nonsense" {
		t.Errorf("invalid color should pass through unchanged, got %q", got)
	}
}
