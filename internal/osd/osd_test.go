package osd

import "testing"

const sampleOutput = `Page number: 0
Orientation in degrees: 270
Rotate: 90
Orientation confidence: 12.74
Script: Latin
Script confidence: 4.33
`

func TestParseOrientation(t *testing.T) {
	deg, ok := parseOrientation(sampleOutput)
	if !ok || deg != 270 {
		t.Fatalf("parseOrientation = %d, %v; want 270, true", deg, ok)
	}
}

func TestParseOrientationNormalizes(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"Orientation in degrees: 0", 0},
		{"Orientation in degrees: 360", 0},
		{"Orientation in degrees: -90", 270},
		{"Orientation in degrees: 450", 90},
	}
	for _, c := range cases {
		deg, ok := parseOrientation(c.in)
		if !ok || deg != c.want {
			t.Fatalf("parseOrientation(%q) = %d, %v; want %d, true", c.in, deg, ok, c.want)
		}
	}
}

func TestParseOrientationRejectsGarbage(t *testing.T) {
	cases := []string{
		"",
		"Rotate: 90",
		"Orientation in degrees: forty-five",
		"Orientation in degrees: 45", // not a quadrant
	}
	for _, in := range cases {
		if deg, ok := parseOrientation(in); ok {
			t.Fatalf("parseOrientation(%q) = %d, true; want no result", in, deg)
		}
	}
}

func TestNewDefaultsBinary(t *testing.T) {
	d := New("", "")
	if d.bin != "tesseract" {
		t.Fatalf("bin = %q, want tesseract", d.bin)
	}
}
