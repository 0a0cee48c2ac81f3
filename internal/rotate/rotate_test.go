package rotate

import (
	"image"
	"image/color"
	"testing"
)

// gradient builds a w x h image where every pixel has a unique color derived
// from its coordinates, so mappings can be verified exactly.
func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 11), B: uint8(x + y), A: 255})
		}
	}
	return img
}

func samePixels(t *testing.T, a, b image.Image) {
	t.Helper()
	if a.Bounds() != b.Bounds() {
		t.Fatalf("bounds differ: %v vs %v", a.Bounds(), b.Bounds())
	}
	bd := a.Bounds()
	for y := bd.Min.Y; y < bd.Max.Y; y++ {
		for x := bd.Min.X; x < bd.Max.X; x++ {
			ar, ag, ab, aa := a.At(x, y).RGBA()
			br, bg, bb, ba := b.At(x, y).RGBA()
			if ar != br || ag != bg || ab != bb || aa != ba {
				t.Fatalf("pixel (%d,%d) differs", x, y)
			}
		}
	}
}

func TestQuadrantZeroIsIdentity(t *testing.T) {
	src := gradient(5, 3)
	if got := Quadrant(src, 0); got != image.Image(src) {
		t.Fatal("rotation by 0 should return the source unchanged")
	}
	if got := Quadrant(src, 360); got != image.Image(src) {
		t.Fatal("rotation by 360 should return the source unchanged")
	}
}

func TestQuadrant90SwapsDimensionsAndMapsCorners(t *testing.T) {
	src := gradient(5, 3)
	got := Quadrant(src, 90)

	b := got.Bounds()
	if b.Dx() != 3 || b.Dy() != 5 {
		t.Fatalf("bounds = %v, want 3x5", b)
	}

	// Top-left of the source lands in the top-right corner after a clockwise
	// quarter turn.
	wantR, wantG, wantB, wantA := src.At(0, 0).RGBA()
	gr, gg, gb, ga := got.At(2, 0).RGBA()
	if gr != wantR || gg != wantG || gb != wantB || ga != wantA {
		t.Fatal("source (0,0) did not map to destination top-right")
	}
}

func TestQuadrantRoundTrips(t *testing.T) {
	src := gradient(7, 4)

	samePixels(t, src, Quadrant(Quadrant(src, 90), 270))
	samePixels(t, src, Quadrant(Quadrant(src, 180), 180))
	samePixels(t, src, Quadrant(Quadrant(Quadrant(Quadrant(src, 90), 90), 90), 90))
}

func TestQuadrantNormalizesNegative(t *testing.T) {
	src := gradient(4, 6)
	samePixels(t, Quadrant(src, -90), Quadrant(src, 270))
}

func TestArbitraryExpandsCanvasAndFillsWhite(t *testing.T) {
	src := gradient(100, 50)
	got := Arbitrary(src, 45)

	b := got.Bounds()
	if b.Dx() <= 100 || b.Dy() <= 50 {
		t.Fatalf("canvas did not expand: %v", b)
	}

	// A 45 degree rotation leaves the destination corners outside the source
	// footprint; they must be white, not transparent or black.
	r, g, bl, _ := got.At(0, 0).RGBA()
	if r != 0xffff || g != 0xffff || bl != 0xffff {
		t.Fatalf("corner pixel = %d,%d,%d, want white", r, g, bl)
	}
}

func TestArbitraryZeroKeepsDimensions(t *testing.T) {
	src := gradient(30, 20)
	got := Arbitrary(src, 0)
	if b := got.Bounds(); b.Dx() != 30 || b.Dy() != 20 {
		t.Fatalf("bounds = %v, want 30x20", b)
	}
}
