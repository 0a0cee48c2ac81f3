package deskew

import (
	"image"
	"math"
	"testing"
)

func fixed(angle float64) Estimator {
	return func(image.Image) float64 { return angle }
}

func testImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 200, 100))
}

func TestCorrectAppliesAboveThreshold(t *testing.T) {
	c := &Corrector{Threshold: 0.25, Estimate: fixed(2.0)}
	out, res := c.Correct(testImage())

	if !res.Applied || res.Angle != 2.0 {
		t.Fatalf("result = %+v, want applied at 2.0", res)
	}
	// Counter-rotation expands the canvas slightly.
	if b := out.Bounds(); b.Dx() <= 200 || b.Dy() <= 100 {
		t.Fatalf("bounds = %v, want expanded canvas", b)
	}
}

func TestCorrectSkipsBelowThreshold(t *testing.T) {
	c := &Corrector{Threshold: 0.25, Estimate: fixed(0.1)}
	in := testImage()
	out, res := c.Correct(in)

	if res.Applied {
		t.Fatalf("result = %+v, want skipped", res)
	}
	if res.Angle != 0.1 {
		t.Fatalf("angle = %v, want estimate recorded even when skipped", res.Angle)
	}
	if out != in {
		t.Fatal("image should pass through untouched")
	}
}

func TestForceAppliesSmallAngle(t *testing.T) {
	c := &Corrector{Threshold: 0.25, Force: true, Estimate: fixed(0.1)}
	_, res := c.Correct(testImage())
	if !res.Applied {
		t.Fatalf("result = %+v, want forced application", res)
	}
}

func TestCorrectDiscardsNaN(t *testing.T) {
	c := &Corrector{Threshold: 0.25, Estimate: fixed(math.NaN())}
	in := testImage()
	out, res := c.Correct(in)
	if res.Applied || out != in {
		t.Fatalf("NaN estimate should be a no-op, got %+v", res)
	}
}

func TestCorrectDiscardsImplausibleEstimate(t *testing.T) {
	c := &Corrector{Threshold: 0.25, Estimate: fixed(60)}
	in := testImage()
	out, res := c.Correct(in)
	if res.Applied || out != in {
		t.Fatalf("implausible estimate should be discarded, got %+v", res)
	}
}

func TestNilEstimatorIsNoop(t *testing.T) {
	c := &Corrector{Threshold: 0.25}
	in := testImage()
	out, res := c.Correct(in)
	if res.Applied || out != in {
		t.Fatalf("nil estimator should be a no-op, got %+v", res)
	}
}
