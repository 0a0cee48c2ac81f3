package raster

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestFlattenRemovesAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.SetNRGBA(0, 0, color.NRGBA{R: 0, G: 0, B: 0, A: 0}) // fully transparent

	out := Flatten(src)
	r, g, b, a := out.At(0, 0).RGBA()
	if r != 0xffff || g != 0xffff || b != 0xffff || a != 0xffff {
		t.Fatalf("transparent pixel = %d,%d,%d,%d, want opaque white", r, g, b, a)
	}
}

func TestFlattenNormalizesOrigin(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 14, 13))
	out := Flatten(src)
	if b := out.Bounds(); b.Min.X != 0 || b.Min.Y != 0 || b.Dx() != 4 || b.Dy() != 3 {
		t.Fatalf("bounds = %v, want origin at 0,0 sized 4x3", b)
	}
}

func TestGrayscale(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.SetRGBA(0, 0, color.RGBA{255, 255, 255, 255})
	src.SetRGBA(1, 0, color.RGBA{0, 0, 0, 255})

	g := Grayscale(src)
	if g.GrayAt(0, 0).Y != 255 {
		t.Fatalf("white pixel = %d, want 255", g.GrayAt(0, 0).Y)
	}
	if g.GrayAt(1, 0).Y != 0 {
		t.Fatalf("black pixel = %d, want 0", g.GrayAt(1, 0).Y)
	}
}

func TestLoadImageCapsLongSide(t *testing.T) {
	p := filepath.Join(t.TempDir(), "big.png")
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 400, 100))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	f.Close()

	img, format, err := LoadImage(p, 200)
	if err != nil {
		t.Fatalf("LoadImage() error = %v", err)
	}
	if format != "png" {
		t.Fatalf("format = %q, want png", format)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 50 {
		t.Fatalf("bounds = %v, want 200x50", b)
	}
}

func TestLoadImageNoCapWhenDisabled(t *testing.T) {
	p := filepath.Join(t.TempDir(), "img.png")
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 50, 30))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	f.Close()

	img, _, err := LoadImage(p, 0)
	if err != nil {
		t.Fatalf("LoadImage() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 50 || b.Dy() != 30 {
		t.Fatalf("bounds = %v, want untouched 50x30", b)
	}
}

func TestLoadImageUnreadable(t *testing.T) {
	p := filepath.Join(t.TempDir(), "broken.png")
	if err := os.WriteFile(p, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := LoadImage(p, 0); !errors.Is(err, ErrUnreadable) {
		t.Fatalf("LoadImage(broken) error = %v, want ErrUnreadable", err)
	}
	if _, _, err := LoadImage(filepath.Join(t.TempDir(), "missing.png"), 0); !errors.Is(err, ErrUnreadable) {
		t.Fatalf("LoadImage(missing) error = %v, want ErrUnreadable", err)
	}
}
