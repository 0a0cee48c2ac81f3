package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"

	xdraw "golang.org/x/image/draw"

	// Codecs for standalone image input.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnreadable marks inputs that cannot be opened or rasterized at all.
// Wrapped errors carry the underlying cause.
var ErrUnreadable = errors.New("source unreadable")

// Document abstracts a paged document for rasterization.
type Document interface {
	NumPage() int
	// Render rasterizes the zero-based page at the given DPI into an opaque
	// pixel buffer. On failure no partial buffer is returned.
	Render(i int, dpi float64) (image.Image, error)
	Close() error
}

// Opener abstracts opening a document path into a Document.
type Opener interface {
	Open(path string) (Document, error)
}

// LoadImage decodes a standalone raster image and flattens it against white.
// Images whose longest side exceeds maxSide are downscaled to bound OCR
// latency; maxSide <= 0 disables the cap. Returns the decoded format name
// ("png", "jpeg", ...) alongside the buffer.
func LoadImage(path string, maxSide int) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("%w: decode image: %v", ErrUnreadable, err)
	}

	out := Flatten(img)
	if maxSide > 0 {
		out = capSize(out, maxSide)
	}
	return out, format, nil
}

// Flatten composites src over a white background into an opaque RGBA buffer,
// removing any alpha channel.
func Flatten(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}

// Grayscale converts src to an 8-bit grayscale buffer.
func Grayscale(src image.Image) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// capSize downscales img so its longest side is at most maxSide; smaller
// images pass through untouched.
func capSize(img *image.RGBA, maxSide int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= maxSide {
		return img
	}
	scale := float64(maxSide) / float64(longest)
	nw := int(float64(w) * scale)
	nh := int(float64(h) * scale)
	if nw < 1 { nw = 1 }
	if nh < 1 { nh = 1 }
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
