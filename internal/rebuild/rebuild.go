// Package rebuild re-assembles output artifacts from rotated page images:
// a fresh PDF, a re-encoded standalone image, or a ZIP of per-page images.
// The rebuild stage owns the output exclusively; the decision stage never
// sees it.
package rebuild

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// ErrEmptyDocument marks archive exports of sources with no pages.
var ErrEmptyDocument = errors.New("document has no pages")

// ErrRebuild wraps any output encoding/writing failure; fatal per request.
var ErrRebuild = errors.New("rebuild failed")

// EncodeImage writes img to w in the given format ("png", "jpeg", "tiff",
// "bmp"). Lossy formats keep a high-quality setting. Formats that cannot be
// encoded (webp) fall back to PNG.
func EncodeImage(w io.Writer, img image.Image, format string, jpegQuality int) error {
	if jpegQuality <= 0 || jpegQuality > 100 {
		jpegQuality = 95
	}
	var err error
	switch format {
	case "jpeg":
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
	case "tiff":
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case "bmp":
		err = bmp.Encode(w, img)
	default:
		err = png.Encode(w, img)
	}
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrRebuild, format, err)
	}
	return nil
}

// OutputExtension maps an input image format to the extension the re-encoded
// artifact will carry. Formats without an encoder come back as PNG.
func OutputExtension(format string) string {
	switch format {
	case "jpeg":
		return ".jpg"
	case "tiff":
		return ".tiff"
	case "bmp":
		return ".bmp"
	}
	return ".png"
}
