package raster

import (
	"fmt"
	"image"

	fitz "github.com/gen2brain/go-fitz"
)

// FitzOpener implements Opener using github.com/gen2brain/go-fitz (MuPDF).
type FitzOpener struct{}

func (FitzOpener) Open(path string) (Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open document: %v", ErrUnreadable, err)
	}
	return &fitzDoc{doc}, nil
}

type fitzDoc struct {
	doc *fitz.Document
}

func (d *fitzDoc) NumPage() int { return d.doc.NumPage() }

// Render rasterizes the page via MuPDF at the requested DPI. MuPDF already
// renders against a white page background, so the result only needs an
// alpha-stripping pass.
func (d *fitzDoc) Render(i int, dpi float64) (image.Image, error) {
	img, err := d.doc.ImageDPI(i, dpi)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", i+1, err)
	}
	return Flatten(img), nil
}

func (d *fitzDoc) Close() error { return d.doc.Close() }
