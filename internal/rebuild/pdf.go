package rebuild

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog/log"
)

// PDFBuilder accumulates rotated page images in source order and assembles a
// fresh output PDF with one full-page image per page.
type PDFBuilder struct {
	tempDir string
	pages   []string
}

// NewPDFBuilder creates a builder with a private temp directory for the
// intermediate page PNGs.
func NewPDFBuilder() (*PDFBuilder, error) {
	dir, err := os.MkdirTemp("", "biratu_pages_*")
	if err != nil {
		return nil, fmt.Errorf("%w: create temp dir: %v", ErrRebuild, err)
	}
	return &PDFBuilder{tempDir: dir}, nil
}

// AddPage appends one page image. Pages must be added in source order; the
// caller is responsible for ordering parallel results before insertion.
func (b *PDFBuilder) AddPage(img image.Image) error {
	p := filepath.Join(b.tempDir, fmt.Sprintf("page_%05d.png", len(b.pages)))
	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("%w: create page file: %v", ErrRebuild, err)
	}
	err = png.Encode(f, img)
	f.Close()
	if err != nil {
		return fmt.Errorf("%w: encode page: %v", ErrRebuild, err)
	}
	b.pages = append(b.pages, p)
	return nil
}

// PageCount returns the number of pages added so far.
func (b *PDFBuilder) PageCount() int { return len(b.pages) }

// Write assembles the output PDF at outPath.
func (b *PDFBuilder) Write(outPath string) error {
	if len(b.pages) == 0 {
		return ErrEmptyDocument
	}
	if err := api.ImportImagesFile(b.pages, outPath, nil, nil); err != nil {
		return fmt.Errorf("%w: assemble pdf: %v", ErrRebuild, err)
	}
	log.Debug().Int("pages", len(b.pages)).Str("out", outPath).Msg("assembled output pdf")
	return nil
}

// Close removes the intermediate page files.
func (b *PDFBuilder) Close() {
	if b.tempDir != "" {
		_ = os.RemoveAll(b.tempDir)
	}
}

// PageCountFile returns the page count of the PDF at path. Used as a cheap
// up-front validation that the source is readable at all.
func PageCountFile(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("pdf page count failed: %w", err)
	}
	return n, nil
}
