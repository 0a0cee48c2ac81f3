package rebuild

import (
	"archive/zip"
	"fmt"
	"image"
	"io"
)

// WriteZip writes one PNG per page into a compressed archive on w, named
// page_0001.png onward in the order given. Fails on an empty page list —
// an archive of nothing is an error, not an empty artifact.
func WriteZip(w io.Writer, pages []image.Image) error {
	if len(pages) == 0 {
		return ErrEmptyDocument
	}

	zw := zip.NewWriter(w)
	for i, img := range pages {
		f, err := zw.Create(fmt.Sprintf("page_%04d.png", i+1))
		if err != nil {
			return fmt.Errorf("%w: create archive entry: %v", ErrRebuild, err)
		}
		if err := EncodeImage(f, img, "png", 0); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("%w: finalize archive: %v", ErrRebuild, err)
	}
	return nil
}
