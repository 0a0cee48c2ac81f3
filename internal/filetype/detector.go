package filetype

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// Kind classifies an input for the orientation pipeline.
type Kind string

const (
	KindPDF         Kind = "pdf"
	KindImage       Kind = "image"
	KindUnsupported Kind = "unsupported"
)

// Info contains detected file type information.
type Info struct {
	Kind        Kind
	MIMEType    string
	Extension   string
	ImageFormat string // "png", "jpeg", "tiff", "bmp", "webp"; empty for non-images
	Description string
}

// IsPDF reports whether the input is a paged document.
func (i *Info) IsPDF() bool { return i.Kind == KindPDF }

// IsImage reports whether the input is a standalone raster image.
func (i *Info) IsImage() bool { return i.Kind == KindImage }

// Supported reports whether the pipeline can process this input at all.
func (i *Info) Supported() bool { return i.Kind != KindUnsupported }

// Detector handles file type detection using magic bytes.
type Detector struct{}

// New creates a new file type detector.
func New() *Detector {
	return &Detector{}
}

// Detect detects the actual file type using magic bytes, not filename.
func (d *Detector) Detect(filePath string) (*Info, error) {
	mtype, err := mimetype.DetectFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}

	info := classify(mtype.String(), mtype.Extension())
	log.Debug().Str("mime", info.MIMEType).Str("kind", string(info.Kind)).Str("file", filePath).Msg("detected file type")
	return info, nil
}

// DetectBytes is like Detect but works on an in-memory buffer.
func (d *Detector) DetectBytes(data []byte) *Info {
	mtype := mimetype.Detect(data)
	return classify(mtype.String(), mtype.Extension())
}

func classify(mimeType, extension string) *Info {
	info := &Info{MIMEType: mimeType, Extension: extension}

	switch {
	case mimeType == "application/pdf":
		info.Kind = KindPDF
		info.Description = "PDF document"

	case strings.HasPrefix(mimeType, "image/"):
		info.Kind = KindImage
		info.ImageFormat = imageFormat(mimeType)
		if info.ImageFormat == "" {
			info.Kind = KindUnsupported
			info.Description = fmt.Sprintf("Unsupported image format: %s", mimeType)
			break
		}
		info.Description = fmt.Sprintf("Raster image (%s)", info.ImageFormat)

	default:
		info.Kind = KindUnsupported
		info.Description = fmt.Sprintf("Unsupported file type: %s", mimeType)
	}

	return info
}

func imageFormat(mimeType string) string {
	switch mimeType {
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpeg"
	case "image/tiff":
		return "tiff"
	case "image/bmp", "image/x-ms-bmp":
		return "bmp"
	case "image/webp":
		return "webp"
	}
	return ""
}
