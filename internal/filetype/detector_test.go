package filetype

import "testing"

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}

func TestDetectBytesPDF(t *testing.T) {
	info := New().DetectBytes([]byte("%PDF-1.7\nsome content"))
	if !info.IsPDF() || info.Kind != KindPDF {
		t.Fatalf("info = %+v, want pdf", info)
	}
}

func TestDetectBytesImage(t *testing.T) {
	info := New().DetectBytes(pngMagic)
	if !info.IsImage() || info.ImageFormat != "png" {
		t.Fatalf("info = %+v, want png image", info)
	}
	if !info.Supported() {
		t.Fatal("png must be supported")
	}
}

func TestDetectBytesUnsupported(t *testing.T) {
	info := New().DetectBytes([]byte("hello, just text"))
	if info.Supported() {
		t.Fatalf("info = %+v, want unsupported", info)
	}
}

func TestClassifyImageFormats(t *testing.T) {
	cases := map[string]string{
		"image/png":      "png",
		"image/jpeg":     "jpeg",
		"image/tiff":     "tiff",
		"image/bmp":      "bmp",
		"image/x-ms-bmp": "bmp",
		"image/webp":     "webp",
	}
	for mime, want := range cases {
		info := classify(mime, "")
		if info.Kind != KindImage || info.ImageFormat != want {
			t.Fatalf("classify(%s) = %+v, want %s image", mime, info, want)
		}
	}
}

func TestClassifyUnknownImageUnsupported(t *testing.T) {
	info := classify("image/svg+xml", ".svg")
	if info.Supported() {
		t.Fatalf("info = %+v, vector formats are unsupported", info)
	}
}
