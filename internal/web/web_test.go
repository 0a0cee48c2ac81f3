package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Naiara/pdf-biratu/internal/config"
)

func testServer() *Server {
	return New(nil, config.ServerConfig{Port: "8080", MaxUploadSize: 1 << 20, ResultDir: "uploads/results"})
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	testServer().handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("body = %q, want ok status", rec.Body.String())
	}
}

func TestFixRotationRejectsGet(t *testing.T) {
	rec := httptest.NewRecorder()
	testServer().handleFixRotation(rec, httptest.NewRequest(http.MethodGet, "/fix_rotation", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestProcessRefRequiresFilePath(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/process_ref", strings.NewReader(`{}`))
	testServer().handleProcessRef(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestDownloadName(t *testing.T) {
	cases := []struct {
		upload, artifact, want string
	}{
		{"scan.pdf", "/tmp/biratu-out-1.pdf", "scan_fixed.pdf"},
		{"scan.pdf", "/tmp/biratu-out-1.zip", "scan_fixed.zip"},
		{"photo.jpeg", "/tmp/out.jpg", "photo_fixed.jpg"},
		{"", "/tmp/out.pdf", "document_fixed.pdf"},
	}
	for _, c := range cases {
		if got := downloadName(c.upload, c.artifact); got != c.want {
			t.Fatalf("downloadName(%q, %q) = %q, want %q", c.upload, c.artifact, got, c.want)
		}
	}
}

func TestContentTypeFor(t *testing.T) {
	cases := map[string]string{
		"a.pdf":  "application/pdf",
		"a.zip":  "application/zip",
		"a.PNG":  "image/png",
		"a.jpg":  "image/jpeg",
		"a.tiff": "image/tiff",
		"a.bin":  "application/octet-stream",
	}
	for path, want := range cases {
		if got := contentTypeFor(path); got != want {
			t.Fatalf("contentTypeFor(%q) = %q, want %q", path, got, want)
		}
	}
}
