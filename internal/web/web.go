// Package web exposes the HTTP API: upload-and-fix, reference processing,
// health and metrics.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Naiara/pdf-biratu/internal/config"
	"github.com/Naiara/pdf-biratu/internal/fetch"
	"github.com/Naiara/pdf-biratu/internal/metrics"
	"github.com/Naiara/pdf-biratu/internal/pipeline"
	"github.com/Naiara/pdf-biratu/internal/raster"
	"github.com/Naiara/pdf-biratu/internal/rebuild"
)

// Server is the HTTP front for the rotation pipeline.
type Server struct {
	pipe      *pipeline.Pipeline
	maxUpload int64
	resultDir string
}

// New creates the HTTP server layer.
func New(pipe *pipeline.Pipeline, srv config.ServerConfig) *Server {
	return &Server{
		pipe:      pipe,
		maxUpload: srv.MaxUploadSize,
		resultDir: srv.ResultDir,
	}
}

// RegisterRoutes attaches all endpoints to mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/fix_rotation", s.handleFixRotation)
	mux.HandleFunc("/process_ref", s.handleProcessRef)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleFixRotation accepts a multipart upload, corrects page orientation and
// streams the rebuilt artifact back. Query params:
//
//	output=pdf|zip  artifact shape for paged documents (default pdf)
//	debug=1         return per-page decision reports as JSON instead
func (s *Server) handleFixRotation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", s.maxUpload))
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	tmp, err := saveUpload(file, hdr.Filename)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	defer os.Remove(tmp)

	jobID := uuid.NewString()
	started := time.Now()
	log.Info().Str("job_id", jobID).Str("file", hdr.Filename).Int64("size", hdr.Size).Msg("fix_rotation request")

	if r.URL.Query().Get("debug") == "1" {
		reports, derr := s.pipe.Detect(r.Context(), tmp)
		if derr != nil {
			writePipelineError(w, derr)
			return
		}
		log.Info().Str("job_id", jobID).Int("pages", len(reports)).Dur("took", time.Since(started)).Msg("diagnostics done")
		writeJSON(w, http.StatusOK, map[string]any{"job_id": jobID, "pages": reports})
		return
	}

	mode := pipeline.ModeDocument
	if r.URL.Query().Get("output") == "zip" {
		mode = pipeline.ModeArchive
	}

	res, err := s.pipe.Fix(r.Context(), tmp, mode)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	if res.Changed || res.OutputPath != tmp {
		defer os.Remove(res.OutputPath)
	}

	log.Info().Str("job_id", jobID).Bool("changed", res.Changed).Dur("took", time.Since(started)).Msg("fix_rotation done")
	streamFile(w, res.OutputPath, downloadName(hdr.Filename, res.OutputPath))
}

type processRefRequest struct {
	FilePath string `json:"file_path"`
	Output   string `json:"output,omitempty"`
}

type processRefResponse struct {
	JobID      string                `json:"job_id"`
	Changed    bool                  `json:"changed"`
	ResultPath string                `json:"result_path"`
	Pages      []pipeline.PageReport `json:"pages"`
}

// handleProcessRef corrects a document referenced by path or URL (local,
// file://, http(s)://, s3://) and saves the result under the result
// directory.
func (s *Server) handleProcessRef(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req processRefRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FilePath == "" {
		writeError(w, http.StatusBadRequest, "file_path is required")
		return
	}

	local, cleanup, err := fetch.Resolve(r.Context(), req.FilePath)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("fetch failed: %v", err))
		return
	}
	defer cleanup()

	mode := pipeline.ModeDocument
	if req.Output == "zip" {
		mode = pipeline.ModeArchive
	}

	jobID := uuid.NewString()
	res, err := s.pipe.Fix(r.Context(), local, mode)
	if err != nil {
		writePipelineError(w, err)
		return
	}

	resultPath, err := s.saveResult(res.OutputPath, jobID)
	if res.Changed || res.OutputPath != local {
		os.Remove(res.OutputPath)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save result")
		return
	}

	log.Info().Str("job_id", jobID).Str("ref", req.FilePath).Bool("changed", res.Changed).Msg("process_ref done")
	writeJSON(w, http.StatusOK, processRefResponse{
		JobID:      jobID,
		Changed:    res.Changed,
		ResultPath: resultPath,
		Pages:      res.Reports,
	})
}

// saveResult copies the artifact into the result directory under a job-scoped
// name and returns the stored path.
func (s *Server) saveResult(artifact, jobID string) (string, error) {
	if err := os.MkdirAll(s.resultDir, 0o755); err != nil {
		return "", err
	}
	dst := filepath.Join(s.resultDir, jobID+filepath.Ext(artifact))
	in, err := os.Open(artifact)
	if err != nil {
		return "", err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	_, cerr := io.Copy(out, in)
	if err := out.Close(); cerr == nil {
		cerr = err
	}
	if cerr != nil {
		os.Remove(dst)
		return "", cerr
	}
	return dst, nil
}

func saveUpload(file io.Reader, name string) (string, error) {
	f, err := os.CreateTemp("", "biratu-up-*"+filepath.Ext(name))
	if err != nil {
		return "", err
	}
	_, cerr := io.Copy(f, file)
	if err := f.Close(); cerr == nil {
		cerr = err
	}
	if cerr != nil {
		os.Remove(f.Name())
		return "", cerr
	}
	return f.Name(), nil
}

func streamFile(w http.ResponseWriter, path, name string) {
	f, err := os.Open(path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "artifact missing")
		return
	}
	defer f.Close()
	w.Header().Set("Content-Type", contentTypeFor(path))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if _, err := io.Copy(w, f); err != nil {
		log.Warn().Err(err).Msg("response stream interrupted")
	}
}

// downloadName keeps the client's filename but swaps the extension to match
// the artifact actually produced.
func downloadName(uploadName, artifactPath string) string {
	base := strings.TrimSuffix(filepath.Base(uploadName), filepath.Ext(uploadName))
	if base == "" || base == "." {
		base = "document"
	}
	return base + "_fixed" + filepath.Ext(artifactPath)
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".zip":
		return "application/zip"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".tif", ".tiff":
		return "image/tiff"
	case ".bmp":
		return "image/bmp"
	}
	return "application/octet-stream"
}

func writePipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, raster.ErrUnreadable):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, rebuild.ErrEmptyDocument):
		writeError(w, http.StatusUnprocessableEntity, "document has no pages")
	default:
		log.Error().Err(err).Msg("pipeline failure")
		writeError(w, http.StatusInternalServerError, "processing failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
