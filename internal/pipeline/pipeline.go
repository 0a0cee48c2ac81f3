// Package pipeline orchestrates the per-page flow: rasterize, detect
// orientation, decide a corrective rotation, and rebuild the output artifact.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/Naiara/pdf-biratu/internal/cache"
	"github.com/Naiara/pdf-biratu/internal/decide"
	"github.com/Naiara/pdf-biratu/internal/deskew"
	"github.com/Naiara/pdf-biratu/internal/filetype"
	"github.com/Naiara/pdf-biratu/internal/metrics"
	"github.com/Naiara/pdf-biratu/internal/ocr"
	"github.com/Naiara/pdf-biratu/internal/raster"
	"github.com/Naiara/pdf-biratu/internal/rebuild"
	"github.com/Naiara/pdf-biratu/internal/rotate"
)

// OrientationDetector reports the raw clockwise orientation of page content,
// or false when it has no opinion.
type OrientationDetector interface {
	Detect(ctx context.Context, img image.Image) (int, bool)
}

// QuadrantDetector is the geometry signal, already mapped into the decision
// engine's three-valued estimate.
type QuadrantDetector interface {
	Detect(img image.Image) decide.CVEstimate
}

// Options tunes the pipeline.
type Options struct {
	RenderDPI    int
	MaxImageSide int
	JPEGQuality  int
	Decide       decide.Config
	PageTimeout  time.Duration
	Concurrency  int

	DeskewEnabled   bool
	DeskewThreshold float64
	DeskewForce     bool
}

// OutputMode selects the rebuilt artifact shape for paged documents.
type OutputMode string

const (
	ModeDocument OutputMode = "pdf" // fresh PDF, one full-page image per page
	ModeArchive  OutputMode = "zip" // one PNG per page in a compressed archive
)

// PageReport is the diagnostics-mode result for one page.
type PageReport struct {
	Page            int                `json:"page"` // 1-based
	DetectedDeg     int                `json:"detected_deg"`
	RotateClockwise int                `json:"rotate_clockwise"`
	NeedsRotation   bool               `json:"needs_rotation"`
	Source          decide.Source      `json:"source"`
	VoteScores      []decide.VoteScore `json:"vote_scores,omitempty"`
	SkewAngle       float64            `json:"skew_angle,omitempty"`
	SkewApplied     bool               `json:"skew_applied,omitempty"`
}

// FixResult describes a rebuilt artifact. When Changed is false OutputPath is
// the original input path: nothing was re-encoded.
type FixResult struct {
	OutputPath string
	Changed    bool
	Reports    []PageReport
}

// Pipeline wires the detectors, rasterizer and rebuilder together. All
// collaborators are injected; tests swap in fakes.
type Pipeline struct {
	opener raster.Opener
	files  *filetype.Detector
	osd    OrientationDetector
	cv     QuadrantDetector
	ocr    ocr.Recognizer
	skew   deskew.Estimator
	cache  *cache.DecisionCache
	opts   Options
}

// Deps bundles the pipeline collaborators.
type Deps struct {
	Opener raster.Opener
	Files  *filetype.Detector
	OSD    OrientationDetector
	CV     QuadrantDetector
	OCR    ocr.Recognizer
	Skew   deskew.Estimator
	Cache  *cache.DecisionCache // nil disables caching
}

// New creates a pipeline.
func New(deps Deps, opts Options) *Pipeline {
	if opts.RenderDPI <= 0 {
		opts.RenderDPI = 150
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = 90 * time.Second
	}
	if deps.Files == nil {
		deps.Files = filetype.New()
	}
	return &Pipeline{
		opener: deps.Opener,
		files:  deps.Files,
		osd:    deps.OSD,
		cv:     deps.CV,
		ocr:    deps.OCR,
		skew:   deps.Skew,
		cache:  deps.Cache,
		opts:   opts,
	}
}

// Detect runs diagnostics mode: orientation decisions for every page without
// rebuilding anything.
func (p *Pipeline) Detect(ctx context.Context, path string) ([]PageReport, error) {
	info, err := p.files.Detect(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", raster.ErrUnreadable, err)
	}
	if !info.Supported() {
		return nil, fmt.Errorf("%w: %s", raster.ErrUnreadable, info.Description)
	}

	if cached, ok := p.cachedReports(ctx, path); ok {
		return cached, nil
	}

	var reports []PageReport
	if info.IsImage() {
		img, _, lerr := raster.LoadImage(path, p.opts.MaxImageSide)
		if lerr != nil {
			return nil, lerr
		}
		res := p.processPage(ctx, 0, img, false)
		if res.err != nil {
			return nil, res.err
		}
		reports = []PageReport{res.report}
	} else {
		results, derr := p.processDocument(ctx, path, false)
		if derr != nil {
			return nil, derr
		}
		reports = make([]PageReport, len(results))
		for i, r := range results {
			reports[i] = r.report
		}
	}

	p.storeReports(ctx, path, reports)
	return reports, nil
}

// Fix rebuilds the artifact with every page rotated upright. For paged
// documents mode selects PDF or ZIP output; standalone images are re-encoded
// in their input format and additionally deskewed when enabled.
func (p *Pipeline) Fix(ctx context.Context, path string, mode OutputMode) (FixResult, error) {
	info, err := p.files.Detect(path)
	if err != nil {
		return FixResult{}, fmt.Errorf("%w: %v", raster.ErrUnreadable, err)
	}
	switch {
	case info.IsImage():
		return p.fixImage(ctx, path)
	case info.IsPDF():
		return p.fixDocument(ctx, path, mode)
	}
	return FixResult{}, fmt.Errorf("%w: %s", raster.ErrUnreadable, info.Description)
}

// pageResult carries one page through the worker pool.
type pageResult struct {
	report PageReport
	img    image.Image // rotated (or original when upright); nil in detect-only mode
	err    error
}

// processDocument renders and decides every page. Pages run concurrently on a
// bounded pool; results land in an index-addressed slice so downstream
// insertion order always equals source order no matter which page finishes
// first.
func (p *Pipeline) processDocument(ctx context.Context, path string, keepImages bool) ([]pageResult, error) {
	doc, err := p.opener.Open(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	n := doc.NumPage()
	if n == 0 {
		return nil, rebuild.ErrEmptyDocument
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]pageResult, n)
	sem := make(chan struct{}, p.opts.Concurrency)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			img, rerr := doc.Render(idx, float64(p.opts.RenderDPI))
			if rerr != nil {
				results[idx] = pageResult{err: fmt.Errorf("%w: %v", raster.ErrUnreadable, rerr)}
				cancel() // rasterization failure aborts the whole document
				return
			}
			results[idx] = p.processPage(ctx, idx, img, keepImages)
			if results[idx].err != nil {
				cancel()
			}
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		if r.err != nil {
			return nil, r.err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// processPage runs the decision protocol on one rendered page and optionally
// applies the winning rotation.
func (p *Pipeline) processPage(ctx context.Context, idx int, img image.Image, keepImage bool) pageResult {
	start := time.Now()
	pctx, cancel := context.WithTimeout(ctx, p.opts.PageTimeout)
	defer cancel()

	// Raw OSD value for diagnostics, independent of the final decision.
	osdStart := time.Now()
	osdDeg, osdOK := p.osd.Detect(pctx, img)
	metrics.ObserveDetector("osd", time.Since(osdStart))
	if !osdOK {
		metrics.IncDetectorFailure("osd")
	}

	cvStart := time.Now()
	cvEst := p.cv.Detect(img)
	metrics.ObserveDetector("cv", time.Since(cvStart))
	if cvEst.State == decide.CVUncertain {
		metrics.IncDetectorFailure("cv")
	}

	var vote decide.VoteFunc
	if p.ocr != nil {
		vote = func(vctx context.Context, ccw int) (int, error) {
			test := rotate.Quadrant(img, (360-ccw)%360)
			text, verr := p.ocr.Recognize(vctx, test)
			if verr != nil {
				return 0, verr
			}
			return utf8.RuneCountInString(strings.TrimSpace(text)), nil
		}
	}

	dec := decide.Decide(pctx, p.opts.Decide, decide.OSDEstimate{Degrees: osdDeg, Known: osdOK}, cvEst, vote)
	if dec.VoteInvoked {
		metrics.IncVote()
	}
	metrics.IncDecision(string(dec.Source), strconv.Itoa(dec.Rotation))
	metrics.ObservePage(time.Since(start))
	if dec.Rotation != 0 {
		metrics.IncPage("rotated")
	} else {
		metrics.IncPage("upright")
	}

	log.Debug().
		Int("page", idx+1).
		Int("osd_deg", osdDeg).
		Int("rotation", dec.Rotation).
		Str("source", string(dec.Source)).
		Bool("vote", dec.VoteInvoked).
		Dur("took", time.Since(start)).
		Msg("page decided")

	res := pageResult{report: PageReport{
		Page:            idx + 1,
		DetectedDeg:     osdDeg,
		RotateClockwise: dec.Rotation,
		NeedsRotation:   dec.Rotation != 0,
		Source:          dec.Source,
		VoteScores:      dec.VoteScores,
	}}
	if keepImage {
		res.img = rotate.Quadrant(img, dec.Rotation)
	}
	return res
}

// fixDocument processes all pages of a PDF and rebuilds the artifact.
func (p *Pipeline) fixDocument(ctx context.Context, path string, mode OutputMode) (FixResult, error) {
	results, err := p.processDocument(ctx, path, true)
	if err != nil {
		return FixResult{}, err
	}

	reports := make([]PageReport, len(results))
	changed := false
	for i, r := range results {
		reports[i] = r.report
		if r.report.NeedsRotation {
			changed = true
		}
	}

	if mode == ModeArchive {
		pages := make([]image.Image, len(results))
		for i, r := range results {
			pages[i] = r.img
		}
		out, cerr := os.CreateTemp("", "biratu-out-*.zip")
		if cerr != nil {
			return FixResult{}, fmt.Errorf("%w: %v", rebuild.ErrRebuild, cerr)
		}
		werr := rebuild.WriteZip(out, pages)
		out.Close()
		if werr != nil {
			os.Remove(out.Name())
			metrics.IncRebuild("zip", "error")
			return FixResult{}, werr
		}
		metrics.IncRebuild("zip", "ok")
		return FixResult{OutputPath: out.Name(), Changed: changed, Reports: reports}, nil
	}

	if !changed {
		// Nothing rotated: hand back the original untouched to avoid a
		// needless render/re-encode quality loss.
		log.Info().Str("file", path).Int("pages", len(results)).Msg("document already upright; skipping rebuild")
		metrics.IncRebuild("pdf", "skipped")
		return FixResult{OutputPath: path, Changed: false, Reports: reports}, nil
	}

	builder, err := rebuild.NewPDFBuilder()
	if err != nil {
		return FixResult{}, err
	}
	defer builder.Close()
	for _, r := range results {
		if aerr := builder.AddPage(r.img); aerr != nil {
			metrics.IncRebuild("pdf", "error")
			return FixResult{}, aerr
		}
	}
	out, err := os.CreateTemp("", "biratu-out-*.pdf")
	if err != nil {
		return FixResult{}, fmt.Errorf("%w: %v", rebuild.ErrRebuild, err)
	}
	out.Close()
	if werr := builder.Write(out.Name()); werr != nil {
		os.Remove(out.Name())
		metrics.IncRebuild("pdf", "error")
		return FixResult{}, werr
	}
	metrics.IncRebuild("pdf", "ok")
	return FixResult{OutputPath: out.Name(), Changed: true, Reports: reports}, nil
}

// fixImage corrects a standalone image: quadrant decision first, then fine
// skew, then re-encode in the input format.
func (p *Pipeline) fixImage(ctx context.Context, path string) (FixResult, error) {
	img, format, err := raster.LoadImage(path, p.opts.MaxImageSide)
	if err != nil {
		return FixResult{}, err
	}

	res := p.processPage(ctx, 0, img, true)
	if res.err != nil {
		return FixResult{}, res.err
	}
	out := res.img

	if p.opts.DeskewEnabled && p.skew != nil {
		corr := deskew.Corrector{
			Threshold: p.opts.DeskewThreshold,
			Force:     p.opts.DeskewForce,
			Estimate:  p.skew,
		}
		var skew deskew.Result
		out, skew = corr.Correct(out)
		res.report.SkewAngle = skew.Angle
		res.report.SkewApplied = skew.Applied
	}

	reports := []PageReport{res.report}
	if !res.report.NeedsRotation && !res.report.SkewApplied {
		metrics.IncRebuild("image", "skipped")
		return FixResult{OutputPath: path, Changed: false, Reports: reports}, nil
	}

	f, err := os.CreateTemp("", "biratu-out-*"+rebuild.OutputExtension(format))
	if err != nil {
		return FixResult{}, fmt.Errorf("%w: %v", rebuild.ErrRebuild, err)
	}
	eerr := rebuild.EncodeImage(f, out, format, p.opts.JPEGQuality)
	f.Close()
	if eerr != nil {
		os.Remove(f.Name())
		metrics.IncRebuild("image", "error")
		return FixResult{}, eerr
	}
	metrics.IncRebuild("image", "ok")
	return FixResult{OutputPath: f.Name(), Changed: true, Reports: reports}, nil
}

// cachedReports returns a previous Detect result for an identical input, if
// the cache is enabled and holds one.
func (p *Pipeline) cachedReports(ctx context.Context, path string) ([]PageReport, bool) {
	if p.cache == nil {
		return nil, false
	}
	digest, err := cache.FileDigest(path)
	if err != nil {
		return nil, false
	}
	payload, ok, err := p.cache.Get(ctx, digest)
	if err != nil || !ok {
		metrics.CacheMiss()
		return nil, false
	}
	var reports []PageReport
	if err := json.Unmarshal(payload, &reports); err != nil {
		metrics.CacheMiss()
		return nil, false
	}
	metrics.CacheHit()
	log.Debug().Str("file", path).Str("digest", digest[:12]).Msg("decision cache hit")
	return reports, true
}

func (p *Pipeline) storeReports(ctx context.Context, path string, reports []PageReport) {
	if p.cache == nil {
		return
	}
	digest, err := cache.FileDigest(path)
	if err != nil {
		return
	}
	payload, err := json.Marshal(reports)
	if err != nil {
		return
	}
	if err := p.cache.Set(ctx, digest, payload); err != nil {
		log.Warn().Err(err).Msg("decision cache store failed")
	}
}
