package geometry

import (
	"image"
	"math"
	"sort"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"github.com/Naiara/pdf-biratu/internal/raster"
)

// State is the three-valued outcome of the geometric quadrant detector.
// An explicitly upright page is distinct from one the detector could not read.
type State int

const (
	Uncertain State = iota
	Upright
	Rotated
)

// Estimate is the detector's view of how far the content is currently rotated
// clockwise from upright. Degrees is meaningful only when State == Rotated.
type Estimate struct {
	State   State
	Degrees int
}

// Detector infers coarse page rotation from dominant line angles using Canny
// edge detection and a standard Hough transform. It never returns an error:
// anything that goes wrong inside collapses to Uncertain.
type Detector struct {
	workSide    int
	cannyLow    float32
	cannyHigh   float32
	houghThresh int
	maxLines    int
}

// NewDetector creates a geometry detector with the standard working
// parameters (800 px working size, Canny 50/150, Hough threshold 200).
func NewDetector() *Detector {
	return &Detector{
		workSide:    800,
		cannyLow:    50,
		cannyHigh:   150,
		houghThresh: 200,
		maxLines:    200,
	}
}

// Detect runs the quadrant estimation on img.
func (d *Detector) Detect(img image.Image) (est Estimate) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("geometry: detector panicked; treating as uncertain")
			est = Estimate{State: Uncertain}
		}
	}()

	angles := d.lineAngles(img)
	if len(angles) == 0 {
		return Estimate{State: Uncertain}
	}

	med := median(angles)
	return classify(med)
}

// classify maps the median line angle (degrees in [-90, 90)) onto a quadrant
// rotation of the page content.
func classify(med float64) Estimate {
	abs := math.Abs(med)
	switch {
	case abs < 10:
		return Estimate{State: Upright}
	case abs > 80 && abs <= 100:
		// Dominant lines are roughly vertical: the page is on its side.
		if med > 0 {
			return Estimate{State: Rotated, Degrees: 270}
		}
		return Estimate{State: Rotated, Degrees: 90}
	}
	rounded := int(math.Round(med/90)) * 90
	rounded = ((rounded % 360) + 360) % 360
	switch rounded {
	case 0:
		return Estimate{State: Upright}
	case 90, 180, 270:
		return Estimate{State: Rotated, Degrees: rounded}
	}
	return Estimate{State: Uncertain}
}

// lineAngles runs edge detection plus the standard Hough transform and
// returns up to maxLines line angles normalized into [-90, 90).
func (d *Detector) lineAngles(img image.Image) []float64 {
	mat, cleanup, ok := d.edges(img)
	if !ok {
		return nil
	}
	defer cleanup()

	lines := gocv.NewMat()
	defer lines.Close()
	gocv.HoughLines(mat, &lines, 1, math.Pi/180, d.houghThresh)

	n := lines.Rows()
	if n > d.maxLines {
		n = d.maxLines
	}
	angles := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		v := lines.GetVecfAt(i, 0)
		if len(v) < 2 {
			continue
		}
		theta := float64(v[1]) * 180 / math.Pi
		angles = append(angles, normalizeAngle(theta))
	}
	return angles
}

// EstimateSkew returns the median angle in degrees of near-horizontal line
// segments in img, or NaN when no usable segments are found. Positive values
// mean the content slopes downward to the right in image coordinates;
// rotating by the negated value levels it.
func (d *Detector) EstimateSkew(img image.Image) (angle float64) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("geometry: skew estimator panicked")
			angle = math.NaN()
		}
	}()

	mat, cleanup, ok := d.edges(img)
	if !ok {
		return math.NaN()
	}
	defer cleanup()

	segs := gocv.NewMat()
	defer segs.Close()
	minLen := float32(mat.Cols() / 8)
	gocv.HoughLinesPWithParams(mat, &segs, 1, math.Pi/180, 80, minLen, 10)

	angles := make([]float64, 0, segs.Rows())
	for i := 0; i < segs.Rows(); i++ {
		v := segs.GetVeciAt(i, 0)
		if len(v) < 4 {
			continue
		}
		dx := float64(v[2] - v[0])
		dy := float64(v[3] - v[1])
		if dx == 0 && dy == 0 {
			continue
		}
		a := math.Atan2(dy, dx) * 180 / math.Pi
		a = normalizeAngle(a)
		// Only near-horizontal segments carry skew information.
		if math.Abs(a) <= 45 {
			angles = append(angles, a)
		}
	}
	if len(angles) == 0 {
		return math.NaN()
	}
	return median(angles)
}

// edges converts img to a bounded-size grayscale working buffer and runs
// Canny on it. The returned cleanup closes all intermediate mats.
func (d *Detector) edges(img image.Image) (gocv.Mat, func(), bool) {
	gray := raster.Grayscale(img)
	src, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		log.Warn().Err(err).Msg("geometry: image to mat conversion failed")
		return gocv.Mat{}, nil, false
	}

	work := src
	w, h := src.Cols(), src.Rows()
	longest := w
	if h > longest {
		longest = h
	}
	if longest > d.workSide {
		scale := float64(d.workSide) / float64(longest)
		resized := gocv.NewMat()
		gocv.Resize(src, &resized, image.Pt(int(float64(w)*scale), int(float64(h)*scale)), 0, 0, gocv.InterpolationLinear)
		src.Close()
		work = resized
	}

	edges := gocv.NewMat()
	gocv.Canny(work, &edges, d.cannyLow, d.cannyHigh)

	cleanup := func() {
		work.Close()
		edges.Close()
	}
	return edges, cleanup, true
}

// normalizeAngle maps an angle in degrees into [-90, 90).
func normalizeAngle(a float64) float64 {
	return math.Mod(math.Mod(a+90, 180)+180, 180) - 90
}

func median(vals []float64) float64 {
	s := append([]float64(nil), vals...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}
