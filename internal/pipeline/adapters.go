package pipeline

import (
	"image"

	"github.com/Naiara/pdf-biratu/internal/decide"
	"github.com/Naiara/pdf-biratu/internal/geometry"
)

// GeometryAdapter maps the line-angle detector's estimate onto the decision
// engine's three-valued form.
type GeometryAdapter struct {
	Detector *geometry.Detector
}

func (a GeometryAdapter) Detect(img image.Image) decide.CVEstimate {
	est := a.Detector.Detect(img)
	switch est.State {
	case geometry.Upright:
		return decide.CVEstimate{State: decide.CVUpright}
	case geometry.Rotated:
		return decide.CVEstimate{State: decide.CVRotated, Degrees: est.Degrees}
	}
	return decide.CVEstimate{State: decide.CVUncertain}
}
