// Package deskew applies sub-degree skew correction to standalone images
// after quadrant correction.
package deskew

import (
	"image"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/Naiara/pdf-biratu/internal/rotate"
)

// maxPlausibleSkew bounds the estimator output; anything at or above this is
// detector failure, not a real scan skew, and is discarded.
const maxPlausibleSkew = 45.0

// Estimator returns the skew angle of an image in degrees, or NaN when it
// cannot tell.
type Estimator func(img image.Image) float64

// Corrector estimates and applies a global fine skew angle.
type Corrector struct {
	Threshold float64 // degrees; estimates below this are skipped
	// Force applies any nonzero estimate even below Threshold, for operators
	// who know the estimator undershoots.
	Force    bool
	Estimate Estimator
}

// Result reports what the corrector did to an image.
type Result struct {
	Angle   float64 `json:"angle"`
	Applied bool    `json:"applied"`
}

// Correct estimates the skew of img and, when the estimate is trustworthy and
// large enough, returns the counter-rotated image. The input is returned
// untouched when no correction applies.
func (c *Corrector) Correct(img image.Image) (image.Image, Result) {
	if c.Estimate == nil {
		return img, Result{}
	}

	angle := c.Estimate(img)
	if math.IsNaN(angle) {
		log.Debug().Msg("deskew: estimator returned no angle")
		return img, Result{}
	}
	if math.Abs(angle) >= maxPlausibleSkew {
		log.Warn().Float64("angle", angle).Msg("deskew: implausible estimate discarded")
		return img, Result{}
	}

	threshold := c.Threshold
	if c.Force {
		threshold = 0
	}
	if angle == 0 || math.Abs(angle) < threshold {
		return img, Result{Angle: angle}
	}

	log.Debug().Float64("angle", angle).Msg("deskew: applying fine rotation")
	return rotate.Arbitrary(img, -angle), Result{Angle: angle, Applied: true}
}
