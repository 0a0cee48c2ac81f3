// Package decide implements the rotation-decision protocol: two cheap
// detector signals (OCR orientation and line geometry) are combined, and only
// when they cannot settle the question is the expensive four-way OCR vote
// invoked. The package is pure: detectors and the vote are injected, no I/O
// happens here.
package decide

import (
	"context"
	"sort"

	"github.com/rs/zerolog/log"
)

// Source identifies which signal won a rotation decision.
type Source string

const (
	SourceOSD  Source = "osd"
	SourceCV   Source = "cv"
	SourceVote Source = "ocr-vote"
	SourceNone Source = "none"
)

// OSDEstimate is the raw orientation reported by the OCR orientation
// detector: how far the content is currently rotated clockwise from upright.
// Known=false or Degrees==0 both mean "upright or no opinion" — the engine
// cannot tell those apart.
type OSDEstimate struct {
	Degrees int
	Known   bool
}

// CVState is the three-valued outcome of the geometry detector. An explicit
// Upright answer participates in agreement and fallback; Uncertain does not.
type CVState int

const (
	CVUncertain CVState = iota
	CVUpright
	CVRotated
)

// CVEstimate is the geometry detector's raw orientation estimate.
type CVEstimate struct {
	State   CVState
	Degrees int
}

// VoteFunc rotates the page by the given counter-clockwise test angle, runs
// full-text OCR, and returns the recognized character count. It is invoked up
// to four times (0/90/180/270) and only when the cheap signals disagree.
// A nil VoteFunc disables the vote stage entirely.
type VoteFunc func(ctx context.Context, ccwDegrees int) (int, error)

// VoteScore records one vote candidate for diagnostics.
type VoteScore struct {
	CCWDegrees int `json:"ccw_degrees"`
	Chars      int `json:"chars"`
}

// Decision is the final clockwise rotation chosen for a page.
type Decision struct {
	Rotation       int         `json:"rotation"` // clockwise degrees, one of 0/90/180/270
	Source         Source      `json:"source"`
	VoteInvoked    bool        `json:"vote_invoked"`
	VoteConclusive bool        `json:"vote_conclusive"`
	VoteScores     []VoteScore `json:"vote_scores,omitempty"`
}

// Config holds the vote-confidence thresholds. Both are heuristics with no
// derivation beyond working well on scanned documents, hence configurable.
type Config struct {
	VoteMinChars int     // absolute floor for the winning score
	VoteMargin   float64 // winner must be at least this multiple of the runner-up
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{VoteMinChars: 20, VoteMargin: 1.5}
}

var candidates = [4]int{0, 90, 180, 270}

// corrective converts a detected clockwise orientation into the clockwise
// rotation that makes the content upright.
func corrective(detected int) int {
	return ((360 - detected) % 360 + 360) % 360
}

// Decide runs the decision protocol:
//
//  1. Agreement fast-path: OSD gave a non-zero answer and the geometry signal
//     independently corrects to the same value — accept without voting.
//  2. Four-way OCR vote, accepted only when the winner clears both the
//     absolute floor and the margin over the runner-up.
//  3. Fallback chain: OSD if it had an opinion, else geometry, else upright.
func Decide(ctx context.Context, cfg Config, osd OSDEstimate, cv CVEstimate, vote VoteFunc) Decision {
	if cfg.VoteMinChars <= 0 {
		cfg.VoteMinChars = DefaultConfig().VoteMinChars
	}
	if cfg.VoteMargin <= 0 {
		cfg.VoteMargin = DefaultConfig().VoteMargin
	}

	osdDeg := 0
	if osd.Known {
		osdDeg = ((osd.Degrees % 360) + 360) % 360
	}
	osdCorrective := 0
	if osdDeg != 0 {
		osdCorrective = corrective(osdDeg)
	}

	cvDefined := cv.State != CVUncertain
	cvCorrective := 0
	if cv.State == CVRotated {
		cvCorrective = corrective(cv.Degrees)
	}

	// 1. Agreement fast-path.
	if osdDeg != 0 && cvDefined && cvCorrective == osdCorrective {
		return Decision{Rotation: osdCorrective, Source: SourceOSD}
	}

	// 2. OCR vote.
	if vote != nil {
		d, done := runVote(ctx, cfg, vote)
		if done {
			return d
		}
		// Inconclusive: fall through to the fallback chain but keep the
		// scores for diagnostics.
		fb := fallback(osdDeg, osdCorrective, cvDefined, cvCorrective)
		fb.VoteInvoked = true
		fb.VoteScores = d.VoteScores
		return fb
	}

	// 3. Fallback chain.
	return fallback(osdDeg, osdCorrective, cvDefined, cvCorrective)
}

func fallback(osdDeg, osdCorrective int, cvDefined bool, cvCorrective int) Decision {
	if osdDeg != 0 {
		return Decision{Rotation: osdCorrective, Source: SourceOSD}
	}
	if cvDefined {
		return Decision{Rotation: cvCorrective, Source: SourceCV}
	}
	return Decision{Rotation: 0, Source: SourceNone}
}

// runVote scores all four test rotations. done is false when the vote could
// not separate a trustworthy winner.
func runVote(ctx context.Context, cfg Config, vote VoteFunc) (Decision, bool) {
	scores := make([]VoteScore, 0, len(candidates))
	for _, ccw := range candidates {
		if ctx.Err() != nil {
			return Decision{VoteInvoked: true, VoteScores: scores}, false
		}
		n, err := vote(ctx, ccw)
		if err != nil {
			// A failed OCR pass scores zero; the margin rule protects
			// against trusting a vote built on failures.
			log.Debug().Err(err).Int("ccw", ccw).Msg("vote: ocr pass failed")
			n = 0
		}
		if n < 0 {
			n = 0
		}
		scores = append(scores, VoteScore{CCWDegrees: ccw, Chars: n})
	}

	ranked := append([]VoteScore(nil), scores...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Chars > ranked[j].Chars })

	winner, runnerUp := ranked[0], ranked[1]
	if winner.Chars < cfg.VoteMinChars || float64(winner.Chars) < cfg.VoteMargin*float64(runnerUp.Chars) {
		return Decision{VoteInvoked: true, VoteScores: scores}, false
	}

	return Decision{
		Rotation:       corrective(winner.CCWDegrees),
		Source:         SourceVote,
		VoteInvoked:    true,
		VoteConclusive: true,
		VoteScores:     scores,
	}, true
}
