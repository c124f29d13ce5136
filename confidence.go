package main

import "math"

// Per-dimension thresholds for confidence classification. A fit is graded
// independently on R², weekly standard error, and sample count; the overall
// tier is the worst grade, never an average — one bad dimension must not be
// averaged away by two good ones.
const (
	rSquaredStable       = 0.6
	rSquaredStabilizing  = 0.25
	seWeeklyStableLBS    = 0.5
	seWeeklyStabilizeLBS = 1.0
	pointsStable         = 21
	pointsStabilizing    = 14
)

// classifyConfidence grades a regression fit into an ordinal tier plus a
// [0,1] score. Pure; independently testable without running a regression.
// seWeeklyLBS is the residual standard error expressed as lb/week.
func classifyConfidence(rSquared, seWeeklyLBS float64, points int) (string, float64) {
	rTier := confidenceUnstable
	switch {
	case rSquared >= rSquaredStable:
		rTier = confidenceStable
	case rSquared >= rSquaredStabilizing:
		rTier = confidenceStabilizing
	}

	seTier := confidenceUnstable
	switch {
	case seWeeklyLBS <= seWeeklyStableLBS:
		seTier = confidenceStable
	case seWeeklyLBS <= seWeeklyStabilizeLBS:
		seTier = confidenceStabilizing
	}

	nTier := confidenceUnstable
	switch {
	case points >= pointsStable:
		nTier = confidenceStable
	case points >= pointsStabilizing:
		nTier = confidenceStabilizing
	}

	tier := rTier
	for _, t := range []string{seTier, nTier} {
		if confidenceRank[t] < confidenceRank[tier] {
			tier = t
		}
	}

	// Score blends the three dimensions continuously for display; the tier
	// above is what drives selection and target sync.
	rScore := clamp(rSquared, 0, 1)
	seScore := clamp(1-seWeeklyLBS/(2*seWeeklyStabilizeLBS), 0, 1)
	nScore := clamp(float64(points)/float64(pointsStable), 0, 1)
	return tier, (rScore + seScore + nScore) / 3
}

// atLeastStabilizing reports whether tier is stabilizing or stable.
func atLeastStabilizing(tier string) bool {
	return confidenceRank[tier] >= confidenceRank[confidenceStabilizing]
}

// clamp bounds x to [lo, hi].
func clamp(x, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, x))
}
