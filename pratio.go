package main

import (
	"fmt"
	"math"
	"sort"
)

// P-ratio: the fraction of a body-mass change attributed to fat mass (the
// remainder is lean). The covariate model modulates a population baseline
// with bounded per-covariate modifiers; calibration replaces the population
// guess with the user's own measured partitioning as scans accumulate.

// Covariate modifier bounds and reference points.
const (
	proteinRefGPerLB   = 0.5  // modifier is centered on this intake
	proteinModMax      = 0.10
	volumeModMax       = 0.08
	volumeRefSets      = 20.0
	deficitModMax      = 0.15
	deficitRefPct      = 0.25 // a 25% deficit applies the full modifier
	beginnerModMax     = 0.05
	enhancedMod        = 0.05
	pRatioFloorPadding = 0.01
)

// minCalibrationDeltaLBS guards the Δfat/Δtotal division: a scan pair whose
// total mass barely moved gives a wildly unstable ratio and is skipped.
const minCalibrationDeltaLBS = 1.0

// pRatioBounds returns the physiologically valid clamp range for a user.
// Sex tightens the global (0,1) range; enhancement widens the floor.
func pRatioBounds(sex string, enhanced bool) (float64, float64) {
	lo, hi := 0.15, 0.90
	if sex == "female" {
		lo, hi = 0.20, 0.92
	}
	if enhanced {
		lo -= 0.05
	}
	return lo, hi
}

// computeCovariatePRatio is the pure covariate model. Each covariate
// contributes a bounded additive modifier against the population baseline;
// the sum is clamped to the sex- and enhancement-specific range, so the
// output is always inside (0, 1) even at covariate extremes.
func computeCovariatePRatio(in pRatioInputs) float64 {
	// Population baseline rises with body-fat percent: the leaner the user,
	// the more a given change taps lean tissue.
	base := clamp(0.45+0.01*in.BodyFatPct, 0.45, 0.80)

	// Higher protein per unit mass retains lean tissue.
	protein := -proteinModMax * clamp((in.ProteinGPerLB-proteinRefGPerLB)/proteinRefGPerLB, -1, 1)

	// Training volume retains lean tissue.
	volume := -volumeModMax * clamp(in.WeeklySets/volumeRefSets, 0, 1)

	// Larger or faster deficits risk more lean loss; a surplus flips the sign.
	deficit := deficitModMax * clamp(in.DeficitPct/deficitRefPct, -1, 1)

	// Beginners and enhanced users sit closer to the published
	// natural-lifter / assisted partitioning ranges respectively.
	beginner := -beginnerModMax * clamp(1-in.TrainingAgeYears, 0, 1)
	var enhanced float64
	if in.IsEnhanced {
		enhanced = -enhancedMod
	}

	lo, hi := pRatioBounds(in.Sex, in.IsEnhanced)
	return clamp(base+protein+volume+deficit+beginner+enhanced, lo, hi)
}

// scanConfidenceWeight down-weights (never discards) low-confidence scans
// during calibration.
var scanConfidenceWeight = map[string]float64{
	scanConfidenceLow:    0.5,
	scanConfidenceMedium: 0.75,
	scanConfidenceHigh:   1.0,
}

// calibrationRecencyDecay is the per-pair weight decay: the newest interval
// counts fully, each older one 15% less.
const calibrationRecencyDecay = 0.85

// calibratePRatio computes the user's measured partition observations from
// consecutive scan pairs and folds them into a learned P-ratio with a [0,1]
// confidence that grows with observation count and agreement.
func calibratePRatio(scans []dexaScan) (float64, float64, []pRatioObservation) {
	ordered := make([]dexaScan, len(scans))
	copy(ordered, scans)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].ScanDate.Time.Before(ordered[j].ScanDate.Time)
	})

	var obs []pRatioObservation
	for i := 1; i < len(ordered); i++ {
		from, to := ordered[i-1], ordered[i]
		deltaTotal := to.TotalLBS - from.TotalLBS
		if math.Abs(deltaTotal) < minCalibrationDeltaLBS {
			continue
		}
		p := clamp((to.FatLBS-from.FatLBS)/deltaTotal, pRatioFloorPadding, 1-pRatioFloorPadding)
		w := math.Min(scanConfidenceWeight[from.Confidence], scanConfidenceWeight[to.Confidence])
		if w == 0 {
			w = scanConfidenceWeight[scanConfidenceLow]
		}
		obs = append(obs, pRatioObservation{
			FromDate: from.ScanDate,
			ToDate:   to.ScanDate,
			PRatio:   p,
			Weight:   w,
		})
	}
	if len(obs) == 0 {
		return 0, 0, nil
	}

	// Recency-weighted mean: newest interval carries full weight.
	var sumW, sumWP float64
	for i := range obs {
		obs[i].Weight *= math.Pow(calibrationRecencyDecay, float64(len(obs)-1-i))
		sumW += obs[i].Weight
		sumWP += obs[i].Weight * obs[i].PRatio
	}
	learned := sumWP / sumW

	// Confidence grows with count and shrinks with disagreement between
	// observations.
	var variance float64
	for _, o := range obs {
		variance += o.Weight * (o.PRatio - learned) * (o.PRatio - learned)
	}
	variance /= sumW
	countFactor := math.Min(1, float64(len(obs))/4)
	agreement := 1 / (1 + 25*variance)
	return learned, clamp(countFactor*agreement, 0, 1), obs
}

// rebuildBodyCompProfile recomputes the persisted calibration state from the
// full ordered scan list. Called on every scan insert and delete — the
// profile is derived, never incrementally patched.
func rebuildBodyCompProfile(userID int, scans []dexaScan) bodyCompProfile {
	learned, conf, obs := calibratePRatio(scans)
	return bodyCompProfile{
		UserID:           userID,
		LearnedPRatio:    learned,
		PRatioConfidence: conf,
		PRatioDataPoints: len(obs),
		Observations:     obs,
	}
}

// blendPRatio mixes the learned value with the covariate model, weighted by
// calibration confidence: no calibration means pure covariate model, a
// well-agreed multi-scan history means mostly the learned value.
func blendPRatio(profile bodyCompProfile, covariate float64) float64 {
	c := clamp(profile.PRatioConfidence, 0, 1)
	return clamp(c*profile.LearnedPRatio+(1-c)*covariate, pRatioFloorPadding, 1-pRatioFloorPadding)
}

// predictBodyComp forecasts fat/lean/body-fat% at a target weight using the
// blended P-ratio, anchored on the user's most recent scan. Bone mineral is
// held constant. The band width shrinks as calibration confidence grows.
func predictBodyComp(latest dexaScan, profile bodyCompProfile, in pRatioInputs,
	currentWeight, targetWeight float64, targetDate DateOnly) bodyCompPrediction {

	covariate := computeCovariatePRatio(in)
	p := blendPRatio(profile, covariate)

	// Fat/lean anchored at the scan, rolled forward through any weight
	// drift since the scan and then through the planned change, both at the
	// same partition ratio.
	fat := latest.FatLBS + p*(currentWeight-latest.TotalLBS) + p*(targetWeight-currentWeight)
	lean := latest.LeanLBS + (1-p)*(currentWeight-latest.TotalLBS) + (1-p)*(targetWeight-currentWeight)
	fat = math.Max(fat, 0)
	lean = math.Max(lean, 0)

	// Uncertainty on p itself, scaled by how much mass actually moves.
	deltaP := 0.05 + 0.15*(1-profile.PRatioConfidence)
	totalDelta := math.Abs(targetWeight - latest.TotalLBS)
	fatBand := deltaP * totalDelta
	leanBand := fatBand

	bfPct := 0.0
	if targetWeight > 0 {
		bfPct = fat / targetWeight * 100
	}
	bfBand := 0.0
	if targetWeight > 0 {
		bfBand = fatBand / targetWeight * 100
	}

	level := scanConfidenceLow
	switch {
	case profile.PRatioConfidence >= 0.6:
		level = scanConfidenceHigh
	case profile.PRatioConfidence >= 0.3:
		level = scanConfidenceMedium
	}

	factors := []string{
		fmt.Sprintf("calibration observations: %d", profile.PRatioDataPoints),
		fmt.Sprintf("calibration confidence: %.2f", profile.PRatioConfidence),
		fmt.Sprintf("latest scan confidence: %s", latest.Confidence),
	}

	return bodyCompPrediction{
		TargetDate:      targetDate,
		TargetWeightLBS: targetWeight,
		PRatioUsed:      p,
		FatLBS:          massRange{Value: fat, Low: math.Max(fat-fatBand, 0), High: fat + fatBand},
		LeanLBS:         massRange{Value: lean, Low: math.Max(lean-leanBand, 0), High: lean + leanBand},
		BodyFatPct:      massRange{Value: bfPct, Low: math.Max(bfPct-bfBand, 0), High: bfPct + bfBand},
		ConfidenceLevel: level,
		Factors:         factors,
		Assumptions: fmt.Sprintf(
			"Assumes %.0f%% of the change from %.1f to %.1f lbs is fat mass (P-ratio %.2f, %s confidence), bone mineral constant.",
			p*100, currentWeight, targetWeight, p, level),
	}
}
