package main

import (
	"math"
	"testing"
)

// basePRatioInputs returns a middle-of-the-road covariate set.
func basePRatioInputs() pRatioInputs {
	return pRatioInputs{
		ProteinGPerLB:    proteinRefGPerLB,
		WeeklySets:       10,
		DeficitPct:       0.10,
		BodyFatPct:       20,
		TrainingAgeYears: 3,
		Sex:              "male",
	}
}

// makeScan builds one high-confidence scan for calibration tests.
func makeScan(dayOffset int, total, fat, lean, bone float64) dexaScan {
	return dexaScan{
		ScanDate:   testDay(dayOffset),
		TotalLBS:   total,
		FatLBS:     fat,
		LeanLBS:    lean,
		BoneLBS:    bone,
		Confidence: scanConfidenceHigh,
	}
}

/* ─── Covariate model ────────────────────────────────────────────────── */

// TestComputeCovariatePRatio_AlwaysInUnitInterval sweeps covariate extremes
// and checks the output never leaves (0, 1).
func TestComputeCovariatePRatio_AlwaysInUnitInterval(t *testing.T) {
	extremes := []pRatioInputs{
		{ProteinGPerLB: 0, WeeklySets: 0, DeficitPct: 0.5, BodyFatPct: 60, Sex: "male"},
		{ProteinGPerLB: 2, WeeklySets: 40, DeficitPct: -0.5, BodyFatPct: 3, Sex: "female", TrainingAgeYears: 20},
		{ProteinGPerLB: 0, WeeklySets: 0, DeficitPct: 1, BodyFatPct: 0, Sex: "male", IsEnhanced: true},
		{ProteinGPerLB: 5, WeeklySets: 100, DeficitPct: -1, BodyFatPct: 80, Sex: "female", IsEnhanced: true},
		basePRatioInputs(),
	}
	for i, in := range extremes {
		p := computeCovariatePRatio(in)
		if p <= 0 || p >= 1 {
			t.Errorf("extreme %d: P-ratio %.3f outside (0,1)", i, p)
		}
		lo, hi := pRatioBounds(in.Sex, in.IsEnhanced)
		if p < lo || p > hi {
			t.Errorf("extreme %d: P-ratio %.3f outside sex bounds [%.2f, %.2f]", i, p, lo, hi)
		}
	}
}

// TestComputeCovariatePRatio_ModifierDirections verifies each covariate
// pushes the ratio the documented way relative to the same baseline.
func TestComputeCovariatePRatio_ModifierDirections(t *testing.T) {
	base := computeCovariatePRatio(basePRatioInputs())

	hiProtein := basePRatioInputs()
	hiProtein.ProteinGPerLB = 1.0
	if got := computeCovariatePRatio(hiProtein); got >= base {
		t.Errorf("higher protein: %.3f, expected below baseline %.3f", got, base)
	}

	hiVolume := basePRatioInputs()
	hiVolume.WeeklySets = 20
	if got := computeCovariatePRatio(hiVolume); got >= base {
		t.Errorf("higher volume: %.3f, expected below baseline %.3f", got, base)
	}

	hiDeficit := basePRatioInputs()
	hiDeficit.DeficitPct = 0.25
	if got := computeCovariatePRatio(hiDeficit); got <= base {
		t.Errorf("steeper deficit: %.3f, expected above baseline %.3f", got, base)
	}

	surplus := basePRatioInputs()
	surplus.DeficitPct = -0.10
	if got := computeCovariatePRatio(surplus); got >= base {
		t.Errorf("surplus: %.3f, expected below the deficit baseline %.3f", got, base)
	}

	leaner := basePRatioInputs()
	leaner.BodyFatPct = 10
	if got := computeCovariatePRatio(leaner); got >= base {
		t.Errorf("leaner user: %.3f, expected below baseline %.3f", got, base)
	}

	enhanced := basePRatioInputs()
	enhanced.IsEnhanced = true
	if got := computeCovariatePRatio(enhanced); got >= base {
		t.Errorf("enhanced: %.3f, expected below baseline %.3f", got, base)
	}
}

/* ─── Calibration ────────────────────────────────────────────────────── */

// TestCalibratePRatio_TwoScans verifies the measured partition: −4 lb total
// with −3 lb fat is a P-ratio of exactly 0.75, with nonzero confidence.
func TestCalibratePRatio_TwoScans(t *testing.T) {
	scans := []dexaScan{
		makeScan(0, 180, 45, 130, 5),
		makeScan(60, 176, 42, 129, 5),
	}
	learned, conf, obs := calibratePRatio(scans)
	if math.Abs(learned-0.75) > 1e-9 {
		t.Errorf("learned P-ratio = %.4f, expected 0.75", learned)
	}
	if conf <= 0 {
		t.Error("expected nonzero confidence from one observation")
	}
	if len(obs) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(obs))
	}
	if obs[0].PRatio != learned {
		t.Errorf("single observation %.4f disagrees with learned %.4f", obs[0].PRatio, learned)
	}
}

// TestCalibratePRatio_NeedsTwoScans verifies zero scans and one scan both
// yield no calibration.
func TestCalibratePRatio_NeedsTwoScans(t *testing.T) {
	if learned, conf, obs := calibratePRatio(nil); learned != 0 || conf != 0 || obs != nil {
		t.Error("expected empty calibration for no scans")
	}
	one := []dexaScan{makeScan(0, 180, 45, 130, 5)}
	if learned, conf, obs := calibratePRatio(one); learned != 0 || conf != 0 || obs != nil {
		t.Error("expected empty calibration for a single scan")
	}
}

// TestCalibratePRatio_SkipsTinyDeltas verifies a pair whose total mass
// barely moved contributes no observation: the ratio of two near-zero
// deltas is noise, not signal.
func TestCalibratePRatio_SkipsTinyDeltas(t *testing.T) {
	scans := []dexaScan{
		makeScan(0, 180, 45, 130, 5),
		makeScan(30, 180.4, 45.2, 130.2, 5), // +0.4 lb: below the floor
		makeScan(90, 176, 42, 129, 5),
	}
	_, _, obs := calibratePRatio(scans)
	if len(obs) != 1 {
		t.Fatalf("expected only the 180.4→176 pair, got %d observations", len(obs))
	}
	if !obs[0].ToDate.Time.Equal(testDay(90).Time) {
		t.Errorf("surviving observation ends %s, expected day 90", obs[0].ToDate.Time.Format("2006-01-02"))
	}
}

// TestCalibratePRatio_ConfidenceGrowsWithAgreement verifies confidence
// rises with consistent observations and stays below that with scattered
// ones.
func TestCalibratePRatio_ConfidenceGrowsWithAgreement(t *testing.T) {
	// Four intervals, all partitioning at 0.75.
	consistent := []dexaScan{
		makeScan(0, 188, 51, 132, 5),
		makeScan(30, 184, 48, 131, 5),
		makeScan(60, 180, 45, 130, 5),
		makeScan(90, 176, 42, 129, 5),
		makeScan(120, 172, 39, 128, 5),
	}
	_, confConsistent, _ := calibratePRatio(consistent)

	// Same endpoints but wildly different per-interval partitioning.
	scattered := []dexaScan{
		makeScan(0, 188, 51, 132, 5),
		makeScan(30, 184, 50.5, 128.5, 5), // barely any fat moved
		makeScan(60, 180, 46, 129, 5),     // almost all fat
		makeScan(90, 176, 45.6, 125.4, 5),
		makeScan(120, 172, 41, 126, 5),
	}
	_, confScattered, _ := calibratePRatio(scattered)

	if confConsistent <= confScattered {
		t.Errorf("consistent confidence %.3f not above scattered %.3f", confConsistent, confScattered)
	}
	if confConsistent < 0.9 {
		t.Errorf("four agreeing observations should be near full confidence, got %.3f", confConsistent)
	}

	// Two consistent observations rank below four.
	_, confTwo, _ := calibratePRatio(consistent[:3])
	if confTwo >= confConsistent {
		t.Errorf("2 observations (%.3f) should rank below 4 (%.3f)", confTwo, confConsistent)
	}
}

// TestCalibratePRatio_LowConfidenceScansWeighLess verifies that an interval
// anchored on a low-confidence scan pulls the learned value less than the
// same interval measured at high confidence.
func TestCalibratePRatio_LowConfidenceScansWeighLess(t *testing.T) {
	// First interval partitions at 0.05, second at 0.75.
	first := makeScan(0, 188, 51, 132, 5)
	scans := func(firstConf string) []dexaScan {
		f := first
		f.Confidence = firstConf
		return []dexaScan{
			f,
			makeScan(30, 184, 50.8, 128.2, 5),
			makeScan(60, 180, 47.8, 127.2, 5),
		}
	}

	learnedAllHigh, _, obs := calibratePRatio(scans(scanConfidenceHigh))
	if len(obs) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(obs))
	}
	learnedLowFirst, _, _ := calibratePRatio(scans(scanConfidenceLow))

	// Down-weighting the 0.05 interval must move the mean toward 0.75.
	if learnedLowFirst <= learnedAllHigh {
		t.Errorf("low-confidence first scan: learned %.3f, expected above the all-high %.3f",
			learnedLowFirst, learnedAllHigh)
	}
}

/* ─── Blending and prediction ────────────────────────────────────────── */

// TestBlendPRatio verifies the confidence-weighted mix: zero calibration
// means the covariate model, full calibration means the learned value.
func TestBlendPRatio(t *testing.T) {
	cov := 0.60
	if got := blendPRatio(bodyCompProfile{}, cov); math.Abs(got-cov) > 1e-9 {
		t.Errorf("no calibration: blend = %.3f, expected covariate %.3f", got, cov)
	}
	full := bodyCompProfile{LearnedPRatio: 0.30, PRatioConfidence: 1}
	if got := blendPRatio(full, cov); math.Abs(got-0.30) > 1e-9 {
		t.Errorf("full calibration: blend = %.3f, expected learned 0.30", got)
	}
	half := bodyCompProfile{LearnedPRatio: 0.30, PRatioConfidence: 0.5}
	if got := blendPRatio(half, cov); math.Abs(got-0.45) > 1e-9 {
		t.Errorf("half calibration: blend = %.3f, expected 0.45", got)
	}
}

// TestRebuildBodyCompProfile verifies the derived profile carries the
// calibration outputs verbatim.
func TestRebuildBodyCompProfile(t *testing.T) {
	scans := []dexaScan{
		makeScan(0, 180, 45, 130, 5),
		makeScan(60, 176, 42, 129, 5),
	}
	profile := rebuildBodyCompProfile(7, scans)
	if profile.UserID != 7 {
		t.Errorf("UserID = %d, expected 7", profile.UserID)
	}
	if profile.PRatioDataPoints != 1 || len(profile.Observations) != 1 {
		t.Errorf("expected 1 observation, got %d/%d", profile.PRatioDataPoints, len(profile.Observations))
	}
	if math.Abs(profile.LearnedPRatio-0.75) > 1e-9 {
		t.Errorf("LearnedPRatio = %.4f, expected 0.75", profile.LearnedPRatio)
	}
}

// TestPredictBodyComp_KnownPartition verifies the arithmetic with a fully
// calibrated P-ratio of 0.5: a 10 lb loss splits evenly between fat and
// lean, and bone stays fixed.
func TestPredictBodyComp_KnownPartition(t *testing.T) {
	latest := makeScan(0, 180, 45, 130, 5)
	profile := bodyCompProfile{LearnedPRatio: 0.5, PRatioConfidence: 1}

	pred := predictBodyComp(latest, profile, basePRatioInputs(), 180, 170, testDay(90))

	if math.Abs(pred.PRatioUsed-0.5) > 1e-9 {
		t.Fatalf("PRatioUsed = %.3f, expected the learned 0.5", pred.PRatioUsed)
	}
	if math.Abs(pred.FatLBS.Value-40) > 1e-9 {
		t.Errorf("fat = %.2f, expected 40", pred.FatLBS.Value)
	}
	if math.Abs(pred.LeanLBS.Value-125) > 1e-9 {
		t.Errorf("lean = %.2f, expected 125", pred.LeanLBS.Value)
	}
	// Bone constant: fat + lean + bone reassembles the target weight.
	if math.Abs(pred.FatLBS.Value+pred.LeanLBS.Value+latest.BoneLBS-170) > 1e-9 {
		t.Errorf("masses do not reassemble the 170 lb target")
	}
	wantBF := 40.0 / 170 * 100
	if math.Abs(pred.BodyFatPct.Value-wantBF) > 1e-6 {
		t.Errorf("body fat %% = %.2f, expected %.2f", pred.BodyFatPct.Value, wantBF)
	}
	if pred.ConfidenceLevel != scanConfidenceHigh {
		t.Errorf("ConfidenceLevel = %q, expected high at full calibration", pred.ConfidenceLevel)
	}
}

// TestPredictBodyComp_BandsShrinkWithCalibration verifies uncertainty
// narrows as calibration confidence rises, for the same planned change.
func TestPredictBodyComp_BandsShrinkWithCalibration(t *testing.T) {
	latest := makeScan(0, 180, 45, 130, 5)
	in := basePRatioInputs()

	uncal := predictBodyComp(latest, bodyCompProfile{}, in, 180, 170, testDay(90))
	cal := predictBodyComp(latest, bodyCompProfile{LearnedPRatio: 0.5, PRatioConfidence: 0.9}, in, 180, 170, testDay(90))

	wideBand := uncal.FatLBS.High - uncal.FatLBS.Low
	narrowBand := cal.FatLBS.High - cal.FatLBS.Low
	if narrowBand >= wideBand {
		t.Errorf("calibrated band %.2f not narrower than uncalibrated %.2f", narrowBand, wideBand)
	}
}

// TestPredictBodyComp_AccountsForDriftSinceScan verifies the anchor rolls
// forward when the current weight has already moved off the last scan.
func TestPredictBodyComp_AccountsForDriftSinceScan(t *testing.T) {
	latest := makeScan(0, 180, 45, 130, 5)
	profile := bodyCompProfile{LearnedPRatio: 0.5, PRatioConfidence: 1}

	// User already lost 4 lb since the scan, plans 6 more.
	pred := predictBodyComp(latest, profile, basePRatioInputs(), 176, 170, testDay(90))
	if math.Abs(pred.FatLBS.Value-40) > 1e-9 {
		t.Errorf("fat = %.2f, expected 40 (same endpoint, drift included)", pred.FatLBS.Value)
	}
}
