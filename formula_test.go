package main

import (
	"math"
	"testing"
	"time"
)

// makeSettings constructs fully-populated userSettings for formula tests.
// All anthropometric fields are set; individual tests nil out specific
// fields to exercise missing-field guards.
func makeSettings(sex string, dobYear int, heightCM, weightLBS float64, activityLevel string) userSettings {
	dob := DateOnly{time.Date(dobYear, 1, 1, 0, 0, 0, 0, time.UTC)}
	return userSettings{
		Sex:           &sex,
		DateOfBirth:   &dob,
		HeightCM:      &heightCM,
		WeightLBS:     &weightLBS,
		ActivityLevel: &activityLevel,
	}
}

/* ─── Missing-field guard tests ──────────────────────────────────────── */

// TestComputeBMR_MissingFields verifies that ok=false is returned when any
// required profile field is nil. Each sub-test nils out one field on an
// otherwise-valid settings struct.
func TestComputeBMR_MissingFields(t *testing.T) {
	cases := []struct {
		name  string
		mutFn func(s *userSettings)
	}{
		{"nil Sex", func(s *userSettings) { s.Sex = nil }},
		{"nil DateOfBirth", func(s *userSettings) { s.DateOfBirth = nil }},
		{"nil HeightCM", func(s *userSettings) { s.HeightCM = nil }},
		{"nil WeightLBS", func(s *userSettings) { s.WeightLBS = nil }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := makeSettings("male", 1990, 175, 180, "sedentary")
			tc.mutFn(&s)
			if _, ok := computeBMR(s); ok {
				t.Errorf("expected ok=false when %s, got ok=true", tc.name)
			}
		})
	}
}

// TestEstimateFormula_UnknownActivityLevel verifies that an unrecognised
// activity level string produces ok=false.
func TestEstimateFormula_UnknownActivityLevel(t *testing.T) {
	s := makeSettings("male", 1990, 175, 180, "unknown")
	if _, ok := estimateFormula(s); ok {
		t.Error("expected ok=false for unknown activity level, got ok=true")
	}
}

// TestEstimateFormula_NilActivityLevel verifies the sedentary default: a
// profile with no activity class still gets an estimate (BMR × 1.2).
func TestEstimateFormula_NilActivityLevel(t *testing.T) {
	s := makeSettings("male", 1990, 175, 180, "sedentary")
	s.ActivityLevel = nil
	est, ok := estimateFormula(s)
	if !ok {
		t.Fatal("expected ok=true with nil activity level, got ok=false")
	}
	bmr, _ := computeBMR(s)
	if math.Abs(est.EstimatedTDEE-bmr*1.2) > 0.01 {
		t.Errorf("expected sedentary multiplier 1.2, got TDEE %.2f for BMR %.2f", est.EstimatedTDEE, bmr)
	}
}

// TestComputeBMR_FutureDOB verifies that a date of birth in the future
// (which yields a negative age) produces ok=false.
func TestComputeBMR_FutureDOB(t *testing.T) {
	s := makeSettings("male", time.Now().Year()+1, 175, 180, "sedentary")
	if _, ok := computeBMR(s); ok {
		t.Error("expected ok=false for future date of birth, got ok=true")
	}
}

// TestComputeBMR_AgeTooHigh verifies that a date of birth 200 years ago
// (age > 130) produces ok=false.
func TestComputeBMR_AgeTooHigh(t *testing.T) {
	s := makeSettings("male", time.Now().Year()-200, 175, 180, "sedentary")
	if _, ok := computeBMR(s); ok {
		t.Error("expected ok=false for age > 130, got ok=true")
	}
}

/* ─── BMR accuracy tests ─────────────────────────────────────────────── */

// TestComputeBMR_Male verifies the male Mifflin-St Jeor formula using known
// inputs. Age is computed from DOB at runtime so tolerance is ±10 to account
// for off-by-one when the birthday falls after today in the test year.
//
// Inputs: male, born 1990-01-01, 175cm, 180lbs.
// Expected: weightKG=180/2.20462≈81.65, bmr=10×81.65+6.25×175−5×age+5.
func TestComputeBMR_Male(t *testing.T) {
	s := makeSettings("male", 1990, 175, 180, "sedentary")
	bmr, ok := computeBMR(s)
	if !ok {
		t.Fatal("expected ok=true, got ok=false")
	}

	age := float64(time.Now().Year() - 1990)
	weightKG := 180 / lbsPerKG
	expected := 10*weightKG + 6.25*175 - 5*age + 5
	if math.Abs(bmr-expected) > 10 {
		t.Errorf("male BMR = %.2f, expected ≈ %.2f", bmr, expected)
	}
}

// TestComputeBMR_Female verifies the −161 female constant: for identical
// anthropometrics the female BMR must sit exactly 166 below the male one.
func TestComputeBMR_Female(t *testing.T) {
	male := makeSettings("male", 1990, 165, 140, "sedentary")
	female := makeSettings("female", 1990, 165, 140, "sedentary")

	bmrM, ok := computeBMR(male)
	if !ok {
		t.Fatal("male: expected ok=true")
	}
	bmrF, ok := computeBMR(female)
	if !ok {
		t.Fatal("female: expected ok=true")
	}
	if math.Abs((bmrM-bmrF)-166) > 0.01 {
		t.Errorf("male−female BMR gap = %.2f, expected 166", bmrM-bmrF)
	}
}

// TestComputeBMR_KatchMcArdle verifies that a known body-fat percent routes
// through the lean-mass formula: bmr = 370 + 21.6 × leanKG.
func TestComputeBMR_KatchMcArdle(t *testing.T) {
	s := makeSettings("male", 1990, 175, 180, "sedentary")
	bf := 20.0
	s.BodyFatPct = &bf

	bmr, ok := computeBMR(s)
	if !ok {
		t.Fatal("expected ok=true, got ok=false")
	}
	leanKG := (180 / lbsPerKG) * 0.8
	expected := 370 + 21.6*leanKG
	if math.Abs(bmr-expected) > 0.01 {
		t.Errorf("Katch-McArdle BMR = %.2f, expected %.2f", bmr, expected)
	}
}

/* ─── Workout bump and estimate shape ────────────────────────────────── */

// TestWorkoutBump verifies the MET-based daily training cost and its zero
// cases. 4 workouts × 60 min at MET 6 for an 81.65kg user:
// perMinute = 6 × 3.5 × 81.65 / 200 ≈ 8.573, daily = 4×60×8.573/7 ≈ 293.9.
func TestWorkoutBump(t *testing.T) {
	s := makeSettings("male", 1990, 175, 180, "moderate")
	s.WorkoutsPerWeek = 4
	s.AvgWorkoutMinutes = 60
	s.WorkoutIntensity = 6

	got := workoutBump(s)
	weightKG := 180 / lbsPerKG
	expected := 4 * 60 * (6 * 3.5 * weightKG / 200) / 7
	if math.Abs(got-expected) > 0.01 {
		t.Errorf("workoutBump = %.2f, expected %.2f", got, expected)
	}

	s.WorkoutsPerWeek = 0
	if got := workoutBump(s); got != 0 {
		t.Errorf("expected 0 bump with no workouts, got %.2f", got)
	}
}

// TestEstimateFormula_AlwaysUnstable verifies the estimate's fixed shape: a
// formula value is a prior, never an adaptive fit, so its confidence can
// never qualify it for target sync.
func TestEstimateFormula_AlwaysUnstable(t *testing.T) {
	s := makeSettings("female", 1985, 165, 150, "active")
	est, ok := estimateFormula(s)
	if !ok {
		t.Fatal("expected ok=true, got ok=false")
	}
	if est.Source != sourceFormula {
		t.Errorf("Source = %q, expected %q", est.Source, sourceFormula)
	}
	if est.Confidence != confidenceUnstable {
		t.Errorf("Confidence = %q, expected %q", est.Confidence, confidenceUnstable)
	}
	if est.enhanced() {
		t.Error("formula estimate must not carry activity parameters")
	}
	if est.BurnRatePerLB != energyPerLB {
		t.Errorf("BurnRatePerLB = %.1f, expected population prior %.1f", est.BurnRatePerLB, energyPerLB)
	}
	if est.CurrentWeight != 150 {
		t.Errorf("CurrentWeight = %.1f, expected profile weight 150", est.CurrentWeight)
	}
}

// TestEstimateFormula_ActivityOrdering verifies that a higher activity class
// strictly raises the estimate for the same anthropometrics.
func TestEstimateFormula_ActivityOrdering(t *testing.T) {
	levels := []string{"sedentary", "light", "moderate", "active", "very_active"}
	prev := 0.0
	for _, lvl := range levels {
		s := makeSettings("male", 1990, 175, 180, lvl)
		est, ok := estimateFormula(s)
		if !ok {
			t.Fatalf("%s: expected ok=true", lvl)
		}
		if est.EstimatedTDEE <= prev {
			t.Errorf("%s: TDEE %.1f not greater than previous level's %.1f", lvl, est.EstimatedTDEE, prev)
		}
		prev = est.EstimatedTDEE
	}
}
