package main

import "time"

// activityMultipliers maps activity level strings to their TDEE multiplier.
// This is the single source of truth for valid activity levels — also used
// for input validation in patchUserSettings.
var activityMultipliers = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very_active": 1.9,
}

const lbsPerKG = 2.20462

// computeBMR computes basal metabolic rate from anthropometrics.
// Katch-McArdle when body-fat% is known (it uses lean mass directly),
// Mifflin-St Jeor otherwise. Returns ok=false when any required field is
// nil or the derived age is implausible.
func computeBMR(s userSettings) (float64, bool) {
	if s.Sex == nil || s.DateOfBirth == nil || s.HeightCM == nil || s.WeightLBS == nil {
		return 0, false
	}

	// Age derived from date of birth
	today := time.Now()
	age := today.Year() - s.DateOfBirth.Year()
	if today.Before(s.DateOfBirth.AddDate(age, 0, 0)) {
		age--
	}
	// Guard against implausible ages (e.g. DOB in the future, or over 130 years ago)
	if age < 0 || age > 130 {
		return 0, false
	}

	weightKG := *s.WeightLBS / lbsPerKG
	if s.BodyFatPct != nil && *s.BodyFatPct > 0 && *s.BodyFatPct < 100 {
		leanKG := weightKG * (1 - *s.BodyFatPct/100)
		return 370 + 21.6*leanKG, true
	}

	bmr := 10*weightKG + 6.25**s.HeightCM - 5*float64(age)
	if *s.Sex == "male" {
		bmr += 5
	} else {
		bmr -= 161
	}
	return bmr, true
}

// workoutBump estimates the daily calorie cost of the user's declared
// training schedule via METs: kcal/min = MET × 3.5 × kg / 200, averaged
// over the week. Zero when the schedule or intensity is unset.
func workoutBump(s userSettings) float64 {
	if s.WeightLBS == nil || s.WorkoutsPerWeek <= 0 || s.AvgWorkoutMinutes <= 0 || s.WorkoutIntensity <= 0 {
		return 0
	}
	weightKG := *s.WeightLBS / lbsPerKG
	perMinute := s.WorkoutIntensity * 3.5 * weightKG / 200
	return float64(s.WorkoutsPerWeek) * float64(s.AvgWorkoutMinutes) * perMinute / 7
}

// estimateFormula is the deterministic closed-form estimator: BMR times the
// activity-class multiplier plus the declared-training bump. Always
// computable from anthropometrics alone; no learned state. Used as the
// fallback floor and the sanity anchor the selector compares adaptive
// estimates against.
func estimateFormula(s userSettings) (*tdeeEstimate, bool) {
	bmr, ok := computeBMR(s)
	if !ok {
		return nil, false
	}
	mult := activityMultipliers["sedentary"]
	if s.ActivityLevel != nil {
		m, found := activityMultipliers[*s.ActivityLevel]
		if !found {
			return nil, false
		}
		mult = m
	}
	tdee := bmr*mult + workoutBump(s)
	if tdee < minPlausibleTDEE || tdee > maxPlausibleTDEE {
		return nil, false
	}
	return &tdeeEstimate{
		BurnRatePerLB: energyPerLB,
		EstimatedTDEE: tdee,
		CurrentWeight: *s.WeightLBS,
		// A formula value is a prior, not a fit: it never ranks above
		// unstable so it can never silently drive a target sync.
		Confidence:      confidenceUnstable,
		ConfidenceScore: 0.25,
		Source:          sourceFormula,
	}, true
}
