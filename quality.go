package main

import "math"

// Quality gate thresholds for the default 35-day rolling window.
const (
	defaultWindowDays = 35
	minCompletePoints = 7
	minCoverageRatio  = 0.3
	minCalorieStdDev  = 50.0
	maxNoisyFraction  = 0.2
)

// checkDataQuality validates whether a daily series is sufficient and stable
// enough for regression. Checks run in order (count, coverage, calorie
// signal, noise) but every applicable reason code is collected, not just the
// first. Pure; never errors — downstream estimators still guard degenerate
// input themselves, callers short-circuit on Sufficient=false for UX.
func checkDataQuality(points []dailyDataPoint, windowDays int) dataQualityCheck {
	if windowDays <= 0 {
		windowDays = defaultWindowDays
	}

	var complete int
	var calories []float64
	for _, p := range points {
		if p.complete() {
			complete++
			calories = append(calories, float64(*p.Calories))
		}
	}

	var reasons []string
	if complete < minCompletePoints {
		reasons = append(reasons, reasonTooFewPoints)
	}
	if float64(complete)/float64(windowDays) < minCoverageRatio {
		reasons = append(reasons, reasonTooSparse)
	}
	if complete > 0 && stdDev(calories) < minCalorieStdDev {
		// A single calorie level cannot separate burn rate from noise.
		reasons = append(reasons, reasonNoCalorieSignal)
	}
	if complete > 0 {
		_, excluded := conditionSeries(points)
		if float64(excluded)/float64(complete) > maxNoisyFraction {
			reasons = append(reasons, reasonTooNoisy)
		}
	}

	if reasons == nil {
		reasons = []string{}
	}
	return dataQualityCheck{Sufficient: len(reasons) == 0, ReasonCodes: reasons}
}

// mean returns the arithmetic mean of xs, or 0 for an empty slice.
func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stdDev returns the population standard deviation of xs.
func stdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}
