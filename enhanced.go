package main

import "math"

// Gradient descent settings for the activity-augmented fit. The raw
// parameters live on very different scales (base burn in the thousands of
// kcal, step burn in hundredths of a kcal per step), so the descent runs on
// a rescaled parameterization where one learning rate serves all three.
const (
	minEnhancedPoints = 10
	maxIterations     = 2000
	gradientEpsilon   = 1e-7
	outlierSigma      = 2.5
	learnRate         = 1e5
	stepScale         = 1000.0 // steps fitted in thousands
	workoutScale      = 100.0  // workout kcal fitted in hundreds
)

// Physical bounds for the fitted parameters. The descent clamps after every
// step so a noisy window can never produce an absurd model (negative base
// burn, a step costing a meal's worth of calories).
const (
	baseBurnMin    = 800.0
	baseBurnMax    = 6000.0
	stepBurnMin    = 0.0
	stepBurnMax    = 0.1
	workoutMultMin = 0.0
	workoutMultMax = 2.0
)

// activityParams are the three coefficients of the augmented model in raw
// units: TDEE_effective = Base + StepRate×steps + WorkoutMult×workoutCalories.
type activityParams struct {
	Base        float64
	StepRate    float64
	WorkoutMult float64
}

// activityFit is the descent's internal parameterization. Activity features
// are centered on the window averages and rescaled, which keeps the error
// surface well conditioned: with raw uncentered steps the base burn and the
// step rate trade off along a near-flat valley the fixed-rate descent cannot
// cross within the iteration cap.
type activityFit struct {
	AvgBurn  float64 // burn at window-average activity
	StepK    float64 // kcal per thousand steps
	WorkoutH float64 // kcal per hundred workout kcal

	meanSteps   float64
	meanWorkout float64
}

func (f activityFit) clamp() activityFit {
	f.AvgBurn = clamp(f.AvgBurn, baseBurnMin, maxPlausibleTDEE)
	f.StepK = clamp(f.StepK, stepBurnMin*stepScale, stepBurnMax*stepScale)
	f.WorkoutH = clamp(f.WorkoutH, workoutMultMin*workoutScale, workoutMultMax*workoutScale)
	return f
}

// params converts back to raw units.
func (f activityFit) params() activityParams {
	stepRate := f.StepK / stepScale
	mult := f.WorkoutH / workoutScale
	return activityParams{
		Base:        f.AvgBurn - stepRate*f.meanSteps - mult*f.meanWorkout,
		StepRate:    stepRate,
		WorkoutMult: mult,
	}
}

// predictedRate is the model's expected daily mass change for one day.
func (f activityFit) predictedRate(r ratePoint) float64 {
	burn := f.AvgBurn + f.StepK*(r.Steps-f.meanSteps)/stepScale +
		f.WorkoutH*(r.WorkoutCalories-f.meanWorkout)/workoutScale
	return (r.Calories - burn) / energyPerLB
}

// descend runs bounded gradient descent over the squared change-rate error.
// Returns the fitted parameters and whether the gradient settled below
// epsilon before the iteration cap (the cap is the only runtime safeguard;
// hitting it means non-convergence, not a usable fit).
func descend(rates []ratePoint, init activityFit) (activityFit, bool) {
	f := init.clamp()
	n := float64(len(rates))
	for iter := 0; iter < maxIterations; iter++ {
		var g0, g1, g2 float64
		for _, r := range rates {
			// Negative gradient of err²: burn enters the rate with a minus
			// sign, which cancels the -2e of the derivative, so adding the
			// accumulated terms below steps downhill.
			e := f.predictedRate(r) - r.Rate
			common := 2 * e / (energyPerLB * n)
			g0 += common
			g1 += common * (r.Steps - f.meanSteps) / stepScale
			g2 += common * (r.WorkoutCalories - f.meanWorkout) / workoutScale
		}
		if math.Abs(g0)+math.Abs(g1)+math.Abs(g2) < gradientEpsilon {
			return f, true
		}
		f.AvgBurn += learnRate * g0
		f.StepK += learnRate * g1
		f.WorkoutH += learnRate * g2
		f = f.clamp()
		if !isFiniteAll(f.AvgBurn, f.StepK, f.WorkoutH) {
			return f, false
		}
	}
	return f, false
}

// excludeOutliers drops days whose residual under the fit exceeds
// outlierSigma standard deviations. Keying errors and one-off water swings
// otherwise dominate a squared-error fit.
func excludeOutliers(rates []ratePoint, f activityFit) []ratePoint {
	residuals := make([]float64, len(rates))
	for i, r := range rates {
		residuals[i] = f.predictedRate(r) - r.Rate
	}
	sigma := stdDev(residuals)
	if sigma < 1e-12 {
		return rates
	}
	m := mean(residuals)
	kept := make([]ratePoint, 0, len(rates))
	for i, r := range rates {
		if math.Abs(residuals[i]-m) <= outlierSigma*sigma {
			kept = append(kept, r)
		}
	}
	return kept
}

// estimateEnhanced attempts the activity-augmented fit. Preconditions: at
// least minEnhancedPoints usable days and at least one day with nonzero
// steps or workout calories — otherwise the caller must use the baseline
// estimator. Non-convergence and insufficient post-exclusion data both
// return (nil, false), never an error.
func estimateEnhanced(points []dailyDataPoint, settings userSettings) (*tdeeEstimate, bool) {
	series, _ := conditionSeries(points)
	rates := buildRatePoints(series)
	if len(rates) < minEnhancedPoints {
		return nil, false
	}
	var sumSteps, sumWorkout float64
	hasActivity := false
	for _, r := range rates {
		sumSteps += r.Steps
		sumWorkout += r.WorkoutCalories
		if r.Steps > 0 || r.WorkoutCalories > 0 {
			hasActivity = true
		}
	}
	if !hasActivity {
		return nil, false
	}

	// Seed the average burn from the best prior available: the baseline
	// regression's TDEE when it fit, otherwise the formula, otherwise a
	// generic adult value. Both priors already describe the burn at the
	// user's average activity, which is exactly what AvgBurn means.
	init := activityFit{
		AvgBurn:     2000,
		StepK:       0.04 * stepScale,
		WorkoutH:    1.0 * workoutScale,
		meanSteps:   sumSteps / float64(len(rates)),
		meanWorkout: sumWorkout / float64(len(rates)),
	}
	if bf, ok := fitBaseline(points); ok {
		init.AvgBurn = bf.tdee()
	} else if f, ok := estimateFormula(settings); ok {
		init.AvgBurn = f.EstimatedTDEE
	}

	first, converged := descend(rates, init)
	if !converged {
		return nil, false
	}
	cleaned := excludeOutliers(rates, first)
	fit := first
	if len(cleaned) < len(rates) {
		if len(cleaned) < minEnhancedPoints {
			return nil, false
		}
		// Keep the original centering for the refit; the means only need
		// to be near the data's center, not exact.
		refit, ok := descend(cleaned, first)
		if !ok {
			return nil, false
		}
		fit = refit
		rates = cleaned
	}

	params := fit.params()
	if params.Base < baseBurnMin || params.Base > baseBurnMax {
		return nil, false
	}

	sumSteps, sumWorkout = 0, 0
	actual := make([]float64, len(rates))
	var resSq float64
	for i, r := range rates {
		sumSteps += r.Steps
		sumWorkout += r.WorkoutCalories
		actual[i] = r.Rate
		e := fit.predictedRate(r) - r.Rate
		resSq += e * e
	}
	avgSteps := sumSteps / float64(len(rates))
	avgWorkout := sumWorkout / float64(len(rates))

	tdee := params.Base + params.StepRate*avgSteps + params.WorkoutMult*avgWorkout
	if !isFiniteAll(tdee) || tdee < minPlausibleTDEE || tdee > maxPlausibleTDEE {
		return nil, false
	}

	// Pseudo-R² and residual SE against the actual rates, graded with the
	// same rule engine as the baseline fit.
	var ssT float64
	ma := mean(actual)
	for _, a := range actual {
		ssT += (a - ma) * (a - ma)
	}
	r2 := 0.0
	if ssT > 1e-12 {
		r2 = 1 - resSq/ssT
	}
	se := math.Sqrt(resSq / float64(max(len(rates)-3, 1)))
	tier, score := classifyConfidence(r2, se*7, len(rates))

	return &tdeeEstimate{
		BurnRatePerLB:      energyPerLB,
		EstimatedTDEE:      tdee,
		CurrentWeight:      rates[len(rates)-1].WeightLBS,
		Confidence:         tier,
		ConfidenceScore:    score,
		StandardError:      se,
		DataPointsUsed:     len(rates),
		WindowDays:         defaultWindowDays,
		Source:             sourceRegression,
		BaseBurnRate:       &params.Base,
		StepBurnRate:       &params.StepRate,
		WorkoutMultiplier:  &params.WorkoutMult,
		AvgSteps:           &avgSteps,
		AvgWorkoutCalories: &avgWorkout,
	}, true
}
