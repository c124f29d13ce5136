package main

import "math"

// energyPerLB is the population prior for the energy density of body-mass
// change (3500 kcal ≈ 1 lb of tissue). The regression learns the user's own
// value; this constant seeds fits and backs the trajectory projector when
// the learned slope is degenerate.
const energyPerLB = 3500.0

// Sanity window for any TDEE the engine is willing to report.
const (
	minPlausibleTDEE = 500.0
	maxPlausibleTDEE = 10000.0
)

// minRatePoints is the fewest day-over-day observations worth regressing.
const minRatePoints = 6

// olsFit is an ordinary least squares fit of y on x.
type olsFit struct {
	Slope     float64
	Intercept float64
	RSquared  float64
	StdErr    float64 // residual standard error of y
	N         int
}

// fitOLS regresses ys on xs. Returns ok=false when there are too few points
// or xs has near-zero variance (slope would be a division by near-zero).
func fitOLS(xs, ys []float64) (olsFit, bool) {
	n := len(xs)
	if n < 3 || n != len(ys) {
		return olsFit{}, false
	}
	mx, my := mean(xs), mean(ys)
	var sxx, sxy float64
	for i := range xs {
		dx := xs[i] - mx
		sxx += dx * dx
		sxy += dx * (ys[i] - my)
	}
	if sxx < 1e-9 {
		return olsFit{}, false
	}
	slope := sxy / sxx
	intercept := my - slope*mx

	var ssRes, ssTot float64
	for i := range xs {
		pred := slope*xs[i] + intercept
		ssRes += (ys[i] - pred) * (ys[i] - pred)
		ssTot += (ys[i] - my) * (ys[i] - my)
	}
	r2 := 0.0
	if ssTot > 1e-12 {
		r2 = 1 - ssRes/ssTot
	}
	se := math.Sqrt(ssRes / float64(n-2))
	if !isFiniteAll(slope, intercept, r2, se) {
		return olsFit{}, false
	}
	return olsFit{Slope: slope, Intercept: intercept, RSquared: r2, StdErr: se, N: n}, true
}

// baselineFit bundles the regression internals the estimator and the
// visualization analysis both need.
type baselineFit struct {
	Rates []ratePoint
	Fit   olsFit
}

// fitBaseline conditions the series and regresses daily change rate on
// calories. ok=false means no usable linear fit exists (too few points,
// zero calorie variance, implausible or non-positive slope) — the caller
// degrades to the formula value, it does not fail.
func fitBaseline(points []dailyDataPoint) (baselineFit, bool) {
	series, _ := conditionSeries(points)
	rates := buildRatePoints(series)
	if len(rates) < minRatePoints {
		return baselineFit{Rates: rates}, false
	}
	xs := make([]float64, len(rates))
	ys := make([]float64, len(rates))
	for i, r := range rates {
		xs[i] = r.Calories
		ys[i] = r.Rate
	}
	fit, ok := fitOLS(xs, ys)
	if !ok {
		return baselineFit{Rates: rates}, false
	}
	// Model is rate = (calories - TDEE)/energy: the slope must be positive
	// (more intake, more gain) and the implied energy density plausible.
	if fit.Slope < 1.0/(10*energyPerLB) {
		return baselineFit{Rates: rates, Fit: fit}, false
	}
	tdee := -fit.Intercept / fit.Slope
	if !isFiniteAll(tdee) || tdee < minPlausibleTDEE || tdee > maxPlausibleTDEE {
		return baselineFit{Rates: rates, Fit: fit}, false
	}
	return baselineFit{Rates: rates, Fit: fit}, true
}

// tdee returns the break-even calorie level of a successful fit.
func (b baselineFit) tdee() float64 { return -b.Fit.Intercept / b.Fit.Slope }

// burnRatePerLB returns the learned energy density (kcal per lb of change).
func (b baselineFit) burnRatePerLB() float64 { return 1 / b.Fit.Slope }

// currentWeight returns the latest smoothed weight in the fit window.
func (b baselineFit) currentWeight() float64 {
	if len(b.Rates) == 0 {
		return 0
	}
	return b.Rates[len(b.Rates)-1].WeightLBS
}

// estimateBaseline runs the ordinary regression estimator over a window.
// On a degenerate fit over real data it returns an unstable
// regression-sourced estimate carrying the formula TDEE as the numeric
// value; with no usable observations at all, or no formula estimate to
// carry, it declines entirely so the selector surfaces the pure formula.
func estimateBaseline(points []dailyDataPoint, settings userSettings) (*tdeeEstimate, bool) {
	bf, ok := fitBaseline(points)
	if !ok {
		if len(bf.Rates) == 0 {
			return nil, false
		}
		formula, haveFormula := estimateFormula(settings)
		if !haveFormula {
			return nil, false
		}
		est := &tdeeEstimate{
			BurnRatePerLB:   energyPerLB,
			EstimatedTDEE:   formula.EstimatedTDEE,
			CurrentWeight:   bf.currentWeight(),
			Confidence:      confidenceUnstable,
			ConfidenceScore: formula.ConfidenceScore,
			StandardError:   0,
			DataPointsUsed:  len(bf.Rates),
			WindowDays:      defaultWindowDays,
			Source:          sourceRegression,
		}
		return est, true
	}

	tier, score := classifyConfidence(bf.Fit.RSquared, bf.Fit.StdErr*7, bf.Fit.N)
	return &tdeeEstimate{
		BurnRatePerLB:   bf.burnRatePerLB(),
		EstimatedTDEE:   bf.tdee(),
		CurrentWeight:   bf.currentWeight(),
		Confidence:      tier,
		ConfidenceScore: score,
		StandardError:   bf.Fit.StdErr,
		DataPointsUsed:  bf.Fit.N,
		WindowDays:      defaultWindowDays,
		Source:          sourceRegression,
	}, true
}

// analyzeRegression rebuilds the per-day fitted values for visualization.
// Derived and read-only; callers get ok=false when no linear fit exists.
func analyzeRegression(points []dailyDataPoint) (regressionAnalysis, bool) {
	bf, ok := fitBaseline(points)
	if !ok {
		return regressionAnalysis{}, false
	}
	out := regressionAnalysis{
		Points:        make([]regressionPoint, 0, len(bf.Rates)),
		BurnRatePerLB: bf.burnRatePerLB(),
		EstimatedTDEE: bf.tdee(),
		RSquared:      bf.Fit.RSquared,
		StandardError: bf.Fit.StdErr,
		CurrentWeight: bf.currentWeight(),
	}
	for _, r := range bf.Rates {
		out.Points = append(out.Points, regressionPoint{
			Date:          r.Date,
			WeightLBS:     r.WeightLBS,
			Calories:      r.Calories,
			ActualRate:    r.Rate,
			PredictedRate: bf.Fit.Slope*r.Calories + bf.Fit.Intercept,
		})
	}
	return out, true
}

// isFiniteAll reports whether every value is finite (no NaN/Inf). Used to
// stop numeric instability from leaking past an estimator boundary.
func isFiniteAll(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
