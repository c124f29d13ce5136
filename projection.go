package main

import "math"

// predictWeights projects body weight at each horizon under a constant
// intake of targetCalories, from a single estimate — no re-derivation of the
// regression per horizon. The uncertainty band widens with √horizon,
// reflecting compounding day-to-day error. Pure.
//
// At horizon 0 the prediction is exactly the current weight; at
// targetCalories == EstimatedTDEE every horizon predicts the current weight
// (zero drift at maintenance).
func predictWeights(est tdeeEstimate, targetCalories float64, horizons []int) []weightPrediction {
	energy := est.BurnRatePerLB
	if energy < 1 || !isFiniteAll(energy) {
		energy = energyPerLB
	}
	dailyRate := (targetCalories - est.EstimatedTDEE) / energy

	out := make([]weightPrediction, 0, len(horizons))
	for _, h := range horizons {
		if h < 0 {
			h = 0
		}
		predicted := est.CurrentWeight + float64(h)*dailyRate
		band := est.StandardError * math.Sqrt(float64(h))
		out = append(out, weightPrediction{
			HorizonDays:     h,
			PredictedWeight: predicted,
			LowerBound:      predicted - band,
			UpperBound:      predicted + band,
		})
	}
	return out
}
