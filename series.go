package main

import (
	"math"
	"sort"
)

// Series conditioning parameters. Raw body mass swings ±1–2% daily from
// hydration and glycogen; the EWMA keeps the trend the regression needs
// while damping single-day noise. Deltas beyond maxDailySwingPct per day
// are treated as keying errors and excluded from the fit (but stay in the
// stored history — the conditioner never mutates source records).
const (
	ewmaAlpha        = 0.3
	maxDailySwingPct = 0.02
)

// conditionedPoint is one accepted day after smoothing. Calories carry the
// same low-pass filter as mass: the day-over-day change of smoothed mass is
// a weighted mix of recent days, so pairing it with equally smoothed intake
// keeps the regression relation linear instead of smearing it.
type conditionedPoint struct {
	Date            DateOnly
	WeightLBS       float64 // raw, for display
	Smoothed        float64
	Calories        float64 // smoothed
	Steps           float64
	WorkoutCalories float64
}

// ratePoint pairs a day-over-day smoothed change rate with the intake and
// activity of the day that drove it. This is the regression's input row.
type ratePoint struct {
	Date            DateOnly
	WeightLBS       float64 // smoothed weight at the end of the interval
	Calories        float64
	Steps           float64
	WorkoutCalories float64
	Rate            float64 // lb/day
}

// conditionSeries sorts the complete points by date, drops implausible
// single-day jumps, and low-pass filters the mass series. Returns the
// accepted smoothed series and the count of excluded keying errors.
func conditionSeries(points []dailyDataPoint) ([]conditionedPoint, int) {
	complete := make([]dailyDataPoint, 0, len(points))
	for _, p := range points {
		if p.complete() {
			complete = append(complete, p)
		}
	}
	sort.Slice(complete, func(i, j int) bool {
		return complete[i].Date.Time.Before(complete[j].Date.Time)
	})

	var out []conditionedPoint
	var excluded int
	var smoothed, smoothedCal float64
	for _, p := range complete {
		w := *p.WeightLBS
		cal := float64(*p.Calories)
		if len(out) > 0 {
			prev := out[len(out)-1]
			days := daysBetween(prev.Date, p.Date)
			if days < 1 {
				days = 1
			}
			// Allow the bound to scale with the gap: a 3-day gap can
			// legitimately move more mass than a single day.
			if math.Abs(w-prev.WeightLBS)/prev.WeightLBS > maxDailySwingPct*float64(days) {
				excluded++
				continue
			}
			smoothed += ewmaAlpha * (w - smoothed)
			smoothedCal += ewmaAlpha * (cal - smoothedCal)
		} else {
			smoothed = w
			smoothedCal = cal
		}
		cp := conditionedPoint{
			Date:      p.Date,
			WeightLBS: w,
			Smoothed:  smoothed,
			Calories:  smoothedCal,
		}
		if p.Steps != nil {
			cp.Steps = float64(*p.Steps)
		}
		if p.WorkoutCalories != nil {
			cp.WorkoutCalories = float64(*p.WorkoutCalories)
		}
		out = append(out, cp)
	}
	return out, excluded
}

// buildRatePoints converts a conditioned series into (intake, change-rate)
// rows. The change over (i-1, i] is attributed to day i-1's intake and
// activity — yesterday's surplus shows up on this morning's scale.
func buildRatePoints(series []conditionedPoint) []ratePoint {
	if len(series) < 2 {
		return nil
	}
	out := make([]ratePoint, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		days := daysBetween(series[i-1].Date, series[i].Date)
		if days < 1 {
			days = 1
		}
		out = append(out, ratePoint{
			Date:            series[i].Date,
			WeightLBS:       series[i].Smoothed,
			Calories:        series[i-1].Calories,
			Steps:           series[i-1].Steps,
			WorkoutCalories: series[i-1].WorkoutCalories,
			Rate:            (series[i].Smoothed - series[i-1].Smoothed) / float64(days),
		})
	}
	return out
}

// daysBetween returns the whole-day difference between two dates.
func daysBetween(a, b DateOnly) int {
	return int(b.Time.Sub(a.Time).Hours() / 24)
}
