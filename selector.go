package main

import "math"

// maxHistoryEntries bounds the inline (date, TDEE) history kept on the
// persisted estimate. Old entries roll off; 90 covers a quarter of drift
// display.
const maxHistoryEntries = 90

// Minimum meaningful divergence before an authoritative estimate is allowed
// to overwrite the user's calorie target.
const syncThresholdCalories = 50

// estimatorStrategy is one rung of the priority-ordered fallback chain.
// Every estimator exposes the same attempt contract: a result or a decline,
// never an error. Adding a future estimator (sleep, heart rate) means adding
// a rung, not another branch.
type estimatorStrategy struct {
	Name    string
	Attempt func(points []dailyDataPoint, settings userSettings) (*tdeeEstimate, bool)
}

// estimatorChain returns the strategies in priority order:
// activity-augmented, baseline regression, closed-form formula.
func estimatorChain() []estimatorStrategy {
	return []estimatorStrategy{
		{Name: "enhanced", Attempt: estimateEnhanced},
		{Name: "baseline", Attempt: estimateBaseline},
		{Name: "formula", Attempt: func(_ []dailyDataPoint, s userSettings) (*tdeeEstimate, bool) {
			return estimateFormula(s)
		}},
	}
}

// selectEstimate evaluates the chain in order and returns the first adaptive
// estimate that reached at least stabilizing confidence. When none qualifies
// the highest-priority successful attempt is returned instead (a degenerate
// baseline already carries the formula TDEE as its numeric value), so the
// caller is always handed *some* estimate when anthropometrics exist.
func selectEstimate(points []dailyDataPoint, settings userSettings) (*tdeeEstimate, bool) {
	var fallback *tdeeEstimate
	for _, s := range estimatorChain() {
		est, ok := s.Attempt(points, settings)
		if !ok {
			continue
		}
		if est.Source == sourceRegression && atLeastStabilizing(est.Confidence) {
			return est, true
		}
		if fallback == nil {
			fallback = est
		}
	}
	if fallback != nil {
		return fallback, true
	}
	return nil, false
}

// formulaDivergencePct measures how far an adaptive estimate sits from the
// formula anchor, as a fraction of the formula value. Large divergence is
// informative (the user is not the population average), not an error.
func formulaDivergencePct(est *tdeeEstimate, settings userSettings) (float64, bool) {
	if est == nil || est.Source != sourceRegression {
		return 0, false
	}
	formula, ok := estimateFormula(settings)
	if !ok || formula.EstimatedTDEE <= 0 {
		return 0, false
	}
	return (est.EstimatedTDEE - formula.EstimatedTDEE) / formula.EstimatedTDEE, true
}

// appendSnapshot adds one (date, TDEE) entry to a bounded history. A
// same-date recompute replaces the existing entry instead of duplicating it,
// which keeps recomputation idempotent.
func appendSnapshot(history []tdeeSnapshot, date DateOnly, tdee float64) []tdeeSnapshot {
	day := date.Time.Format("2006-01-02")
	for i, h := range history {
		if h.Date.Time.Format("2006-01-02") == day {
			out := make([]tdeeSnapshot, len(history))
			copy(out, history)
			out[i].TDEE = tdee
			return out
		}
	}
	out := append(append([]tdeeSnapshot{}, history...), tdeeSnapshot{Date: date, TDEE: tdee})
	if len(out) > maxHistoryEntries {
		out = out[len(out)-maxHistoryEntries:]
	}
	return out
}

// recomputeEstimate is the engine's top-level entry: run the chain, then
// fold the prior estimate's history forward with today's snapshot. Always a
// full recomputation from the source window — no incremental state besides
// the history itself.
func recomputeEstimate(points []dailyDataPoint, settings userSettings, prior *tdeeEstimate, today DateOnly) (*tdeeEstimate, bool) {
	est, ok := selectEstimate(points, settings)
	if !ok {
		return nil, false
	}
	var history []tdeeSnapshot
	if prior != nil {
		history = prior.History
	}
	est.History = appendSnapshot(history, today, est.EstimatedTDEE)
	return est, true
}

// Sync decision reasons.
const (
	syncReasonUpdated        = "target_updated"
	syncReasonAutoDisabled   = "auto_sync_disabled"
	syncReasonNotStable      = "confidence_not_stable"
	syncReasonBelowThreshold = "divergence_below_threshold"
)

// decideTargetSync applies the auto-sync contract: only a stable estimate
// may overwrite the active calorie target, and only when it meaningfully
// diverges from it. A stabilizing estimate informs the user but never
// silently changes targets.
func decideTargetSync(est *tdeeEstimate, settings userSettings) syncDecision {
	d := syncDecision{OldTarget: settings.CalorieTarget, NewTarget: settings.CalorieTarget}
	if !settings.TargetSyncAuto {
		d.Reason = syncReasonAutoDisabled
		return d
	}
	if est == nil || est.Source != sourceRegression || est.Confidence != confidenceStable {
		d.Reason = syncReasonNotStable
		return d
	}
	proposed := int(math.Round(est.EstimatedTDEE))
	if abs(proposed-settings.CalorieTarget) < syncThresholdCalories {
		d.Reason = syncReasonBelowThreshold
		return d
	}
	d.Updated = true
	d.Reason = syncReasonUpdated
	d.NewTarget = proposed
	return d
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
