package main

import "math"

// massBalanceToleranceLBS is how far fat + lean + bone may sit from the
// reported total before a scan is rejected at ingestion. Reconciled once at
// write time, never re-derived later.
const massBalanceToleranceLBS = 2.0

// scoreScanConfidence rates one scan's reliability from its measurement
// conditions. Fasted morning measurements at normal hydration on the same
// provider as last time score highest; a recent training session (glycogen
// and fluid shifts) and any deviation lower the score. Purely declarative —
// the masses themselves are never corrected, low scores are down-weighted
// in calibration instead.
func scoreScanConfidence(c scanConditions) string {
	score := 0
	if c.Fasted {
		score++
	}
	if c.Morning {
		score++
	}
	if c.NormalHydration {
		score++
	}
	if !c.RecentTraining {
		score++
	}
	if c.SameProvider {
		score++
	}
	switch {
	case score >= 4:
		return scanConfidenceHigh
	case score >= 2:
		return scanConfidenceMedium
	default:
		return scanConfidenceLow
	}
}

// scanDateTaken reports whether any existing scan already occupies the
// given YYYY-MM-DD date. Mirrors the (user_id, scan_date) uniqueness the
// store enforces so the handler can answer with a conflict instead of a
// storage error.
func scanDateTaken(scans []dexaScan, date string) bool {
	for _, s := range scans {
		if s.ScanDate.Format("2006-01-02") == date {
			return true
		}
	}
	return false
}

// validateScanMasses checks a scan request at the boundary: all masses
// positive, finite, and balancing (fat + lean + bone ≈ total). Returns a
// user-displayable message on failure.
func validateScanMasses(r createScanRequest) (string, bool) {
	if !isFiniteAll(r.TotalLBS, r.FatLBS, r.LeanLBS, r.BoneLBS) {
		return "scan masses must be finite numbers", false
	}
	if r.TotalLBS <= 0 || r.FatLBS < 0 || r.LeanLBS <= 0 || r.BoneLBS < 0 {
		return "scan masses must be positive", false
	}
	if math.Abs(r.FatLBS+r.LeanLBS+r.BoneLBS-r.TotalLBS) > massBalanceToleranceLBS {
		return "fat + lean + bone must match total mass", false
	}
	return "", true
}
