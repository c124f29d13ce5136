package main

import "testing"

// TestScoreScanConfidence covers the condition scoring: each favorable
// condition adds a point, recent training costs one, and the tier follows
// the total.
func TestScoreScanConfidence(t *testing.T) {
	cases := []struct {
		name string
		c    scanConditions
		want string
	}{
		{
			"ideal scan",
			scanConditions{Fasted: true, Morning: true, NormalHydration: true, RecentTraining: false, SameProvider: true},
			scanConfidenceHigh,
		},
		{
			"one deviation still high",
			scanConditions{Fasted: true, Morning: true, NormalHydration: true, RecentTraining: true, SameProvider: true},
			scanConfidenceHigh,
		},
		{
			"afternoon fed scan on same provider",
			scanConditions{Fasted: false, Morning: false, NormalHydration: true, RecentTraining: false, SameProvider: true},
			scanConfidenceMedium,
		},
		{
			"trained dehydrated new provider",
			scanConditions{Fasted: true, Morning: false, NormalHydration: false, RecentTraining: true, SameProvider: false},
			scanConfidenceLow,
		},
		{
			"everything wrong",
			scanConditions{RecentTraining: true},
			scanConfidenceLow,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := scoreScanConfidence(tc.c); got != tc.want {
				t.Errorf("confidence = %q, expected %q", got, tc.want)
			}
		})
	}
}

// TestScanDateTaken verifies the one-scan-per-day rule: a date already
// held by a prior scan is reported as a conflict, a free date is not.
func TestScanDateTaken(t *testing.T) {
	scans := []dexaScan{
		makeScan(0, 180, 45, 130, 5),
		makeScan(30, 176, 42, 129, 5),
	}
	if !scanDateTaken(scans, testDay(30).Format("2006-01-02")) {
		t.Error("expected the occupied date to be reported taken")
	}
	if scanDateTaken(scans, testDay(15).Format("2006-01-02")) {
		t.Error("expected a free date to pass")
	}
	if scanDateTaken(nil, testDay(0).Format("2006-01-02")) {
		t.Error("expected no conflict with no prior scans")
	}
}

// TestValidateScanMasses covers the ingestion gate: positivity and the
// fat + lean + bone ≈ total balance within tolerance.
func TestValidateScanMasses(t *testing.T) {
	valid := createScanRequest{TotalLBS: 180, FatLBS: 45, LeanLBS: 130, BoneLBS: 5}

	cases := []struct {
		name   string
		mutFn  func(r *createScanRequest)
		wantOK bool
	}{
		{"balanced scan", func(r *createScanRequest) {}, true},
		{"within tolerance", func(r *createScanRequest) { r.TotalLBS = 181.5 }, true},
		{"imbalanced", func(r *createScanRequest) { r.TotalLBS = 190 }, false},
		{"zero total", func(r *createScanRequest) { r.TotalLBS = 0 }, false},
		{"negative fat", func(r *createScanRequest) { r.FatLBS = -1 }, false},
		{"zero lean", func(r *createScanRequest) { r.LeanLBS = 0 }, false},
		{"zero bone balanced", func(r *createScanRequest) { r.BoneLBS = 0; r.TotalLBS = 176 }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := valid
			tc.mutFn(&r)
			msg, ok := validateScanMasses(r)
			if ok != tc.wantOK {
				t.Errorf("ok = %v (%q), expected %v", ok, msg, tc.wantOK)
			}
			if !ok && msg == "" {
				t.Error("rejection must carry a user-displayable message")
			}
		})
	}
}
