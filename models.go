package main

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// DateOnly wraps time.Time to serialize as "YYYY-MM-DD" in JSON.
type DateOnly struct{ time.Time }

func (d DateOnly) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time.Format("2006-01-02") + `"`), nil
}

func (d *DateOnly) UnmarshalJSON(b []byte) error {
	t, err := time.Parse(`"2006-01-02"`, string(b))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ScanDate implements pgtype.DateScanner so pgx can scan PostgreSQL date
// columns (OID 1082) into DateOnly. NULL values zero the time and return nil
// so that *DateOnly pointer fields can be set to nil by pgx's NULL handling.
func (d *DateOnly) ScanDate(v pgtype.Date) error {
	if !v.Valid {
		d.Time = time.Time{}
		return nil
	}
	d.Time = v.Time
	return nil
}

/* ─── Confidence tiers ───────────────────────────────────────────────── */

// Ordinal confidence classification for adaptive estimates. Stored as text;
// the numeric rank is only used for "at least stabilizing" comparisons.
const (
	confidenceUnstable    = "unstable"
	confidenceStabilizing = "stabilizing"
	confidenceStable      = "stable"
)

// confidenceRank maps tiers to an ordinal so the selector can compare them.
var confidenceRank = map[string]int{
	confidenceUnstable:    0,
	confidenceStabilizing: 1,
	confidenceStable:      2,
}

// Estimate sources. Regression covers both the baseline and the
// activity-augmented fit; the distinction lives in enhanced-only fields.
const (
	sourceRegression = "regression"
	sourceFormula    = "formula"
)

/* ─── Daily series ───────────────────────────────────────────────────── */

// dailyDataPoint is one day of merged weight/intake/activity data as
// assembled from weight_log and daily_log. Immutable once handed to the
// estimators. WeightLBS and Calories use pointers because either half of
// a day can be missing.
type dailyDataPoint struct {
	Date            DateOnly `json:"date" db:"date"`
	WeightLBS       *float64 `json:"weight_lbs" db:"weight_lbs"`
	Calories        *int     `json:"calories" db:"calories"`
	IsComplete      bool     `json:"is_complete" db:"is_complete"`
	Steps           *int     `json:"steps" db:"steps"`
	WorkoutCalories *int     `json:"workout_calories" db:"workout_calories"`
}

// complete reports whether the day is usable for regression: both mass and
// calories present, and the food log marked complete (a half-logged day
// understates intake and poisons the fit).
func (p dailyDataPoint) complete() bool {
	return p.WeightLBS != nil && p.Calories != nil && p.IsComplete
}

// weightEntry maps to the weight_log table. Weights are stored in pounds;
// the unit tag is consumed (and validated) at write time only.
type weightEntry struct {
	ID        int        `json:"id" db:"id"`
	UserID    int        `json:"user_id" db:"user_id"`
	Date      DateOnly   `json:"date" db:"date"`
	WeightLBS float64    `json:"weight_lbs" db:"weight_lbs"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
}

// dailyLogEntry maps to the daily_log table: one row per (user, date) with
// intake and activity totals supplied by the ingestion collaborator.
type dailyLogEntry struct {
	ID              int        `json:"id" db:"id"`
	UserID          int        `json:"user_id" db:"user_id"`
	Date            DateOnly   `json:"date" db:"date"`
	Calories        int        `json:"calories" db:"calories"`
	IsComplete      bool       `json:"is_complete" db:"is_complete"`
	Steps           *int       `json:"steps" db:"steps"`
	WorkoutCalories *int       `json:"workout_calories" db:"workout_calories"`
	CreatedAt       *time.Time `json:"created_at" db:"created_at"`
}

// dataQualityCheck is the quality gate's verdict on a window of daily data.
// ReasonCodes carries every applicable issue, not just the first.
type dataQualityCheck struct {
	Sufficient  bool     `json:"sufficient"`
	ReasonCodes []string `json:"reason_codes"`
}

// Quality gate reason codes.
const (
	reasonTooFewPoints    = "too_few_points"
	reasonTooSparse       = "too_sparse"
	reasonNoCalorieSignal = "no_calorie_signal"
	reasonTooNoisy        = "too_noisy"
)

/* ─── TDEE estimates ─────────────────────────────────────────────────── */

// tdeeSnapshot is one (date, TDEE) entry in an estimate's rolling history.
type tdeeSnapshot struct {
	Date DateOnly `json:"date"`
	TDEE float64  `json:"tdee"`
}

// tdeeEstimate is the persisted adaptive (or formula-fallback) estimate.
// One live row per user; History is retained inline as JSONB.
type tdeeEstimate struct {
	BurnRatePerLB   float64        `json:"burn_rate_per_lb"`
	EstimatedTDEE   float64        `json:"estimated_tdee"`
	CurrentWeight   float64        `json:"current_weight"`
	Confidence      string         `json:"confidence"`
	ConfidenceScore float64        `json:"confidence_score"`
	StandardError   float64        `json:"standard_error"`
	DataPointsUsed  int            `json:"data_points_used"`
	WindowDays      int            `json:"window_days"`
	Source          string         `json:"source"`
	History         []tdeeSnapshot `json:"estimate_history"`

	// Enhanced-only fields, populated when the activity-augmented fit
	// converged. Nil pointers mean the estimate came from the baseline
	// regression or the formula.
	BaseBurnRate       *float64 `json:"base_burn_rate,omitempty"`
	StepBurnRate       *float64 `json:"step_burn_rate,omitempty"`
	WorkoutMultiplier  *float64 `json:"workout_multiplier,omitempty"`
	AvgSteps           *float64 `json:"avg_steps,omitempty"`
	AvgWorkoutCalories *float64 `json:"avg_workout_calories,omitempty"`
}

// enhanced reports whether the estimate carries activity-augmented parameters.
func (e tdeeEstimate) enhanced() bool { return e.BaseBurnRate != nil }

// regressionPoint is one fitted day in a regressionAnalysis.
type regressionPoint struct {
	Date          DateOnly `json:"date"`
	WeightLBS     float64  `json:"weight_lbs"`
	Calories      float64  `json:"calories"`
	ActualRate    float64  `json:"actual_change_rate"`
	PredictedRate float64  `json:"predicted_change_rate"`
}

// regressionAnalysis explains a regression-sourced estimate for
// visualization. Rebuilt on demand; never persisted on its own.
type regressionAnalysis struct {
	Points        []regressionPoint `json:"data_points"`
	BurnRatePerLB float64           `json:"burn_rate_per_lb"`
	EstimatedTDEE float64           `json:"estimated_tdee"`
	RSquared      float64           `json:"r_squared"`
	StandardError float64           `json:"standard_error"`
	CurrentWeight float64           `json:"current_weight"`
}

// weightPrediction is a projected weight at one horizon with an
// uncertainty band. Pure function output, not a durable entity.
type weightPrediction struct {
	HorizonDays     int     `json:"horizon_days"`
	PredictedWeight float64 `json:"predicted_weight"`
	LowerBound      float64 `json:"lower_bound"`
	UpperBound      float64 `json:"upper_bound"`
}

// syncDecision records whether a recompute was allowed to overwrite the
// user's calorie target, and why. Returned alongside every fresh estimate
// so the UI can explain target changes (or the lack of one).
type syncDecision struct {
	Updated   bool   `json:"updated"`
	Reason    string `json:"reason"`
	OldTarget int    `json:"old_target"`
	NewTarget int    `json:"new_target"`
}

/* ─── User profile / settings ────────────────────────────────────────── */

// userSettings maps to the user_settings table: anthropometrics, activity
// class, and the user-facing calorie target the sync contract guards.
// Profile fields are nullable; zero-knowledge rows still work.
type userSettings struct {
	UserID        int       `json:"user_id"        db:"user_id"`
	CalorieTarget int       `json:"calorie_target" db:"calorie_target"`
	Sex           *string   `json:"sex"            db:"sex"`
	DateOfBirth   *DateOnly `json:"date_of_birth"  db:"date_of_birth"`
	HeightCM      *float64  `json:"height_cm"      db:"height_cm"`
	WeightLBS     *float64  `json:"weight_lbs"     db:"weight_lbs"`
	BodyFatPct    *float64  `json:"body_fat_pct"   db:"body_fat_pct"`
	ActivityLevel *string   `json:"activity_level" db:"activity_level"`

	// Training profile used by the formula activity bump and the P-ratio model.
	WorkoutsPerWeek   int     `json:"workouts_per_week"   db:"workouts_per_week"`
	AvgWorkoutMinutes int     `json:"avg_workout_minutes" db:"avg_workout_minutes"`
	WorkoutIntensity  float64 `json:"workout_intensity"   db:"workout_intensity"`
	TrainingAgeYears  float64 `json:"training_age_years"  db:"training_age_years"`
	IsEnhanced        bool    `json:"is_enhanced"         db:"is_enhanced"`

	TargetSyncAuto bool `json:"target_sync_auto" db:"target_sync_auto"`
}

// user maps to the users table. AuthToken and Password are hidden from JSON.
type user struct {
	ID        int        `json:"id" db:"id"`
	Username  string     `json:"username" db:"username"`
	Email     string     `json:"email" db:"email"`
	AuthToken string     `json:"-" db:"auth_token"`
	Password  string     `json:"-" db:"password"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
	LastLogin *time.Time `json:"-" db:"last_login"`
}

/* ─── Body composition ───────────────────────────────────────────────── */

// scanConditions are the measurement circumstances of one DEXA scan,
// scored (never corrected) by scoreScanConfidence.
type scanConditions struct {
	Fasted          bool `json:"fasted"`
	Morning         bool `json:"morning"`
	NormalHydration bool `json:"normal_hydration"`
	RecentTraining  bool `json:"recent_training"`
	SameProvider    bool `json:"same_provider"`
}

// dexaScan is one body-composition measurement. Immutable after creation;
// ordered by ScanDate for calibration. Mass balance (fat + lean + bone ≈
// total) is reconciled once at ingestion.
type dexaScan struct {
	ID         string         `json:"id" db:"id"`
	UserID     int            `json:"-" db:"user_id"`
	ScanDate   DateOnly       `json:"scan_date" db:"scan_date"`
	TotalLBS   float64        `json:"total_lbs" db:"total_lbs"`
	FatLBS     float64        `json:"fat_lbs" db:"fat_lbs"`
	LeanLBS    float64        `json:"lean_lbs" db:"lean_lbs"`
	BoneLBS    float64        `json:"bone_lbs" db:"bone_lbs"`
	BodyFatPct float64        `json:"body_fat_pct" db:"body_fat_pct"`
	Conditions scanConditions `json:"conditions" db:"conditions"`
	IsBaseline bool           `json:"is_baseline" db:"is_baseline"`
	Confidence string         `json:"confidence" db:"confidence"`
	Provider   string         `json:"provider" db:"provider"`
	CreatedAt  *time.Time     `json:"created_at" db:"created_at"`
}

// Scan confidence levels.
const (
	scanConfidenceLow    = "low"
	scanConfidenceMedium = "medium"
	scanConfidenceHigh   = "high"
)

// pRatioInputs are the covariates the partition model modulates the
// population baseline with. DeficitPct describes the *planned* daily
// deficit the prediction is for, as a fraction of TDEE (negative = surplus).
type pRatioInputs struct {
	ProteinGPerLB    float64 `json:"protein_g_per_lb"`
	WeeklySets       float64 `json:"weekly_sets"`
	DeficitPct       float64 `json:"deficit_pct"`
	BodyFatPct       float64 `json:"body_fat_pct"`
	LeanMassLBS      float64 `json:"lean_mass_lbs"`
	TrainingAgeYears float64 `json:"training_age_years"`
	IsEnhanced       bool    `json:"is_enhanced"`
	Sex              string  `json:"sex"`
}

// pRatioObservation is one measured partition ratio between two
// consecutive scans, with the weight the calibration gave it.
type pRatioObservation struct {
	FromDate DateOnly `json:"from_date"`
	ToDate   DateOnly `json:"to_date"`
	PRatio   float64  `json:"p_ratio"`
	Weight   float64  `json:"weight"`
}

// bodyCompProfile is the persisted per-user calibration state, rebuilt on
// every scan insert/delete.
type bodyCompProfile struct {
	UserID           int                 `json:"user_id" db:"user_id"`
	LearnedPRatio    float64             `json:"learned_p_ratio" db:"learned_p_ratio"`
	PRatioConfidence float64             `json:"p_ratio_confidence" db:"p_ratio_confidence"`
	PRatioDataPoints int                 `json:"p_ratio_data_points" db:"p_ratio_data_points"`
	Observations     []pRatioObservation `json:"observations" db:"observations"`
	UpdatedAt        *time.Time          `json:"updated_at" db:"updated_at"`
}

// massRange is a predicted value with its uncertainty band.
type massRange struct {
	Value float64 `json:"value"`
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
}

// bodyCompPrediction is a what-if fat/lean forecast for a target weight at
// a target date. At most one active prediction per user is retained for
// back-testing against the next scan.
type bodyCompPrediction struct {
	TargetDate      DateOnly  `json:"target_date"`
	TargetWeightLBS float64   `json:"target_weight_lbs"`
	PRatioUsed      float64   `json:"p_ratio_used"`
	FatLBS          massRange `json:"fat_lbs"`
	LeanLBS         massRange `json:"lean_lbs"`
	BodyFatPct      massRange `json:"body_fat_pct"`
	ConfidenceLevel string    `json:"confidence_level"`
	Factors         []string  `json:"confidence_factors"`
	Assumptions     string    `json:"assumptions"`
}

/* ─── Request bodies ─────────────────────────────────────────────────── */

// upsertWeightRequest is the body for POST /api/weight-log. Unit is
// mandatory: ambiguous weights are a data-entry defect, never inferred.
type upsertWeightRequest struct {
	Date   string  `json:"date"`
	Weight float64 `json:"weight"`
	Unit   string  `json:"unit"` // "lb" or "kg"
}

// upsertDailyLogRequest is the body for POST /api/daily-log.
type upsertDailyLogRequest struct {
	Date            string `json:"date"`
	Calories        int    `json:"calories"`
	IsComplete      bool   `json:"is_complete"`
	Steps           *int   `json:"steps"`
	WorkoutCalories *int   `json:"workout_calories"`
}

// createScanRequest is the body for POST /api/scans.
type createScanRequest struct {
	ScanDate   string         `json:"scan_date"`
	TotalLBS   float64        `json:"total_lbs"`
	FatLBS     float64        `json:"fat_lbs"`
	LeanLBS    float64        `json:"lean_lbs"`
	BoneLBS    float64        `json:"bone_lbs"`
	Conditions scanConditions `json:"conditions"`
	Provider   string         `json:"provider"`
}

// predictBodyCompRequest is the body for POST /api/bodycomp/predict.
type predictBodyCompRequest struct {
	TargetDate      string  `json:"target_date"`
	TargetWeightLBS float64 `json:"target_weight_lbs"`
	ProteinGPerDay  float64 `json:"protein_g_per_day"`
	WeeklySets      float64 `json:"weekly_sets"`
}

// patchUserSettingsRequest is the body for PATCH /api/user-settings.
// All fields are pointers — only non-nil fields get written.
type patchUserSettingsRequest struct {
	CalorieTarget     *int     `json:"calorie_target"`
	Sex               *string  `json:"sex"`
	DateOfBirth       *string  `json:"date_of_birth"` // YYYY-MM-DD string, stored as date
	HeightCM          *float64 `json:"height_cm"`
	WeightLBS         *float64 `json:"weight_lbs"`
	BodyFatPct        *float64 `json:"body_fat_pct"`
	ActivityLevel     *string  `json:"activity_level"`
	WorkoutsPerWeek   *int     `json:"workouts_per_week"`
	AvgWorkoutMinutes *int     `json:"avg_workout_minutes"`
	WorkoutIntensity  *float64 `json:"workout_intensity"`
	TrainingAgeYears  *float64 `json:"training_age_years"`
	IsEnhanced        *bool    `json:"is_enhanced"`
	TargetSyncAuto    *bool    `json:"target_sync_auto"`
}
