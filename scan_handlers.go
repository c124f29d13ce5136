package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// listScans returns the user's DEXA scans ordered by scan date.
// GET /api/scans.
func (h *Handler) listScans(c *gin.Context) {
	userID := c.GetInt("user_id")

	scans, err := h.loadScans(c, userID)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch scans")
		return
	}
	c.JSON(http.StatusOK, scans)
}

// createScan ingests one body-composition scan: masses are reconciled at
// the boundary, confidence is scored from measurement conditions, and the
// calibration profile is rebuilt from the full scan list.
// POST /api/scans.
func (h *Handler) createScan(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body createScanRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.ScanDate == "" {
		apiError(c, http.StatusBadRequest, "scan_date is required")
		return
	}
	if _, err := time.Parse("2006-01-02", body.ScanDate); err != nil {
		apiError(c, http.StatusBadRequest, "invalid scan_date, expected YYYY-MM-DD")
		return
	}
	if msg, ok := validateScanMasses(body); !ok {
		apiError(c, http.StatusBadRequest, msg)
		return
	}

	prior, err := h.loadScans(c, userID)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch scans")
		return
	}
	// One scan per calendar day; a retake replaces via delete-and-create.
	if scanDateTaken(prior, body.ScanDate) {
		apiError(c, http.StatusConflict, "a scan already exists for this date")
		return
	}

	// Same-provider is derived server-side against the most recent prior
	// scan; a baseline scan has nothing to deviate from.
	conditions := body.Conditions
	if len(prior) == 0 {
		conditions.SameProvider = true
	} else {
		conditions.SameProvider = prior[len(prior)-1].Provider == body.Provider
	}

	scan := dexaScan{
		ID:         uuid.New().String(),
		UserID:     userID,
		TotalLBS:   body.TotalLBS,
		FatLBS:     body.FatLBS,
		LeanLBS:    body.LeanLBS,
		BoneLBS:    body.BoneLBS,
		BodyFatPct: body.FatLBS / body.TotalLBS * 100,
		Conditions: conditions,
		IsBaseline: len(prior) == 0,
		Confidence: scoreScanConfidence(conditions),
		Provider:   body.Provider,
	}

	created, err := queryOne[dexaScan](h.db, c,
		`INSERT INTO dexa_scans
			(id, user_id, scan_date, total_lbs, fat_lbs, lean_lbs, bone_lbs,
			 body_fat_pct, conditions, is_baseline, confidence, provider)
		 VALUES
			(@id, @userID, @scanDate, @totalLBS, @fatLBS, @leanLBS, @boneLBS,
			 @bodyFatPct, @conditions::jsonb, @isBaseline, @confidence, @provider)
		 RETURNING *`,
		pgx.NamedArgs{
			"id": scan.ID, "userID": userID, "scanDate": body.ScanDate,
			"totalLBS": scan.TotalLBS, "fatLBS": scan.FatLBS,
			"leanLBS": scan.LeanLBS, "boneLBS": scan.BoneLBS,
			"bodyFatPct": scan.BodyFatPct, "conditions": toJSON(conditions),
			"isBaseline": scan.IsBaseline, "confidence": scan.Confidence,
			"provider": scan.Provider,
		})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to create scan")
		return
	}

	profile, err := h.recalibrateBodyComp(c, userID)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to recalibrate body composition")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"scan": created, "profile": profile})
}

// deleteScan removes a scan and rebuilds the calibration profile without it.
// DELETE /api/scans/:id.
func (h *Handler) deleteScan(c *gin.Context) {
	userID := c.GetInt("user_id")
	id := c.Param("id")

	result, err := h.db.Exec(c,
		"DELETE FROM dexa_scans WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": id, "userID": userID})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to delete scan")
		return
	}
	if result.RowsAffected() == 0 {
		apiError(c, http.StatusNotFound, "scan not found")
		return
	}

	if _, err := h.recalibrateBodyComp(c, userID); err != nil {
		apiError(c, http.StatusInternalServerError, "failed to recalibrate body composition")
		return
	}

	c.Status(http.StatusNoContent)
}

// getBodyCompProfile returns the user's calibration state.
// GET /api/bodycomp/profile.
func (h *Handler) getBodyCompProfile(c *gin.Context) {
	userID := c.GetInt("user_id")

	profile, err := h.loadBodyCompProfile(c, userID)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch body composition profile")
		return
	}
	c.JSON(http.StatusOK, profile)
}

// predictBodyCompForTarget answers a what-if: fat/lean/body-fat% at a target
// weight on a target date, from the blended P-ratio. The result is retained
// as the user's single active prediction for back-testing.
// POST /api/bodycomp/predict.
func (h *Handler) predictBodyCompForTarget(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body predictBodyCompRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	targetDate, err := time.Parse("2006-01-02", body.TargetDate)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid target_date, expected YYYY-MM-DD")
		return
	}
	days := int(time.Until(targetDate).Hours() / 24)
	if days < 1 {
		apiError(c, http.StatusBadRequest, "target_date must be in the future")
		return
	}
	if body.TargetWeightLBS < minWeightLBS || body.TargetWeightLBS > maxWeightLBS {
		apiError(c, http.StatusBadRequest, "target_weight_lbs out of plausible range")
		return
	}
	if body.ProteinGPerDay < 0 || body.WeeklySets < 0 {
		apiError(c, http.StatusBadRequest, "protein_g_per_day and weekly_sets must be non-negative")
		return
	}

	settings, err := queryOne[userSettings](h.db, c,
		"SELECT * FROM user_settings WHERE user_id = @userID",
		pgx.NamedArgs{"userID": userID})
	if err != nil {
		apiError(c, http.StatusNotFound, "settings not found")
		return
	}

	scans, err := h.loadScans(c, userID)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch scans")
		return
	}
	if len(scans) == 0 {
		apiError(c, http.StatusNotFound, "no scans recorded — a baseline scan is required for body composition predictions")
		return
	}
	latest := scans[len(scans)-1]

	profile, err := h.loadBodyCompProfile(c, userID)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch body composition profile")
		return
	}

	// Current weight and TDEE anchor the deficit covariate. Best available
	// source wins: persisted estimate, then formula, then the scan itself.
	currentWeight := latest.TotalLBS
	tdee := 0.0
	if est, err := h.loadEstimate(c, userID); err == nil && est != nil {
		if est.CurrentWeight > 0 {
			currentWeight = est.CurrentWeight
		}
		tdee = est.EstimatedTDEE
	} else if f, ok := estimateFormula(settings); ok {
		tdee = f.EstimatedTDEE
	}

	deficitPct := 0.0
	if tdee > 0 {
		dailyRate := (body.TargetWeightLBS - currentWeight) / float64(days)
		deficitPct = -dailyRate * energyPerLB / tdee
	}

	sex := ""
	if settings.Sex != nil {
		sex = *settings.Sex
	}
	inputs := pRatioInputs{
		ProteinGPerLB:    body.ProteinGPerDay / currentWeight,
		WeeklySets:       body.WeeklySets,
		DeficitPct:       deficitPct,
		BodyFatPct:       latest.BodyFatPct,
		LeanMassLBS:      latest.LeanLBS,
		TrainingAgeYears: settings.TrainingAgeYears,
		IsEnhanced:       settings.IsEnhanced,
		Sex:              sex,
	}

	pred := predictBodyComp(latest, profile, inputs, currentWeight, body.TargetWeightLBS,
		DateOnly{targetDate})
	if err := h.saveActivePrediction(c, userID, pred); err != nil {
		apiError(c, http.StatusInternalServerError, "failed to save prediction")
		return
	}

	c.JSON(http.StatusOK, pred)
}
