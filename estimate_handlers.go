package main

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// estimateResponse is the payload for GET /api/tdee/estimate and
// POST /api/tdee/recalculate. Estimate is null only when no anthropometrics
// exist and no regression was possible; Quality always describes the window.
type estimateResponse struct {
	Estimate             *tdeeEstimate    `json:"estimate"`
	Quality              dataQualityCheck `json:"quality"`
	Sync                 syncDecision     `json:"sync"`
	FormulaDivergencePct *float64         `json:"formula_divergence_pct,omitempty"`
}

// getEstimate recomputes, persists, and returns the user's current estimate.
// GET /api/tdee/estimate. Recomputation is cheap (O(window), tens of days),
// so reads recompute rather than serving a possibly stale row.
func (h *Handler) getEstimate(c *gin.Context) {
	h.computeAndRespond(c)
}

// recalculateEstimate is the explicit "recalculate" trigger.
// POST /api/tdee/recalculate. Identical computation to getEstimate — every
// trigger is a full recomputation from source records.
func (h *Handler) recalculateEstimate(c *gin.Context) {
	h.computeAndRespond(c)
}

func (h *Handler) computeAndRespond(c *gin.Context) {
	userID := c.GetInt("user_id")

	settings, err := queryOne[userSettings](h.db, c,
		"SELECT * FROM user_settings WHERE user_id = @userID",
		pgx.NamedArgs{"userID": userID})
	if err != nil {
		apiError(c, http.StatusNotFound, "settings not found")
		return
	}

	points, err := h.loadDailySeries(c, userID, defaultWindowDays)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to load daily series")
		return
	}
	quality := checkDataQuality(points, defaultWindowDays)

	prior, err := h.loadEstimate(c, userID)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to load prior estimate")
		return
	}

	today := DateOnly{time.Now().UTC().Truncate(24 * time.Hour)}
	est, ok := recomputeEstimate(points, settings, prior, today)
	if !ok {
		// No fit and no anthropometrics. Not an error: the quality check
		// tells the UI what to ask the user for.
		c.JSON(http.StatusOK, estimateResponse{
			Quality: quality,
			Sync:    decideTargetSync(nil, settings),
		})
		return
	}

	if err := h.upsertEstimate(c, userID, *est); err != nil {
		apiError(c, http.StatusInternalServerError, "failed to persist estimate")
		return
	}

	sync := decideTargetSync(est, settings)
	if sync.Updated {
		if _, err := h.db.Exec(c,
			"UPDATE user_settings SET calorie_target = @target WHERE user_id = @userID",
			pgx.NamedArgs{"target": sync.NewTarget, "userID": userID}); err != nil {
			apiError(c, http.StatusInternalServerError, "failed to sync calorie target")
			return
		}
	}
	h.notifyEstimateUpdated(c.Request.Context(), userID, *est, sync)

	resp := estimateResponse{Estimate: est, Quality: quality, Sync: sync}
	if div, ok := formulaDivergencePct(est, settings); ok {
		resp.FormulaDivergencePct = &div
	}
	c.JSON(http.StatusOK, resp)
}

// getRegressionAnalysis returns the per-day fitted values behind the current
// regression for visualization. Rebuilt on demand, never persisted.
// GET /api/tdee/analysis.
func (h *Handler) getRegressionAnalysis(c *gin.Context) {
	userID := c.GetInt("user_id")

	points, err := h.loadDailySeries(c, userID, defaultWindowDays)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to load daily series")
		return
	}
	analysis, ok := analyzeRegression(points)
	if !ok {
		apiError(c, http.StatusNotFound, "no regression fit available for the current window")
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// getWeightPredictions projects weight at the requested horizons under a
// target intake, from the persisted estimate — one estimate, many horizons.
// GET /api/tdee/predictions?calories=1800&horizons=7,30,90.
func (h *Handler) getWeightPredictions(c *gin.Context) {
	userID := c.GetInt("user_id")

	calories, err := strconv.ParseFloat(c.Query("calories"), 64)
	if err != nil || calories < 0 || calories > 20000 {
		apiError(c, http.StatusBadRequest, "calories must be a number between 0 and 20000")
		return
	}

	horizonsParam := c.DefaultQuery("horizons", "7,30,90")
	var horizons []int
	for _, part := range strings.Split(horizonsParam, ",") {
		d, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || d < 0 || d > 730 {
			apiError(c, http.StatusBadRequest, "horizons must be integers between 0 and 730")
			return
		}
		horizons = append(horizons, d)
	}

	est, err := h.loadEstimate(c, userID)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to load estimate")
		return
	}
	if est == nil {
		apiError(c, http.StatusNotFound, "no estimate available — recalculate first")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"target_calories": calories,
		"predictions":     predictWeights(*est, calories, horizons),
	})
}

// getDataQuality returns the quality gate's verdict on the current window
// for UI messaging. GET /api/tdee/quality.
func (h *Handler) getDataQuality(c *gin.Context) {
	userID := c.GetInt("user_id")

	points, err := h.loadDailySeries(c, userID, defaultWindowDays)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to load daily series")
		return
	}
	c.JSON(http.StatusOK, checkDataQuality(points, defaultWindowDays))
}
