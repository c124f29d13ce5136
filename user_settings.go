package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// getUserSettings returns the profile/settings row for the authenticated
// user, with the formula TDEE attached when anthropometrics allow it.
// GET /api/user-settings.
func (h *Handler) getUserSettings(c *gin.Context) {
	userID := c.GetInt("user_id")

	s, err := queryOne[userSettings](h.db, c,
		"SELECT * FROM user_settings WHERE user_id = @userID",
		pgx.NamedArgs{"userID": userID})
	if err != nil {
		apiError(c, http.StatusNotFound, "settings not found")
		return
	}

	resp := gin.H{"settings": s}
	if formula, ok := estimateFormula(s); ok {
		resp["formula_tdee"] = formula.EstimatedTDEE
	}
	c.JSON(http.StatusOK, resp)
}

// patchUserSettings updates only the provided settings fields.
// PATCH /api/user-settings. Uses pointer fields in the request body to
// distinguish "not provided" from zero — only non-nil fields get updated.
func (h *Handler) patchUserSettings(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body patchUserSettingsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	// Validate enums and ranges before saving — a bad activity_level
	// silently breaks every future formula estimate with no visible error.
	if body.ActivityLevel != nil {
		if _, ok := activityMultipliers[*body.ActivityLevel]; !ok {
			apiError(c, http.StatusBadRequest, "activity_level must be one of: sedentary, light, moderate, active, very_active")
			return
		}
	}
	if body.Sex != nil && *body.Sex != "male" && *body.Sex != "female" {
		apiError(c, http.StatusBadRequest, `sex must be "male" or "female"`)
		return
	}
	if body.DateOfBirth != nil {
		if _, err := time.Parse("2006-01-02", *body.DateOfBirth); err != nil {
			apiError(c, http.StatusBadRequest, "invalid date_of_birth, expected YYYY-MM-DD")
			return
		}
	}
	if body.HeightCM != nil && (*body.HeightCM < 50 || *body.HeightCM > 272) {
		apiError(c, http.StatusBadRequest, "height_cm out of plausible range")
		return
	}
	if body.WeightLBS != nil && (*body.WeightLBS < minWeightLBS || *body.WeightLBS > maxWeightLBS) {
		apiError(c, http.StatusBadRequest, "weight_lbs out of plausible range")
		return
	}
	if body.BodyFatPct != nil && (*body.BodyFatPct <= 0 || *body.BodyFatPct >= 100) {
		apiError(c, http.StatusBadRequest, "body_fat_pct must be between 0 and 100")
		return
	}
	if body.CalorieTarget != nil && (*body.CalorieTarget < 0 || *body.CalorieTarget > 20000) {
		apiError(c, http.StatusBadRequest, "calorie_target must be between 0 and 20000")
		return
	}

	// Build SET clause dynamically — only update fields the client actually sent
	setClauses := []string{}
	args := pgx.NamedArgs{"userID": userID}

	addSet := func(column, param string, value any) {
		setClauses = append(setClauses, column+" = @"+param)
		args[param] = value
	}

	if body.CalorieTarget != nil {
		addSet("calorie_target", "calorieTarget", *body.CalorieTarget)
	}
	if body.Sex != nil {
		addSet("sex", "sex", *body.Sex)
	}
	if body.DateOfBirth != nil {
		addSet("date_of_birth", "dateOfBirth", *body.DateOfBirth)
	}
	if body.HeightCM != nil {
		addSet("height_cm", "heightCM", *body.HeightCM)
	}
	if body.WeightLBS != nil {
		addSet("weight_lbs", "weightLBS", *body.WeightLBS)
	}
	if body.BodyFatPct != nil {
		addSet("body_fat_pct", "bodyFatPct", *body.BodyFatPct)
	}
	if body.ActivityLevel != nil {
		addSet("activity_level", "activityLevel", *body.ActivityLevel)
	}
	if body.WorkoutsPerWeek != nil {
		addSet("workouts_per_week", "workoutsPerWeek", *body.WorkoutsPerWeek)
	}
	if body.AvgWorkoutMinutes != nil {
		addSet("avg_workout_minutes", "avgWorkoutMinutes", *body.AvgWorkoutMinutes)
	}
	if body.WorkoutIntensity != nil {
		addSet("workout_intensity", "workoutIntensity", *body.WorkoutIntensity)
	}
	if body.TrainingAgeYears != nil {
		addSet("training_age_years", "trainingAgeYears", *body.TrainingAgeYears)
	}
	if body.IsEnhanced != nil {
		addSet("is_enhanced", "isEnhanced", *body.IsEnhanced)
	}
	if body.TargetSyncAuto != nil {
		addSet("target_sync_auto", "targetSyncAuto", *body.TargetSyncAuto)
	}

	if len(setClauses) == 0 {
		apiError(c, http.StatusBadRequest, "no fields to update")
		return
	}

	query := "UPDATE user_settings SET " +
		strings.Join(setClauses, ", ") +
		" WHERE user_id = @userID RETURNING *"

	s, err := queryOne[userSettings](h.db, c, query, args)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to update settings")
		return
	}

	c.JSON(http.StatusOK, s)
}
