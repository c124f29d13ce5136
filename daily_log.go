package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// getDailyLog returns intake/activity rows for the authenticated user within
// [start, end]. GET /api/daily-log?start=YYYY-MM-DD&end=YYYY-MM-DD.
func (h *Handler) getDailyLog(c *gin.Context) {
	userID := c.GetInt("user_id")
	start := c.Query("start")
	end := c.Query("end")

	if start == "" || end == "" {
		apiError(c, http.StatusBadRequest, "start and end query params are required")
		return
	}
	if _, err := time.Parse("2006-01-02", start); err != nil {
		apiError(c, http.StatusBadRequest, "invalid start, expected YYYY-MM-DD")
		return
	}
	if _, err := time.Parse("2006-01-02", end); err != nil {
		apiError(c, http.StatusBadRequest, "invalid end, expected YYYY-MM-DD")
		return
	}
	if start > end {
		apiError(c, http.StatusBadRequest, "start must not be after end")
		return
	}

	entries, err := queryMany[dailyLogEntry](h.db, c,
		`SELECT * FROM daily_log
		 WHERE user_id = @userID AND date >= @start AND date <= @end
		 ORDER BY date ASC`,
		pgx.NamedArgs{"userID": userID, "start": start, "end": end})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch daily log")
		return
	}
	if entries == nil {
		entries = []dailyLogEntry{}
	}

	c.JSON(http.StatusOK, entries)
}

// upsertDailyLogEntry creates or replaces the intake/activity row for a date.
// POST /api/daily-log. This is the stand-in for the external ingestion
// pipeline: the food/step/workout collaborators post normalized daily totals
// here and the engine recomputes from them on the next trigger.
func (h *Handler) upsertDailyLogEntry(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body upsertDailyLogRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Date == "" {
		apiError(c, http.StatusBadRequest, "date is required")
		return
	}
	if _, err := time.Parse("2006-01-02", body.Date); err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	if body.Calories < 0 || body.Calories > 20000 {
		apiError(c, http.StatusBadRequest, "calories must be between 0 and 20000")
		return
	}
	if body.Steps != nil && (*body.Steps < 0 || *body.Steps > 200000) {
		apiError(c, http.StatusBadRequest, "steps must be between 0 and 200000")
		return
	}
	if body.WorkoutCalories != nil && (*body.WorkoutCalories < 0 || *body.WorkoutCalories > 10000) {
		apiError(c, http.StatusBadRequest, "workout_calories must be between 0 and 10000")
		return
	}

	entry, err := queryOne[dailyLogEntry](h.db, c,
		`INSERT INTO daily_log (user_id, date, calories, is_complete, steps, workout_calories)
		 VALUES (@userID, @date, @calories, @isComplete, @steps, @workoutCalories)
		 ON CONFLICT (user_id, date) DO UPDATE SET
			calories         = EXCLUDED.calories,
			is_complete      = EXCLUDED.is_complete,
			steps            = EXCLUDED.steps,
			workout_calories = EXCLUDED.workout_calories
		 RETURNING *`,
		pgx.NamedArgs{
			"userID": userID, "date": body.Date, "calories": body.Calories,
			"isComplete": body.IsComplete, "steps": body.Steps,
			"workoutCalories": body.WorkoutCalories,
		})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to upsert daily log entry")
		return
	}

	c.JSON(http.StatusCreated, entry)
}
