package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// Plausibility bounds for a stored weight in pounds. Values outside this
// range are rejected as malformed input at the boundary, never coerced.
const (
	minWeightLBS = 40.0
	maxWeightLBS = 1500.0
)

// normalizeWeight converts a (weight, unit) pair to pounds. The unit tag is
// mandatory and validated here: weights are normalized exactly once at write
// time, so nothing downstream ever has to guess what a number means.
func normalizeWeight(weight float64, unit string) (float64, string, bool) {
	if !isFiniteAll(weight) || weight <= 0 {
		return 0, "weight must be a positive number", false
	}
	var lbs float64
	switch unit {
	case "lb":
		lbs = weight
	case "kg":
		lbs = weight * lbsPerKG
	default:
		return 0, `unit is required and must be "lb" or "kg"`, false
	}
	if lbs < minWeightLBS || lbs > maxWeightLBS {
		return 0, "weight out of plausible range", false
	}
	return lbs, "", true
}

// getWeightLog returns weight entries for the authenticated user within [start, end].
// GET /api/weight-log?start=YYYY-MM-DD&end=YYYY-MM-DD. Both params required.
// Returns an empty array (not null) if no entries exist in the range.
func (h *Handler) getWeightLog(c *gin.Context) {
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

	entries, err := queryMany[weightEntry](h.db, c,
		`SELECT * FROM weight_log
		 WHERE user_id = @userID AND date >= @start AND date <= @end
		 ORDER BY date ASC`,
		pgx.NamedArgs{"userID": userID, "start": start, "end": end})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch weight log")
		return
	}
	// Ensure empty array (not null) in JSON
	if entries == nil {
		entries = []weightEntry{}
	}

	c.JSON(http.StatusOK, entries)
}

// upsertWeightEntry creates or updates the weight entry for the given date.
// POST /api/weight-log. Body: { "date": "YYYY-MM-DD", "weight": 84.2, "unit": "kg" }.
// The UNIQUE(user_id, date) constraint means posting the same date updates
// in place — corrections supersede, they never mutate history shape.
func (h *Handler) upsertWeightEntry(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body upsertWeightRequest
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
	lbs, msg, ok := normalizeWeight(body.Weight, body.Unit)
	if !ok {
		apiError(c, http.StatusBadRequest, msg)
		return
	}

	entry, err := queryOne[weightEntry](h.db, c,
		`INSERT INTO weight_log (user_id, date, weight_lbs)
		 VALUES (@userID, @date, @weightLBS)
		 ON CONFLICT (user_id, date) DO UPDATE SET weight_lbs = EXCLUDED.weight_lbs
		 RETURNING *`,
		pgx.NamedArgs{"userID": userID, "date": body.Date, "weightLBS": lbs})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to upsert weight entry")
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// updateWeightEntry partially updates an existing weight entry.
// PUT /api/weight-log/:id. Body: { "date"?, "weight"? + "unit" }.
// A new weight requires its unit; omitted fields keep current values.
func (h *Handler) updateWeightEntry(c *gin.Context) {
	userID := c.GetInt("user_id")
	id := c.Param("id")

	var body struct {
		Date   *string  `json:"date"`
		Weight *float64 `json:"weight"`
		Unit   *string  `json:"unit"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Date != nil {
		if _, err := time.Parse("2006-01-02", *body.Date); err != nil {
			apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
	}
	var weightLBS *float64
	if body.Weight != nil {
		unit := ""
		if body.Unit != nil {
			unit = *body.Unit
		}
		lbs, msg, ok := normalizeWeight(*body.Weight, unit)
		if !ok {
			apiError(c, http.StatusBadRequest, msg)
			return
		}
		weightLBS = &lbs
	}

	entry, err := queryOne[weightEntry](h.db, c,
		`UPDATE weight_log SET
			date       = COALESCE(@date, date),
			weight_lbs = COALESCE(@weightLBS, weight_lbs)
		 WHERE id = @id AND user_id = @userID
		 RETURNING *`,
		pgx.NamedArgs{"id": id, "userID": userID, "date": body.Date, "weightLBS": weightLBS})
	if err != nil {
		// Distinguish a missing row from a real DB failure so callers get an
		// actionable status code rather than a misleading 404.
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "weight entry not found")
		} else {
			apiError(c, http.StatusInternalServerError, "failed to update weight entry")
		}
		return
	}

	c.JSON(http.StatusOK, entry)
}

// deleteWeightEntry removes a weight log entry by ID.
// DELETE /api/weight-log/:id. Returns 204 on success, 404 if not found.
// Ownership is enforced by requiring both id and user_id to match.
func (h *Handler) deleteWeightEntry(c *gin.Context) {
	userID := c.GetInt("user_id")
	id := c.Param("id")

	result, err := h.db.Exec(c,
		"DELETE FROM weight_log WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": id, "userID": userID})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to delete weight entry")
		return
	}
	if result.RowsAffected() == 0 {
		apiError(c, http.StatusNotFound, "weight entry not found")
		return
	}

	c.Status(http.StatusNoContent)
}
