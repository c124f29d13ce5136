package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// toJSON marshals v for a ::jsonb parameter. The simple query protocol the
// pool is configured with can't infer an encoding for arbitrary structs, so
// JSONB values are passed as text and cast in SQL.
func toJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("[store] marshal jsonb: %v", err)
		return "{}"
	}
	return string(b)
}

// estimateObserver receives well-typed notifications after a user's estimate
// has been recomputed and persisted. Consumers (sync jobs, push surfaces)
// register on the Handler instead of reading shared mutable state.
type estimateObserver interface {
	estimateUpdated(ctx context.Context, userID int, est tdeeEstimate, sync syncDecision)
}

// logObserver is the default observer: it writes one line per recompute so
// drift is visible in the server logs.
type logObserver struct{}

func (logObserver) estimateUpdated(_ context.Context, userID int, est tdeeEstimate, sync syncDecision) {
	log.Printf("[estimate] user=%d tdee=%.0f source=%s confidence=%s sync=%s",
		userID, est.EstimatedTDEE, est.Source, est.Confidence, sync.Reason)
}

// notifyEstimateUpdated broadcasts to every registered observer.
func (h *Handler) notifyEstimateUpdated(ctx context.Context, userID int, est tdeeEstimate, sync syncDecision) {
	for _, o := range h.observers {
		o.estimateUpdated(ctx, userID, est, sync)
	}
}

/* ─── Daily series assembly ──────────────────────────────────────────── */

// loadDailySeries materializes the engine's input window: weight_log and
// daily_log rows merged per date. Days present in only one table still
// appear (with the other half nil) so the quality gate can report sparsity
// honestly.
func (h *Handler) loadDailySeries(c *gin.Context, userID, windowDays int) ([]dailyDataPoint, error) {
	since := time.Now().UTC().AddDate(0, 0, -windowDays).Format("2006-01-02")
	return queryMany[dailyDataPoint](h.db, c,
		`SELECT
			COALESCE(w.date, d.date)          AS date,
			w.weight_lbs                      AS weight_lbs,
			d.calories                        AS calories,
			COALESCE(d.is_complete, false)    AS is_complete,
			d.steps                           AS steps,
			d.workout_calories                AS workout_calories
		 FROM weight_log w
		 FULL OUTER JOIN daily_log d
			ON d.user_id = w.user_id AND d.date = w.date
		 WHERE COALESCE(w.user_id, d.user_id) = @userID
			AND COALESCE(w.date, d.date) >= @since
		 ORDER BY 1 ASC`,
		pgx.NamedArgs{"userID": userID, "since": since})
}

/* ─── Estimate persistence ───────────────────────────────────────────── */

// loadEstimate returns the user's current persisted estimate, or nil when
// none has been computed yet.
func (h *Handler) loadEstimate(c *gin.Context, userID int) (*tdeeEstimate, error) {
	var est tdeeEstimate
	err := h.db.QueryRow(c,
		"SELECT estimate FROM tdee_estimates WHERE user_id = $1", userID).Scan(&est)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &est, nil
}

// upsertEstimate persists the single live estimate per user. Plain
// last-writer-wins: every estimate is derived fresh from source records, so
// concurrent triggers for the same user need no cross-estimate locking.
func (h *Handler) upsertEstimate(c *gin.Context, userID int, est tdeeEstimate) error {
	_, err := h.db.Exec(c,
		`INSERT INTO tdee_estimates (user_id, estimate, updated_at)
		 VALUES (@userID, @estimate::jsonb, now())
		 ON CONFLICT (user_id) DO UPDATE SET estimate = EXCLUDED.estimate, updated_at = now()`,
		pgx.NamedArgs{"userID": userID, "estimate": toJSON(est)})
	return err
}

/* ─── Body-composition persistence ───────────────────────────────────── */

// loadBodyCompProfile returns the user's calibration profile, or an empty
// (zero-confidence) profile when no scans have been recorded.
func (h *Handler) loadBodyCompProfile(c *gin.Context, userID int) (bodyCompProfile, error) {
	var p bodyCompProfile
	err := h.db.QueryRow(c,
		"SELECT profile FROM body_comp_profiles WHERE user_id = $1", userID).Scan(&p)
	if errors.Is(err, pgx.ErrNoRows) {
		return bodyCompProfile{UserID: userID}, nil
	}
	if err != nil {
		return bodyCompProfile{}, err
	}
	return p, nil
}

// recalibrateBodyComp rebuilds and persists the calibration profile from
// the full scan list. Triggered by every scan insert/delete.
func (h *Handler) recalibrateBodyComp(c *gin.Context, userID int) (bodyCompProfile, error) {
	scans, err := h.loadScans(c, userID)
	if err != nil {
		return bodyCompProfile{}, err
	}
	profile := rebuildBodyCompProfile(userID, scans)
	_, err = h.db.Exec(c,
		`INSERT INTO body_comp_profiles (user_id, profile, updated_at)
		 VALUES (@userID, @profile::jsonb, now())
		 ON CONFLICT (user_id) DO UPDATE SET profile = EXCLUDED.profile, updated_at = now()`,
		pgx.NamedArgs{"userID": userID, "profile": toJSON(profile)})
	return profile, err
}

// loadScans returns the user's scans ordered by scan date.
func (h *Handler) loadScans(c *gin.Context, userID int) ([]dexaScan, error) {
	scans, err := queryMany[dexaScan](h.db, c,
		"SELECT * FROM dexa_scans WHERE user_id = @userID ORDER BY scan_date ASC",
		pgx.NamedArgs{"userID": userID})
	if err != nil {
		return nil, err
	}
	if scans == nil {
		scans = []dexaScan{}
	}
	return scans, nil
}

// saveActivePrediction stores the single what-if prediction retained per
// user for back-testing against the next scan.
func (h *Handler) saveActivePrediction(c *gin.Context, userID int, pred bodyCompPrediction) error {
	_, err := h.db.Exec(c,
		`INSERT INTO body_comp_predictions (user_id, prediction, updated_at)
		 VALUES (@userID, @prediction::jsonb, now())
		 ON CONFLICT (user_id) DO UPDATE SET prediction = EXCLUDED.prediction, updated_at = now()`,
		pgx.NamedArgs{"userID": userID, "prediction": toJSON(pred)})
	return err
}
