package main

import (
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

// TestNormalizeWeight covers unit handling and plausibility bounds. Weights
// are normalized to pounds exactly once, at the write boundary.
func TestNormalizeWeight(t *testing.T) {
	cases := []struct {
		name    string
		weight  float64
		unit    string
		wantLBS float64
		wantOK  bool
	}{
		{"pounds pass through", 180, "lb", 180, true},
		{"kilograms convert", 100, "kg", 220.462, true},
		{"unit required", 180, "", 0, false},
		{"unknown unit rejected", 180, "stone", 0, false},
		{"plural alias rejected", 180, "lbs", 0, false},
		{"zero weight", 0, "lb", 0, false},
		{"negative weight", -80, "kg", 0, false},
		{"below plausible range", 20, "lb", 0, false},
		{"above plausible range", 1600, "lb", 0, false},
		{"kg above plausible range", 750, "kg", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lbs, msg, ok := normalizeWeight(tc.weight, tc.unit)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v (%q), expected %v", ok, msg, tc.wantOK)
			}
			if ok && math.Abs(lbs-tc.wantLBS) > 0.001 {
				t.Errorf("lbs = %.3f, expected %.3f", lbs, tc.wantLBS)
			}
		})
	}
}

/* ─── Handler validation (no DB) ─────────────────────────────────────── */

// setupWeightLogTest creates a Gin engine with the weight-log routes and a
// stub auth layer. Validation rejections happen before any DB access, so a
// nil pool is fine for 400-path tests.
func setupWeightLogTest() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &Handler{}
	router := gin.New()
	auth := func(c *gin.Context) {
		c.Set("user_id", 1)
		c.Next()
	}
	router.GET("/api/weight-log", auth, h.getWeightLog)
	router.POST("/api/weight-log", auth, h.upsertWeightEntry)
	return router
}

func doJSONRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestUpsertWeightEntry_Validation verifies the write boundary rejects
// malformed dates, missing units, and implausible weights with 400s.
func TestUpsertWeightEntry_Validation(t *testing.T) {
	router := setupWeightLogTest()

	cases := []struct {
		name string
		body string
	}{
		{"not json", `weight=180`},
		{"missing date", `{"weight": 180, "unit": "lb"}`},
		{"malformed date", `{"date": "01/15/2026", "weight": 180, "unit": "lb"}`},
		{"missing unit", `{"date": "2026-01-15", "weight": 180}`},
		{"unknown unit", `{"date": "2026-01-15", "weight": 180, "unit": "stone"}`},
		{"zero weight", `{"date": "2026-01-15", "weight": 0, "unit": "lb"}`},
		{"implausible weight", `{"date": "2026-01-15", "weight": 9000, "unit": "lb"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSONRequest(router, "POST", "/api/weight-log", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, expected 400", w.Code)
			}
			if !strings.Contains(w.Body.String(), "error") {
				t.Errorf("body %q missing error payload", w.Body.String())
			}
		})
	}
}

// TestGetWeightLog_RequiresRange verifies the range params are mandatory
// and well-formed.
func TestGetWeightLog_RequiresRange(t *testing.T) {
	router := setupWeightLogTest()

	paths := []string{
		"/api/weight-log",
		"/api/weight-log?start=2026-01-01",
		"/api/weight-log?start=2026-01-01&end=bogus",
		"/api/weight-log?start=2026-02-01&end=2026-01-01",
	}
	for _, path := range paths {
		w := doJSONRequest(router, "GET", path, "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, expected 400", path, w.Code)
		}
	}
}
