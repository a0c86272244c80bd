package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/astroahava/astro-sweph/internal/auth"
	"github.com/astroahava/astro-sweph/internal/ephemeris"
	"github.com/astroahava/astro-sweph/internal/ephemeris/ephemeristest"
	"github.com/astroahava/astro-sweph/internal/report"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func newTestHandler(opts Options) http.Handler {
	logger := testLogger()
	engine := &ephemeristest.Engine{
		Names: map[ephemeris.BodyID]string{ephemeris.Asteroid(1): "Ceres"},
		Path:  "/data/eph",
	}
	gen := report.NewGenerator(ephemeris.NewOracle(engine, logger), logger, report.Options{})
	return NewServer(":0", logger, gen, opts).Handler()
}

func get(h http.Handler, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

const (
	date = "year=2023&month=12&day=25&hour=12"
	geo  = "lon=0:6:0:W&lat=51:30:0:N"
)

func TestEndpoints(t *testing.T) {
	h := newTestHandler(Options{MaxCapacity: 200000})

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantType   string
		wantBody   string
	}{
		{"banner", "/api/v1/test", http.StatusOK, "text/plain", report.Banner},
		{"chart", "/api/v1/chart?" + date + "&" + geo, http.StatusOK, "application/json", `"ascmc"`},
		{"chart missing lon", "/api/v1/chart?" + date + "&lat=51:30:0:N", http.StatusBadRequest, "application/json", "lon is required"},
		{"chart bad hemisphere", "/api/v1/chart?" + date + "&lon=0:6:0:N&lat=51:30:0:N", http.StatusBadRequest, "application/json", "lon"},
		{"chart latitude out of range", "/api/v1/chart?" + date + "&lon=0:6:0:W&lat=91:0:0:N", http.StatusBadRequest, "application/json", "out of range"},
		{"chart bad house system", "/api/v1/chart?" + date + "&" + geo + "&hsys=PP", http.StatusBadRequest, "application/json", "hsys"},
		{"planets missing day", "/api/v1/planets?year=2023&month=12", http.StatusBadRequest, "application/json", "day is required"},
		{"planets bad month", "/api/v1/planets?year=2023&month=13&day=1", http.StatusBadRequest, "application/json", "month"},
		{"planet", "/api/v1/planets/0?" + date, http.StatusOK, "application/json", `"jd_ut"`},
		{"planet asteroid", "/api/v1/planets/10001?" + date, http.StatusOK, "application/json", "Ceres"},
		{"planet bad id", "/api/v1/planets/99?" + date, http.StatusBadRequest, "application/json", "body id"},
		{"houses", "/api/v1/houses?" + date + "&" + geo + "&hsys=k", http.StatusOK, "application/json", `"houses"`},
		{"nodes", "/api/v1/nodes?" + date + "&method=5", http.StatusOK, "application/json", `"method": 5`},
		{"nodes unknown method bit", "/api/v1/nodes?" + date + "&method=8", http.StatusBadRequest, "application/json", "method"},
		{"node by jd", "/api/v1/nodes/4?jd_et=2451545", http.StatusOK, "application/json", `"ascending"`},
		{"node by date", "/api/v1/nodes/4?" + date, http.StatusOK, "application/json", `"ascending"`},
		{"node bad jd", "/api/v1/nodes/4?jd_et=NaN", http.StatusBadRequest, "application/json", "jd_et"},
		{"asteroid list", "/api/v1/asteroids?" + date + "&list=1,2,x,3", http.StatusOK, "application/json", `"requested_list"`},
		{"asteroid range", "/api/v1/asteroids?" + date + "&start=5&end=1", http.StatusOK, "application/json", `"asteroid_range"`},
		{"asteroid range missing end", "/api/v1/asteroids?" + date + "&start=5", http.StatusBadRequest, "application/json", "end is required"},
		{"capacity above max", "/api/v1/asteroids?" + date + "&start=1&end=10&capacity=300000", http.StatusBadRequest, "application/json", "capacity"},
		{"julian day", "/api/v1/julian-day?" + date, http.StatusOK, "application/json", `"julian_day": 2460304.000000`},
		{"dms", "/api/v1/dms?value=185.5&flags=0", http.StatusOK, "text/plain; charset=utf-8", "185"},
		{"dms missing value", "/api/v1/dms", http.StatusBadRequest, "application/json", "value is required"},
		{"ephemeris", "/api/v1/ephemeris", http.StatusOK, "application/json", `"/data/eph"`},
		{"unknown path", "/api/v1/unknown", http.StatusNotFound, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(h, tt.target, nil)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantType != "" {
				if got := w.Header().Get("Content-Type"); got != tt.wantType {
					t.Errorf("Content-Type = %q, want %q", got, tt.wantType)
				}
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("body %q does not contain %q", w.Body.String(), tt.wantBody)
			}
			if tt.wantType == "application/json" && !json.Valid(w.Body.Bytes()) {
				t.Errorf("body is not valid JSON: %s", w.Body.String())
			}
		})
	}
}

func TestChartListsMajorBodies(t *testing.T) {
	h := newTestHandler(Options{})
	w := get(h, "/api/v1/chart?"+date+"&"+geo, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var doc struct {
		Planets []map[string]any `json:"planets"`
		Houses  []map[string]any `json:"houses"`
		Ascmc   []map[string]any `json:"ascmc"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Planets) != len(ephemeris.MajorBodies()) {
		t.Errorf("planets = %d, want %d", len(doc.Planets), len(ephemeris.MajorBodies()))
	}
	if len(doc.Houses) != 12 || len(doc.Ascmc) != 2 {
		t.Errorf("houses = %d, ascmc = %d, want 12 and 2", len(doc.Houses), len(doc.Ascmc))
	}
}

func TestAsteroidRangeTruncatedHeader(t *testing.T) {
	h := newTestHandler(Options{})
	w := get(h, "/api/v1/asteroids?"+date+"&start=1&end=100&capacity=5000", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Header().Get("X-Truncated") != "true" {
		t.Error("X-Truncated header not set")
	}
	if !json.Valid(w.Body.Bytes()) {
		t.Fatalf("truncated body is not valid JSON: %s", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Buffer limit reached") {
		t.Errorf("body has no truncation notice: %s", w.Body.String())
	}
	if w.Body.Len() > 5000 {
		t.Errorf("body length %d exceeds capacity 5000", w.Body.Len())
	}
}

func TestOutputBudget(t *testing.T) {
	h := newTestHandler(Options{MaxCapacity: 10000, MaxInflightBytes: 10000})

	w := get(h, "/api/v1/planets?"+date, nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("planets status = %d, want 503", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After not set")
	}

	// Small documents still fit, and the budget is returned after each one.
	for i := 0; i < 3; i++ {
		if w := get(h, "/api/v1/julian-day?"+date, nil); w.Code != http.StatusOK {
			t.Fatalf("julian-day #%d status = %d, want 200", i, w.Code)
		}
	}
}

// TestOutputBudgetCountsRaisedCapacity checks that the budget holds what a
// document really allocates, not the smaller capacity the route asks for.
func TestOutputBudgetCountsRaisedCapacity(t *testing.T) {
	need := report.Footprint(report.SingleCapacity)

	short := newTestHandler(Options{MaxCapacity: report.SingleCapacity, MaxInflightBytes: int64(need - 1)})
	if w := get(short, "/api/v1/planets/4?"+date, nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("planet status with %d budget bytes = %d, want 503", need-1, w.Code)
	}
	if w := get(short, "/api/v1/nodes/4?jd_et=2451545&capacity=1", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("node status with %d budget bytes = %d, want 503", need-1, w.Code)
	}

	exact := newTestHandler(Options{MaxCapacity: report.SingleCapacity, MaxInflightBytes: int64(need)})
	if w := get(exact, "/api/v1/planets/4?"+date, nil); w.Code != http.StatusOK {
		t.Errorf("planet status with %d budget bytes = %d, want 200", need, w.Code)
	}
}

func TestAuth(t *testing.T) {
	h := newTestHandler(Options{Auth: auth.Config{Enabled: true, Tokens: []string{"secret"}}})

	tests := []struct {
		name       string
		target     string
		header     http.Header
		wantStatus int
	}{
		{"no token", "/api/v1/julian-day?" + date, nil, http.StatusUnauthorized},
		{"bearer", "/api/v1/julian-day?" + date, http.Header{"Authorization": {"Bearer secret"}}, http.StatusOK},
		{"api key", "/api/v1/julian-day?" + date, http.Header{"X-Api-Key": {"secret"}}, http.StatusOK},
		{"wrong token", "/api/v1/julian-day?" + date, http.Header{"Authorization": {"Bearer nope"}}, http.StatusUnauthorized},
		{"healthz exempt", "/healthz", nil, http.StatusOK},
		{"banner exempt", "/api/v1/test", nil, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := get(h, tt.target, tt.header); w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequestIDHeader(t *testing.T) {
	h := newTestHandler(Options{})

	w := get(h, "/healthz", http.Header{"X-Request-Id": {"abc-123"}})
	if got := w.Header().Get("X-Request-Id"); got != "abc-123" {
		t.Errorf("X-Request-Id = %q, want abc-123", got)
	}

	w = get(h, "/healthz", nil)
	if got := w.Header().Get("X-Request-Id"); len(got) != 36 {
		t.Errorf("generated X-Request-Id = %q, want a UUID", got)
	}
}

func TestReadyz(t *testing.T) {
	logger := testLogger()
	gen := report.NewGenerator(ephemeris.NewOracle(&ephemeristest.Engine{}, logger), logger, report.Options{})

	ready := NewServer(":0", logger, gen, Options{}).Handler()
	if w := get(ready, "/readyz", nil); w.Code != http.StatusOK {
		t.Errorf("readyz status = %d, want 200", w.Code)
	}

	failing := NewServer(":0", logger, gen, Options{Ready: func() error { return errors.New("no files") }}).Handler()
	if w := get(failing, "/readyz", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz status = %d, want 503", w.Code)
	}
}

func TestProbePath(t *testing.T) {
	for path, want := range map[string]bool{
		"/healthz":        true,
		"/readyz":         true,
		"/metrics":        true,
		"/api/v1/planets": false,
	} {
		if got := probePath(path); got != want {
			t.Errorf("probePath(%q) = %v, want %v", path, got, want)
		}
	}
}
