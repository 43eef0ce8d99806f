package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"trailprep/internal/analysis"
	"trailprep/internal/config"
	"trailprep/internal/gpx"
	"trailprep/internal/store"
)

// testServer builds a router backed by an in-memory store. refineKey and
// refineURL configure the advisory upstream; empty values leave it
// unconfigured.
func testServer(t *testing.T, refineURL, refineKey string) http.Handler {
	t.Helper()

	st, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := config.DefaultConfig()
	cfg.Refine.URL = refineURL
	cfg.Refine.APIKey = refineKey

	return NewServer(&cfg, st).Router()
}

type testEnvelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) (int, testEnvelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env testEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: non-envelope body %q", method, path, rec.Body.String())
	}
	return rec.Code, env
}

func TestHealthz(t *testing.T) {
	h := testServer(t, "", "")
	code, env := doJSON(t, h, http.MethodGet, "/healthz", nil)
	if code != http.StatusOK || env.Status != "ok" {
		t.Errorf("healthz = %d %q", code, env.Status)
	}
}

func TestEstimateEndpoint(t *testing.T) {
	h := testServer(t, "", "")

	code, env := doJSON(t, h, http.MethodPost, "/api/estimate", map[string]any{
		"distanceKm":     100,
		"elevationGainM": 5000,
	})
	if code != http.StatusOK {
		t.Fatalf("status = %d, error = %q", code, env.Error)
	}

	var estimate analysis.TimeEstimate
	if err := json.Unmarshal(env.Data, &estimate); err != nil {
		t.Fatalf("decoding estimate: %v", err)
	}
	if estimate.TotalMinutes <= 0 {
		t.Errorf("TotalMinutes = %v, want positive", estimate.TotalMinutes)
	}
	if !regexp.MustCompile(`^\d+h–\d+h$`).MatchString(estimate.RangeFormatted) {
		t.Errorf("RangeFormatted = %q", estimate.RangeFormatted)
	}
}

func TestEstimateBadBody(t *testing.T) {
	h := testServer(t, "", "")
	req := httptest.NewRequest(http.MethodPost, "/api/estimate", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestZonesEndpoint(t *testing.T) {
	h := testServer(t, "", "")

	profile := []analysis.ProfilePoint{
		{DistanceKm: 0, ElevationM: 1000},
		{DistanceKm: 5, ElevationM: 1100},
		{DistanceKm: 10, ElevationM: 1050},
	}

	t.Run("native array", func(t *testing.T) {
		code, env := doJSON(t, h, http.MethodPost, "/api/zones", map[string]any{
			"profile":        profile,
			"distanceKm":     10,
			"elevationGainM": 100,
		})
		if code != http.StatusOK {
			t.Fatalf("status = %d, error = %q", code, env.Error)
		}
		var zones []analysis.ProfileZone
		if err := json.Unmarshal(env.Data, &zones); err != nil {
			t.Fatalf("decoding zones: %v", err)
		}
		if len(zones) == 0 {
			t.Error("no zones returned")
		}
	})

	t.Run("string-encoded profile", func(t *testing.T) {
		encoded, _ := json.Marshal(profile)
		code, env := doJSON(t, h, http.MethodPost, "/api/zones", map[string]any{
			"profile":        string(encoded),
			"distanceKm":     10,
			"elevationGainM": 100,
		})
		if code != http.StatusOK {
			t.Fatalf("status = %d, error = %q", code, env.Error)
		}
	})

	t.Run("broken profile", func(t *testing.T) {
		code, _ := doJSON(t, h, http.MethodPost, "/api/zones", map[string]any{
			"profile":        "not a profile",
			"distanceKm":     10,
			"elevationGainM": 100,
		})
		if code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", code)
		}
	})
}

func TestReadinessEndpointNoMetrics(t *testing.T) {
	h := testServer(t, "", "")

	code, env := doJSON(t, h, http.MethodPost, "/api/readiness", map[string]any{
		"course": map[string]any{
			"name":           "Diagonale des Fous",
			"distanceKm":     175,
			"elevationGainM": 10150,
		},
	})
	if code != http.StatusOK {
		t.Fatalf("status = %d, error = %q", code, env.Error)
	}

	var result analysis.CourseAnalysis
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("decoding analysis: %v", err)
	}
	if result.Readiness != analysis.ReadinessRisk {
		t.Errorf("Readiness = %v, want risk", result.Readiness)
	}
	if len(result.Issues) == 0 {
		t.Error("expected at least one issue without metrics")
	}
}

func TestReadinessRequiresCourse(t *testing.T) {
	h := testServer(t, "", "")
	code, _ := doJSON(t, h, http.MethodPost, "/api/readiness", map[string]any{})
	if code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", code)
	}
}

func TestBarriersEndpoint(t *testing.T) {
	h := testServer(t, "", "")

	code, env := doJSON(t, h, http.MethodPost, "/api/barriers", map[string]any{
		"distanceKm":     100,
		"elevationGainM": 5000,
		"checkpoints": []map[string]any{
			{"name": "Mid", "distanceKm": 50},
			{"name": "Late", "distanceKm": 90},
		},
	})
	if code != http.StatusOK {
		t.Fatalf("status = %d, error = %q", code, env.Error)
	}

	var barriers []analysis.BarrierInfo
	if err := json.Unmarshal(env.Data, &barriers); err != nil {
		t.Fatalf("decoding barriers: %v", err)
	}
	if len(barriers) != 2 {
		t.Fatalf("len(barriers) = %d, want 2", len(barriers))
	}
	if barriers[0].DistanceKm != 50 || barriers[1].DistanceKm != 90 {
		t.Errorf("barriers out of order: %+v", barriers)
	}
}

func refineBody() map[string]any {
	return map[string]any{
		"distanceKm":    100,
		"elevationGain": 5000,
		"currentEstimate": map[string]any{
			"rangeFormatted": "16h–19h",
			"formatted":      "17h30",
			"basePace":       7.5,
			"finalPace":      10.5,
		},
	}
}

func TestRefineEndpoint(t *testing.T) {
	t.Run("missing fields", func(t *testing.T) {
		h := testServer(t, "", "key")
		body := refineBody()
		delete(body, "distanceKm")
		code, _ := doJSON(t, h, http.MethodPost, "/api/refine", body)
		if code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", code)
		}
	})

	t.Run("no credential", func(t *testing.T) {
		h := testServer(t, "http://unused.invalid", "")
		code, _ := doJSON(t, h, http.MethodPost, "/api/refine", refineBody())
		if code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", code)
		}
	})

	t.Run("success", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"choices":[{"message":{"content":"{\"suggestedMinMinutes\":980,\"suggestedMaxMinutes\":1150}"}}]}`)
		}))
		defer upstream.Close()

		h := testServer(t, upstream.URL, "key")
		code, env := doJSON(t, h, http.MethodPost, "/api/refine", refineBody())
		if code != http.StatusOK {
			t.Fatalf("status = %d, error = %q", code, env.Error)
		}
	})

	t.Run("unparsable upstream reply", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"choices":[{"message":{"content":"around seventeen hours"}}]}`)
		}))
		defer upstream.Close()

		h := testServer(t, upstream.URL, "key")
		code, _ := doJSON(t, h, http.MethodPost, "/api/refine", refineBody())
		if code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", code)
		}
	})

	t.Run("upstream transport failure", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "overloaded", http.StatusBadGateway)
		}))
		defer upstream.Close()

		h := testServer(t, upstream.URL, "key")
		code, _ := doJSON(t, h, http.MethodPost, "/api/refine", refineBody())
		if code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", code)
		}
	})
}

func TestEventCRUD(t *testing.T) {
	h := testServer(t, "", "")

	code, env := doJSON(t, h, http.MethodPost, "/api/events", map[string]any{
		"name":     "Diagonale des Fous",
		"date":     "2026-10-15T04:00:00Z",
		"location": "La Réunion",
	})
	if code != http.StatusCreated {
		t.Fatalf("create status = %d, error = %q", code, env.Error)
	}

	var event store.Event
	if err := json.Unmarshal(env.Data, &event); err != nil {
		t.Fatalf("decoding event: %v", err)
	}
	if event.ID == "" {
		t.Fatal("event ID is empty")
	}

	code, _ = doJSON(t, h, http.MethodGet, "/api/events/"+event.ID, nil)
	if code != http.StatusOK {
		t.Errorf("get status = %d", code)
	}

	code, env = doJSON(t, h, http.MethodPut, "/api/events/"+event.ID, map[string]any{
		"name": "Diagonale des Fous 2026",
		"date": "2026-10-15T04:00:00Z",
	})
	if code != http.StatusOK {
		t.Fatalf("update status = %d, error = %q", code, env.Error)
	}

	code, _ = doJSON(t, h, http.MethodDelete, "/api/events/"+event.ID, nil)
	if code != http.StatusOK {
		t.Errorf("delete status = %d", code)
	}

	code, _ = doJSON(t, h, http.MethodGet, "/api/events/"+event.ID, nil)
	if code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", code)
	}
}

func TestEventValidation(t *testing.T) {
	h := testServer(t, "", "")
	code, _ := doJSON(t, h, http.MethodPost, "/api/events", map[string]any{"location": "nowhere"})
	if code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", code)
	}
}

func TestCourseCRUD(t *testing.T) {
	h := testServer(t, "", "")

	_, env := doJSON(t, h, http.MethodPost, "/api/events", map[string]any{
		"name": "UTMB", "date": "2026-08-28T18:00:00Z",
	})
	var event store.Event
	if err := json.Unmarshal(env.Data, &event); err != nil {
		t.Fatalf("decoding event: %v", err)
	}

	code, env := doJSON(t, h, http.MethodPost, "/api/events/"+event.ID+"/courses", map[string]any{
		"name":           "Grande boucle",
		"distanceKm":     171,
		"elevationGainM": 10000,
		"elevationLossM": 10000,
		"profile": []analysis.ProfilePoint{
			{DistanceKm: 0, ElevationM: 1000},
			{DistanceKm: 85, ElevationM: 2500},
			{DistanceKm: 171, ElevationM: 1000},
		},
	})
	if code != http.StatusCreated {
		t.Fatalf("create course status = %d, error = %q", code, env.Error)
	}

	var course store.Course
	if err := json.Unmarshal(env.Data, &course); err != nil {
		t.Fatalf("decoding course: %v", err)
	}

	code, env = doJSON(t, h, http.MethodGet, "/api/events/"+event.ID+"/courses", nil)
	if code != http.StatusOK {
		t.Fatalf("list courses status = %d", code)
	}
	var courses []store.Course
	if err := json.Unmarshal(env.Data, &courses); err != nil {
		t.Fatalf("decoding course list: %v", err)
	}
	if len(courses) != 1 {
		t.Errorf("len(courses) = %d, want 1", len(courses))
	}

	code, _ = doJSON(t, h, http.MethodPut, "/api/courses/"+course.ID, map[string]any{
		"name":       "Grande boucle (variante)",
		"distanceKm": 168,
	})
	if code != http.StatusOK {
		t.Errorf("update course status = %d", code)
	}

	code, _ = doJSON(t, h, http.MethodDelete, "/api/courses/"+course.ID, nil)
	if code != http.StatusOK {
		t.Errorf("delete course status = %d", code)
	}
}

func TestCourseUnderMissingEvent(t *testing.T) {
	h := testServer(t, "", "")
	code, _ := doJSON(t, h, http.MethodPost, "/api/events/no-such-event/courses", map[string]any{
		"name": "orphan", "distanceKm": 10,
	})
	if code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", code)
	}
}

func TestStravaMetricsNotConnected(t *testing.T) {
	h := testServer(t, "", "")
	code, _ := doJSON(t, h, http.MethodGet, "/api/strava/metrics", nil)
	if code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", code)
	}
}

func TestStravaConnectWithoutCredentials(t *testing.T) {
	h := testServer(t, "", "")
	code, _ := doJSON(t, h, http.MethodGet, "/api/strava/connect", nil)
	if code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", code)
	}
}

const importGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <trk><name>Boucle du Môle</name><trkseg>
    <trkpt lat="46.100" lon="6.400"><ele>900</ele></trkpt>
    <trkpt lat="46.110" lon="6.400"><ele>1100</ele></trkpt>
    <trkpt lat="46.120" lon="6.400"><ele>950</ele></trkpt>
  </trkseg></trk>
</gpx>`

func postGPX(t *testing.T, h http.Handler, path, body string) (int, testEnvelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/gpx+xml")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env testEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("POST %s: non-envelope body %q", path, rec.Body.String())
	}
	return rec.Code, env
}

func TestImportGPXCreatesCourse(t *testing.T) {
	h := testServer(t, "", "")

	_, env := doJSON(t, h, http.MethodPost, "/api/events", map[string]any{
		"name": "Trail du Môle", "date": "2026-09-20T08:00:00Z",
	})
	var event store.Event
	if err := json.Unmarshal(env.Data, &event); err != nil {
		t.Fatalf("decoding event: %v", err)
	}

	code, env := postGPX(t, h, "/api/events/"+event.ID+"/courses/gpx", importGPX)
	if code != http.StatusCreated {
		t.Fatalf("status = %d, error = %q", code, env.Error)
	}

	var course store.Course
	if err := json.Unmarshal(env.Data, &course); err != nil {
		t.Fatalf("decoding course: %v", err)
	}
	if course.Name != "Boucle du Môle" {
		t.Errorf("name = %q", course.Name)
	}
	if course.DistanceKm < 2 || course.DistanceKm > 3 {
		t.Errorf("distance = %v km, want ~2.2", course.DistanceKm)
	}
	if course.ElevationGainM != 200 || course.ElevationLossM != 150 {
		t.Errorf("gain/loss = %v/%v, want 200/150", course.ElevationGainM, course.ElevationLossM)
	}

	// The stored profile must round-trip through the boundary normalizer
	result := gpx.NormalizeProfile(course.Profile)
	if !result.OK {
		t.Fatalf("stored profile does not normalize: %s", result.Reason)
	}
	if len(result.Profile) != 3 {
		t.Errorf("profile has %d points, want 3", len(result.Profile))
	}

	code, env = doJSON(t, h, http.MethodGet, "/api/events/"+event.ID+"/courses", nil)
	if code != http.StatusOK {
		t.Fatalf("list status = %d", code)
	}
	var courses []store.Course
	if err := json.Unmarshal(env.Data, &courses); err != nil {
		t.Fatalf("decoding course list: %v", err)
	}
	if len(courses) != 1 {
		t.Errorf("len(courses) = %d, want 1", len(courses))
	}
}

func TestImportGPXRejectsBrokenFile(t *testing.T) {
	h := testServer(t, "", "")

	_, env := doJSON(t, h, http.MethodPost, "/api/events", map[string]any{
		"name": "Trail du Môle", "date": "2026-09-20T08:00:00Z",
	})
	var event store.Event
	if err := json.Unmarshal(env.Data, &event); err != nil {
		t.Fatalf("decoding event: %v", err)
	}

	code, _ := postGPX(t, h, "/api/events/"+event.ID+"/courses/gpx", "not gpx at all")
	if code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", code)
	}
}

func TestImportGPXUnderMissingEvent(t *testing.T) {
	h := testServer(t, "", "")
	code, _ := postGPX(t, h, "/api/events/no-such-event/courses/gpx", importGPX)
	if code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", code)
	}
}
