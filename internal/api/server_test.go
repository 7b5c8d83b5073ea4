package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/time/rate"

	"github.com/ndiaye/readiness-dashboard/internal/assess"
	"github.com/ndiaye/readiness-dashboard/internal/auth"
	"github.com/ndiaye/readiness-dashboard/internal/upstream"
)

const rosterJSON = `[
	{"name":"Tanji Village Museum","sector":"Crafts","region":"West Coast","external_score":70,"survey_score":80,"combined_score":73,"maturity_level":"advanced","category_scores":{"website":7,"social_media":5}},
	{"name":"Kunta Kinteh Island","sector":"Heritage","region":"North Bank","external_score":40,"survey_score":0,"combined_score":40,"maturity_level":"emerging","category_scores":{"website":4,"social_media":6}}
]`

const sentimentJSON = `[
	{"stakeholder_name":"Tanji Village Museum","total_reviews":12,"overall_sentiment":0.4,"positive_rate":70,
	 "theme_scores":{"cultural_heritage":{"score":0.8,"mentions":6,"distribution":{"positive":5,"neutral":1,"negative":0}}},
	 "language_distribution":{"en":10,"de":2},"year_distribution":{"2024":12},"critical_areas":["accessibility"]}
]`

// fakeUpstream returns a server whose handler serves per-path canned bodies.
// Paths absent from the map get a 404, which the client surfaces as no-data.
func fakeUpstream(t *testing.T, responses map[string]string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := responses[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if body == "FAIL" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newTestServer(t *testing.T, upstreamBase string) *Server {
	t.Helper()
	policy, err := assess.LoadPolicy("")
	if err != nil {
		t.Fatalf("failed to load policy: %v", err)
	}
	registry := &upstream.Registry{
		BaseURL:          upstreamBase,
		SentimentBaseURL: upstreamBase,
		Fetch:            upstream.FetchConfig{TimeoutSeconds: 5, MaxRetries: 0, CacheTTLMinutes: 5},
		Endpoints: map[string]string{
			"sectors":                    "/api/sectors",
			"participants":               "/api/participants",
			"dashboard":                  "/api/dashboard",
			"participant_plan":           "/api/participant/{name}/plan",
			"participant_presence":       "/api/participant/{name}/presence",
			"participant_justifications": "/api/participant/{name}/justifications",
			"participant_opportunities":  "/api/participant/{name}/opportunities",
			"sentiment":                  "/sentiment/{source}/{country}.json",
		},
	}
	return &Server{
		Upstream:        upstream.NewClient(registry),
		Policy:          policy,
		Echo:            echo.New(),
		country:         "gm",
		sanitizer:       bluemonday.StrictPolicy(),
		submissionLimit: newSubmissionLimiter(rate.Inf, 1),
	}
}

func doRequest(t *testing.T, s *Server, method, target string, handler echo.HandlerFunc, pathParams map[string]string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := s.Echo.NewContext(req, rec)
	for name, value := range pathParams {
		c.SetParamNames(name)
		c.SetParamValues(value)
	}
	if err := handler(c); err != nil {
		s.Echo.HTTPErrorHandler(err, c)
	}
	var body map[string]json.RawMessage
	if rec.Code < 300 && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("response is not a JSON object: %v\n%s", err, rec.Body.String())
		}
	}
	return rec, body
}

func sectionStatus(t *testing.T, body map[string]json.RawMessage, name string) string {
	t.Helper()
	raw, ok := body[name]
	if !ok {
		t.Fatalf("response missing section %q", name)
	}
	var sec struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(raw, &sec); err != nil {
		t.Fatalf("section %q not decodable: %v", name, err)
	}
	return sec.Status
}

func TestHandleSectorList(t *testing.T) {
	ts := fakeUpstream(t, map[string]string{"/api/participants": rosterJSON})
	s := newTestServer(t, ts.URL)

	rec, body := doRequest(t, s, http.MethodGet, "/sectors", s.handleSectorList, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := sectionStatus(t, body, "sectors"); got != "ok" {
		t.Fatalf("expected ok section, got %q", got)
	}
	if !strings.Contains(string(body["sectors"]), `"Crafts"`) {
		t.Fatalf("sector rollup missing Crafts: %s", body["sectors"])
	}
}

// The upstream sector list names sectors that may not have an assessed
// member yet; those render as empty rollups rather than disappearing.
func TestHandleSectorList_IncludesUnassessedSectors(t *testing.T) {
	ts := fakeUpstream(t, map[string]string{
		"/api/participants": rosterJSON,
		"/api/sectors":      `["Crafts","Heritage","Ecotourism"]`,
	})
	s := newTestServer(t, ts.URL)

	_, body := doRequest(t, s, http.MethodGet, "/sectors", s.handleSectorList, nil)
	if got := sectionStatus(t, body, "sectors"); got != "ok" {
		t.Fatalf("expected ok section, got %q", got)
	}

	var aggregates []struct {
		Sector string `json:"sector"`
		Count  int    `json:"count"`
	}
	var sec struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body["sectors"], &sec); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(sec.Data, &aggregates); err != nil {
		t.Fatal(err)
	}
	if len(aggregates) != 3 {
		t.Fatalf("expected 3 sectors, got %d", len(aggregates))
	}
	for _, agg := range aggregates {
		if agg.Sector == "Ecotourism" && agg.Count != 0 {
			t.Fatalf("unassessed sector must be an empty rollup: %+v", agg)
		}
	}
}

func TestHandleDashboard_PartialFailure(t *testing.T) {
	ts := fakeUpstream(t, map[string]string{
		"/api/participants": rosterJSON,
		"/api/dashboard":    "FAIL",
	})
	s := newTestServer(t, ts.URL)

	rec, body := doRequest(t, s, http.MethodGet, "/dashboard", s.handleDashboard, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("a failed section must not fail the view, got %d", rec.Code)
	}
	if got := sectionStatus(t, body, "summary"); got != "unavailable" {
		t.Fatalf("expected unavailable summary, got %q", got)
	}
	if got := sectionStatus(t, body, "sectors"); got != "ok" {
		t.Fatalf("expected ok sectors alongside failed summary, got %q", got)
	}
	if got := sectionStatus(t, body, "maturity_distribution"); got != "ok" {
		t.Fatalf("expected ok maturity distribution, got %q", got)
	}
}

func TestHandleDashboard_RosterDown(t *testing.T) {
	ts := fakeUpstream(t, map[string]string{
		"/api/participants": "FAIL",
		"/api/dashboard":    `{"total_participants":2}`,
	})
	s := newTestServer(t, ts.URL)

	rec, body := doRequest(t, s, http.MethodGet, "/dashboard", s.handleDashboard, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := sectionStatus(t, body, "summary"); got != "ok" {
		t.Fatalf("expected ok summary, got %q", got)
	}
	if got := sectionStatus(t, body, "sectors"); got != "unavailable" {
		t.Fatalf("expected unavailable sectors, got %q", got)
	}
}

func TestHandleParticipantDetail(t *testing.T) {
	// Plan and presence are intentionally absent upstream: those sections
	// must come back no_data while the rest of the view renders.
	ts := fakeUpstream(t, map[string]string{
		"/api/participants": rosterJSON,
		"/api/participant/tanji village museum/justifications": `[{"category":"website","score":7,"evidence":"Has a live site"}]`,
		"/api/participant/tanji village museum/opportunities":  `[]`,
		"/sentiment/local/gm.json":                             sentimentJSON,
	})
	s := newTestServer(t, ts.URL)

	rec, body := doRequest(t, s, http.MethodGet, "/participants/tanji%20village%20museum",
		s.handleParticipantDetail, map[string]string{"name": "tanji village museum"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := sectionStatus(t, body, "profile"); got != "ok" {
		t.Fatalf("fuzzy roster match should resolve the profile, got %q", got)
	}
	if !strings.Contains(string(body["profile"]), `"Tanji Village Museum"`) {
		t.Fatalf("profile did not resolve to the roster entry: %s", body["profile"])
	}
	if got := sectionStatus(t, body, "plan"); got != "no_data" {
		t.Fatalf("missing plan must be no_data, got %q", got)
	}
	if got := sectionStatus(t, body, "justifications"); got != "ok" {
		t.Fatalf("expected ok justifications, got %q", got)
	}
	if got := sectionStatus(t, body, "sentiment"); got != "ok" {
		t.Fatalf("expected matched sentiment record, got %q", got)
	}
}

func TestHandleParticipantDetail_UnknownName(t *testing.T) {
	ts := fakeUpstream(t, map[string]string{"/api/participants": rosterJSON})
	s := newTestServer(t, ts.URL)

	rec, _ := doRequest(t, s, http.MethodGet, "/participants/Zzzqqq",
		s.handleParticipantDetail, map[string]string{"name": "Zzzqqq"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an unmatched name, got %d", rec.Code)
	}
}

func TestHandleParticipantDetail_NoReviews(t *testing.T) {
	ts := fakeUpstream(t, map[string]string{
		"/api/participants":        rosterJSON,
		"/sentiment/local/gm.json": sentimentJSON,
	})
	s := newTestServer(t, ts.URL)

	_, body := doRequest(t, s, http.MethodGet, "/participants/Kunta%20Kinteh%20Island",
		s.handleParticipantDetail, map[string]string{"name": "Kunta Kinteh Island"})
	if got := sectionStatus(t, body, "sentiment"); got != "no_data" {
		t.Fatalf("a stakeholder without reviews gets no_data sentiment, got %q", got)
	}
}

func TestHandleSectorDetail(t *testing.T) {
	ts := fakeUpstream(t, map[string]string{"/api/participants": rosterJSON})
	s := newTestServer(t, ts.URL)

	rec, body := doRequest(t, s, http.MethodGet, "/sectors/Crafts",
		s.handleSectorDetail, map[string]string{"name": "Crafts"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	for _, name := range []string{"sector", "members", "gaps", "coverage"} {
		if got := sectionStatus(t, body, name); got != "ok" {
			t.Fatalf("expected ok %s section, got %q", name, got)
		}
	}
	// Crafts website 7 vs Heritage website 4 exceeds the strength threshold.
	if !strings.Contains(string(body["gaps"]), `"website"`) {
		t.Fatalf("gap report missing website entry: %s", body["gaps"])
	}
}

func TestHandleSectorDetail_Unknown(t *testing.T) {
	ts := fakeUpstream(t, map[string]string{"/api/participants": rosterJSON})
	s := newTestServer(t, ts.URL)

	rec, _ := doRequest(t, s, http.MethodGet, "/sectors/Aviation",
		s.handleSectorDetail, map[string]string{"name": "Aviation"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown sector, got %d", rec.Code)
	}
}

func TestHandleITOPerception(t *testing.T) {
	ts := fakeUpstream(t, map[string]string{
		"/sentiment/local/gm.json": sentimentJSON,
		"/sentiment/ito/gm.json":   sentimentJSON,
	})
	s := newTestServer(t, ts.URL)

	rec, body := doRequest(t, s, http.MethodGet, "/ito-perception", s.handleITOPerception, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	for _, name := range []string{"local", "ito", "comparison"} {
		if got := sectionStatus(t, body, name); got != "ok" {
			t.Fatalf("expected ok %s section, got %q", name, got)
		}
	}
}

func TestHandleITOPerception_MissingSide(t *testing.T) {
	ts := fakeUpstream(t, map[string]string{"/sentiment/local/gm.json": sentimentJSON})
	s := newTestServer(t, ts.URL)

	_, body := doRequest(t, s, http.MethodGet, "/ito-perception", s.handleITOPerception, nil)
	if got := sectionStatus(t, body, "local"); got != "ok" {
		t.Fatalf("expected ok local side, got %q", got)
	}
	if got := sectionStatus(t, body, "ito"); got != "no_data" {
		t.Fatalf("expected no_data for missing ito document, got %q", got)
	}
	if got := sectionStatus(t, body, "comparison"); got != "no_data" {
		t.Fatalf("comparison requires both sides, got %q", got)
	}
}

func TestHandleReviewsSentiment(t *testing.T) {
	ts := fakeUpstream(t, map[string]string{"/sentiment/local/gm.json": sentimentJSON})
	s := newTestServer(t, ts.URL)

	rec, body := doRequest(t, s, http.MethodGet, "/reviews", s.handleReviewsSentiment, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := sectionStatus(t, body, "reviews"); got != "ok" {
		t.Fatalf("expected ok reviews section, got %q", got)
	}
	var data struct {
		Data struct {
			TotalReviews  int            `json:"total_reviews"`
			Languages     map[string]int `json:"languages"`
			CriticalAreas []string       `json:"critical_areas"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body["reviews"], &data); err != nil {
		t.Fatal(err)
	}
	if data.Data.TotalReviews != 12 {
		t.Fatalf("expected 12 total reviews, got %d", data.Data.TotalReviews)
	}
	if data.Data.Languages["en"] != 10 {
		t.Fatalf("expected merged language counts, got %v", data.Data.Languages)
	}
	if len(data.Data.CriticalAreas) != 1 || data.Data.CriticalAreas[0] != "accessibility" {
		t.Fatalf("unexpected critical areas: %v", data.Data.CriticalAreas)
	}
}

func TestHandleMethodology(t *testing.T) {
	ts := fakeUpstream(t, nil)
	s := newTestServer(t, ts.URL)

	rec, body := doRequest(t, s, http.MethodGet, "/methodology", s.handleMethodology, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var bands []struct {
		Level string  `json:"level"`
		Max   float64 `json:"max"`
	}
	if err := json.Unmarshal(body["maturity_bands"], &bands); err != nil {
		t.Fatal(err)
	}
	if len(bands) != 5 {
		t.Fatalf("expected 5 maturity bands, got %d", len(bands))
	}
	if bands[4].Level != "expert" || bands[4].Max != 100 {
		t.Fatalf("unexpected top band: %+v", bands[4])
	}
}

func TestHandleListSubmissions_RequiresAdmin(t *testing.T) {
	ts := fakeUpstream(t, nil)
	s := newTestServer(t, ts.URL)

	// Anonymous request.
	rec, _ := doRequest(t, s, http.MethodGet, "/api/v1/submissions", s.handleListSubmissions, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a session, got %d", rec.Code)
	}

	// Participant session.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/submissions", nil)
	rec2 := httptest.NewRecorder()
	c := s.Echo.NewContext(req, rec2)
	c.Set(string(auth.SessionKey), &auth.Session{Username: "tanji", Role: auth.RoleParticipant, Organization: "Tanji Village Museum"})
	if err := s.handleListSubmissions(c); err != nil {
		s.Echo.HTTPErrorHandler(err, c)
	}
	if rec2.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a participant session, got %d", rec2.Code)
	}
}

func TestHandleSubmission_Validation(t *testing.T) {
	ts := fakeUpstream(t, nil)
	s := newTestServer(t, ts.URL)

	// Markup-only message sanitizes to empty and is rejected before storage.
	req := httptest.NewRequest(http.MethodPost, "/api/feedback",
		strings.NewReader(`{"type":"general","message":"<script>alert(1)</script>"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := s.Echo.NewContext(req, rec)
	if err := s.handleSubmitFeedback(c); err != nil {
		s.Echo.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an empty sanitized message, got %d", rec.Code)
	}
}

func TestHandleSubmission_RateLimited(t *testing.T) {
	ts := fakeUpstream(t, nil)
	s := newTestServer(t, ts.URL)
	s.submissionLimit = newSubmissionLimiter(rate.Limit(0), 0)

	req := httptest.NewRequest(http.MethodPost, "/api/feedback",
		strings.NewReader(`{"type":"general","message":"hello"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := s.Echo.NewContext(req, rec)
	if err := s.handleSubmitFeedback(c); err != nil {
		s.Echo.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 when the limiter is exhausted, got %d", rec.Code)
	}
}

// One submitter exhausting their bucket must not lock out other clients.
func TestSubmissionLimiter_PerClientBuckets(t *testing.T) {
	limiter := newSubmissionLimiter(rate.Limit(0), 1)

	if !limiter.Allow("203.0.113.7") {
		t.Fatal("first request from a client must pass")
	}
	if limiter.Allow("203.0.113.7") {
		t.Fatal("second request from the same client must be limited")
	}
	if !limiter.Allow("198.51.100.9") {
		t.Fatal("an unrelated client must have its own budget")
	}
}
