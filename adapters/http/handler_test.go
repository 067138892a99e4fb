package http_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/artpar/shapegen/adapters/clock"
	apihttp "github.com/artpar/shapegen/adapters/http"
	"github.com/artpar/shapegen/adapters/idgen"
	"github.com/artpar/shapegen/adapters/metrics"
	"github.com/artpar/shapegen/app"
	"github.com/artpar/shapegen/core/schema"
	"github.com/artpar/shapegen/pkg/jsonapi"
	"github.com/go-json-experiment/json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

var baseTime = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

const locationSnapshot = `
targets:
  - {name: Location, ref: Location}
  - {name: location, ref: location}
objects:
  - id: Location
    function: {name: Location, construct: {illegal: true}}
    properties:
      - {key: prototype, value: {ref: proto}, writable: false, enumerable: false, configurable: false}
  - id: proto
    properties:
      - {key: constructor, value: {ref: Location}, enumerable: false}
      - key: href
        get: {function: {name: get href}}
        set: {function: {name: set href, length: 1}}
      - {key: reload, value: {function: {name: reload}}, enumerable: false}
  - id: location
    proto: proto
`

const loopSnapshot = `
targets: [{name: Loop, ref: a}]
objects:
  - {id: a, proto: b}
  - {id: b, proto: a}
`

type testServer struct {
	router  http.Handler
	metrics *metrics.Collector
}

func setupTestServer(t *testing.T) testServer {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	gen := app.NewGenerator(clock.NewFake(baseTime), idgen.NewSequential("batch_"), zerolog.Nop()).WithRecorder(m)
	h := apihttp.NewGenerateHandler(gen, nil, zerolog.Nop())
	h.SetMaxBodyBytes(4096)

	router := apihttp.NewRouter(h, zerolog.Nop(), apihttp.RouterConfig{
		Metrics:        m,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Version:        "1.2.3",
	})
	return testServer{router: router, metrics: m}
}

func (s testServer) do(method, target, contentType, body string, headers ...string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeErrors(t *testing.T, rec *httptest.ResponseRecorder) []jsonapi.Error {
	t.Helper()
	var doc jsonapi.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("invalid error document: %v\n%s", err, rec.Body.String())
	}
	return doc.Errors
}

// -----------------------------------------------------------------------------
// Generate
// -----------------------------------------------------------------------------

func TestGenerate_JSON(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do("POST", "/v1/generate?target=Location", "application/yaml", locationSnapshot)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var resp apihttp.GenerateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.ClassName != "Location" {
		t.Errorf("expected className 'Location', got %q", resp.ClassName)
	}
	if resp.Summary.PrototypeProperties != 1 || resp.Summary.PrototypeMethods != 1 {
		t.Errorf("unexpected summary %+v", resp.Summary)
	}
	if !strings.Contains(resp.Document, "callback: LocationHrefGetter") {
		t.Errorf("unexpected document:\n%s", resp.Document)
	}
	if !strings.Contains(resp.Document, "# Generated at: 2024-01-15T12:00:00Z") {
		t.Error("expected header timestamp from the clock")
	}

	if got := testutil.ToFloat64(s.metrics.TargetsTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("targets_total{success} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(s.metrics.RequestsTotal.WithLabelValues("POST", "/v1/generate", "2xx")); got != 1 {
		t.Errorf("requests_total = %v, want 1", got)
	}
}

func TestGenerate_YAML(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do("POST", "/v1/generate?target=Location&name=Place", "application/yaml", locationSnapshot,
		"Accept", "application/yaml")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/yaml" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "className: Place\n") {
		t.Errorf("expected name override in:\n%s", body)
	}
	if err := schema.Validate(rec.Body.Bytes()); err != nil {
		t.Errorf("expected valid document: %v", err)
	}
}

func TestGenerate_Options(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do("POST", "/v1/generate?target=Location&callbacks=false&non_enumerable=false", "application/yaml", locationSnapshot)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	var resp apihttp.GenerateResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if strings.Contains(resp.Document, "callback:") {
		t.Error("callbacks should be disabled")
	}
	if resp.Summary.PrototypeMethods != 0 {
		t.Errorf("non-enumerable methods should be dropped, got %+v", resp.Summary)
	}

	rec = s.do("POST", "/v1/generate?target=Location&callbacks=maybe", "application/yaml", locationSnapshot)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGenerate_JavaScript(t *testing.T) {
	s := setupTestServer(t)
	src := "class Point {\n  x = 0;\n  norm() {}\n}\n"

	rec := s.do("POST", "/v1/generate?target=Point&instance=true", "text/javascript", src)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	var resp apihttp.GenerateResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.ClassName != "Point" || resp.Summary.InstanceProperties != 1 {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestGenerate_Errors(t *testing.T) {
	s := setupTestServer(t)

	tests := []struct {
		name        string
		target      string
		contentType string
		body        string
		wantStatus  int
		wantCode    string
	}{
		{"missing target", "/v1/generate", "application/yaml", locationSnapshot, 400, "invalid_parameter"},
		{"unknown target", "/v1/generate?target=Nope", "application/yaml", locationSnapshot, 404, "not_found"},
		{"empty body", "/v1/generate?target=Location", "application/yaml", "", 400, "bad_request"},
		{"bad media type", "/v1/generate?target=Location", "image/png", "x", 415, "unsupported_media_type"},
		{"bad snapshot", "/v1/generate?target=a", "application/yaml", "objects: [{id: a, proto: zz}]", 400, "invalid_input"},
		{"bad javascript", "/v1/generate?target=A", "text/javascript", "class A {", 400, "invalid_input"},
		{"malformed chain", "/v1/generate?target=Loop", "application/yaml", loopSnapshot, 422, "unprocessable"},
		{"too large", "/v1/generate?target=Location", "application/yaml", strings.Repeat("#", 5000), 413, "payload_too_large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do("POST", tt.target, tt.contentType, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); ct != jsonapi.ContentType {
				t.Errorf("Content-Type = %q, want %q", ct, jsonapi.ContentType)
			}
			errs := decodeErrors(t, rec)
			if len(errs) != 1 || errs[0].Code != tt.wantCode {
				t.Errorf("expected code %q, got %+v", tt.wantCode, errs)
			}
		})
	}
}

func TestGenerate_SnapshotErrorPath(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do("POST", "/v1/generate?target=a", "application/yaml", "objects:\n  - id: a\n    proto: zz\n")
	errs := decodeErrors(t, rec)
	if len(errs) != 1 || errs[0].Meta["path"] != "objects[0].proto" {
		t.Errorf("expected snapshot path in meta, got %+v", errs)
	}
}

// -----------------------------------------------------------------------------
// Batch
// -----------------------------------------------------------------------------

func TestBatch(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do("POST", "/v1/batch?target=Location&target=Missing&target=location", "application/yaml", locationSnapshot)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}

	var result app.BatchResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if result.ID != "batch_1" {
		t.Errorf("expected batch id 'batch_1', got %q", result.ID)
	}
	if len(result.Outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(result.Outcomes))
	}
	if !result.Outcomes[0].Success || result.Outcomes[1].Success || !result.Outcomes[2].Success {
		t.Errorf("unexpected outcomes %+v", result.Outcomes)
	}
	if result.Outcomes[2].ClassName != "Location" {
		t.Errorf("instance should derive its class name, got %q", result.Outcomes[2].ClassName)
	}

	if got := testutil.ToFloat64(s.metrics.BatchFailures); got != 1 {
		t.Errorf("batch failures = %v, want 1", got)
	}
}

func TestBatch_AllTargets(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do("POST", "/v1/batch", "application/json",
		`{"targets":[{"name":"A","ref":"a"},{"name":"B","ref":"b"}],"objects":[{"id":"a"},{"id":"b"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	var result app.BatchResult
	json.Unmarshal(rec.Body.Bytes(), &result)
	if len(result.Outcomes) != 2 || result.Outcomes[0].ClassName != "A" {
		t.Errorf("unexpected outcomes %+v", result.Outcomes)
	}
}

// -----------------------------------------------------------------------------
// System endpoints
// -----------------------------------------------------------------------------

func TestHealthAndVersion(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do("GET", "/health", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected health response %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do("GET", "/version", "", "")
	var v apihttp.VersionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if v.Version != "1.2.3" || v.Service != "shapegen" {
		t.Errorf("unexpected version %+v", v)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupTestServer(t)
	s.do("POST", "/v1/generate?target=Location", "application/yaml", locationSnapshot)

	rec := s.do("GET", "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, name := range []string{"shapegen_targets_total", "shapegen_http_requests_total"} {
		if !strings.Contains(body, name) {
			t.Errorf("expected %s in metrics output", name)
		}
	}
	if strings.Contains(body, `path="/metrics"`) {
		t.Error("metrics requests should not be instrumented")
	}
}

func TestRouter_NotFoundAndMethod(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do("GET", "/nope", "", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}

	rec = s.do("GET", "/v1/generate", "", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
	if rec.Header().Get("Allow") != "POST" {
		t.Errorf("Allow = %q, want POST", rec.Header().Get("Allow"))
	}
}
