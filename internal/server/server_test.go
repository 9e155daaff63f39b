package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"monoshift/internal/agents"
	"monoshift/internal/analysis"
	"monoshift/internal/boundary"
	"monoshift/internal/pipeline"
)

func testReport(runID string) *pipeline.RunReport {
	return &pipeline.RunReport{
		RunID: runID,
		Outcomes: map[string]pipeline.Outcome{
			"analyzer_analyze_1": {
				TaskID: "analyzer_analyze_1",
				Status: pipeline.StatusCompleted,
				Analysis: &agents.AnalyzeResult{
					RepoURL: "/tmp/repo",
					Analysis: &analysis.Result{
						Entities: []analysis.Entity{
							{Name: "Order", Namespace: "Shop.Orders"},
						},
						Dependencies: []analysis.Dependency{
							{Source: "Shop.Orders", Type: "namespace", Name: "Shop.Users"},
							{Source: "Shop.Orders", Type: "class", Name: "User"},
						},
					},
				},
			},
			"architect_identify_boundaries_2": {
				TaskID: "architect_identify_boundaries_2",
				Status: pipeline.StatusCompleted,
				Boundaries: []boundary.ServiceBoundary{
					{Name: "OrderService", Files: []string{"src/Order.cs"}},
				},
			},
		},
		Audit: pipeline.CoverageAudit{
			TotalFiles:        1,
			SucceededServices: []string{"OrderService"},
		},
	}
}

// waitForState polls until the run leaves the processing state.
func waitForState(t *testing.T, store *RunStore, id string) Run {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		run, ok := store.Get(id)
		if ok && run.State != StateProcessing {
			return run
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("run never finished")
	return Run{}
}

func newTestServer(runner Runner) (*Server, *RunStore) {
	store := NewRunStore(time.Hour, 10)
	return New(store, runner, nil, nil), store
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAnalyzeLifecycle(t *testing.T) {
	runner := func(_ context.Context, runID, repoURL string) (*pipeline.RunReport, error) {
		if repoURL != "/tmp/repo" {
			return nil, fmt.Errorf("unexpected repo %q", repoURL)
		}
		return testReport(runID), nil
	}
	srv, store := newTestServer(runner)
	router := srv.Router()

	rec := postJSON(t, router, "/api/analyze", map[string]string{"repo_url": "/tmp/repo"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var accepted map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &accepted); err != nil {
		t.Fatal(err)
	}
	runID := accepted["run_id"]
	if runID == "" {
		t.Fatal("no run_id in response")
	}

	run := waitForState(t, store, runID)
	if run.State != StateCompleted {
		t.Fatalf("state = %q, error %q", run.State, run.Error)
	}

	// Full run record.
	req := httptest.NewRequest(http.MethodGet, "/api/analysis/"+runID, nil)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, req)
	if getRec.Code != http.StatusOK {
		t.Fatalf("get status = %d", getRec.Code)
	}
	var got Run
	if err := json.Unmarshal(getRec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Report == nil || got.Report.Audit.TotalFiles != 1 {
		t.Fatalf("report not returned: %+v", got.Report)
	}

	// Derived views.
	req = httptest.NewRequest(http.MethodGet, "/api/services/"+runID, nil)
	svcRec := httptest.NewRecorder()
	router.ServeHTTP(svcRec, req)
	var services []boundary.ServiceBoundary
	if err := json.Unmarshal(svcRec.Body.Bytes(), &services); err != nil {
		t.Fatal(err)
	}
	if len(services) != 1 || services[0].Name != "OrderService" {
		t.Fatalf("services = %+v", services)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/entities/"+runID, nil)
	entRec := httptest.NewRecorder()
	router.ServeHTTP(entRec, req)
	var entities []analysis.Entity
	if err := json.Unmarshal(entRec.Body.Bytes(), &entities); err != nil {
		t.Fatal(err)
	}
	if len(entities) != 1 || entities[0].Name != "Order" {
		t.Fatalf("entities = %+v", entities)
	}
}

func TestDependenciesGroupedBySource(t *testing.T) {
	runner := func(_ context.Context, runID, _ string) (*pipeline.RunReport, error) {
		return testReport(runID), nil
	}
	srv, store := newTestServer(runner)
	router := srv.Router()

	rec := postJSON(t, router, "/api/analyze", map[string]string{"repo_url": "/tmp/repo"})
	var accepted map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &accepted); err != nil {
		t.Fatal(err)
	}
	waitForState(t, store, accepted["run_id"])

	req := httptest.NewRequest(http.MethodGet, "/api/dependencies/"+accepted["run_id"], nil)
	depRec := httptest.NewRecorder()
	router.ServeHTTP(depRec, req)
	if depRec.Code != http.StatusOK {
		t.Fatalf("status = %d", depRec.Code)
	}

	var body struct {
		RunID               string                      `json:"run_id"`
		ServiceDependencies map[string][]dependencyEdge `json:"service_dependencies"`
	}
	if err := json.Unmarshal(depRec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	edges := body.ServiceDependencies["Shop.Orders"]
	if len(edges) != 2 {
		t.Fatalf("edges = %+v", body.ServiceDependencies)
	}
	if edges[0].Target != "Shop.Users" || edges[0].Type != "namespace" {
		t.Fatalf("first edge = %+v", edges[0])
	}
}

func TestAnalyzeFailureRecorded(t *testing.T) {
	runner := func(context.Context, string, string) (*pipeline.RunReport, error) {
		return nil, errors.New("clone failed")
	}
	srv, store := newTestServer(runner)

	rec := postJSON(t, srv.Router(), "/api/analyze", map[string]string{"repo_url": "git@bad"})
	var accepted map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &accepted); err != nil {
		t.Fatal(err)
	}

	run := waitForState(t, store, accepted["run_id"])
	if run.State != StateFailed {
		t.Fatalf("state = %q", run.State)
	}
	if run.Error != "clone failed" {
		t.Fatalf("error = %q", run.Error)
	}
}

func TestAnalyzeRejectsMissingURL(t *testing.T) {
	srv, _ := newTestServer(nil)
	rec := postJSON(t, srv.Router(), "/api/analyze", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGetUnknownRun(t *testing.T) {
	srv, _ := newTestServer(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/analysis/nope", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSearchDisabled(t *testing.T) {
	srv, _ := newTestServer(nil)
	rec := postJSON(t, srv.Router(), "/api/search", map[string]string{"run_id": "x", "query": "orders"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}
