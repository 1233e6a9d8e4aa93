package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/andresuchdata/erpsync/internal/domain"
	"github.com/andresuchdata/erpsync/internal/pipeline"
)

type namedJob string

func (j namedJob) Name() string { return string(j) }

func (j namedJob) Run(context.Context) (pipeline.Result, error) { return pipeline.Result{}, nil }

type fakeRunner struct {
	mu    sync.Mutex
	calls []string
	err   error
	done  chan struct{}
}

func (f *fakeRunner) Trigger(job pipeline.Job) error {
	if errors.Is(f.err, pipeline.ErrStopped) {
		return f.err
	}
	go func() { _, _ = f.RunNow(job) }()
	return nil
}

func (f *fakeRunner) RunNow(job pipeline.Job) (domain.JobRun, error) {
	f.mu.Lock()
	f.calls = append(f.calls, job.Name())
	f.mu.Unlock()
	if f.done != nil {
		f.done <- struct{}{}
	}
	status := string(pipeline.StatusSucceeded)
	if f.err != nil {
		status = string(pipeline.StatusFailed)
	}
	return domain.JobRun{ID: "run-1", Job: job.Name(), Status: status}, f.err
}

func newTestOps(runner jobRunner) http.Handler {
	registry := pipeline.NewRegistry(namedJob("inventory_sync"), namedJob("stock_alerts"))
	schedule := map[string]string{"inventory_sync": "*/30 * * * *"}
	return newOpsRouter(registry, runner, schedule, prometheus.NewRegistry())
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestOps_HealthAndMetrics(t *testing.T) {
	h := newTestOps(&fakeRunner{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || decode(t, rec)["ok"] != true {
		t.Fatalf("unexpected health response %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected metrics 200, got %d", rec.Code)
	}
}

func TestOps_ListJobs(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestOps(&fakeRunner{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rows := decode(t, rec)["rows"].([]any)
	if len(rows) != 2 {
		t.Fatalf("expected 2 jobs, got %v", rows)
	}
	first := rows[0].(map[string]any)
	if first["name"] != "inventory_sync" || first["schedule"] != "*/30 * * * *" {
		t.Fatalf("unexpected first job %v", first)
	}
	if _, ok := rows[1].(map[string]any)["schedule"]; ok {
		t.Fatalf("unscheduled job should omit schedule: %v", rows[1])
	}
}

func TestOps_RunJobWait(t *testing.T) {
	runner := &fakeRunner{}
	rec := httptest.NewRecorder()
	newTestOps(runner).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/stock_alerts/run?wait=true", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	run := decode(t, rec)["run"].(map[string]any)
	if run["job"] != "stock_alerts" || run["status"] != "succeeded" {
		t.Fatalf("unexpected run %v", run)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("expected one run, got %v", runner.calls)
	}
}

func TestOps_RunJobAsync(t *testing.T) {
	runner := &fakeRunner{done: make(chan struct{}, 1)}
	rec := httptest.NewRecorder()
	newTestOps(runner).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/inventory_sync/run", nil))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	select {
	case <-runner.done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not started")
	}
}

func TestOps_RunJobErrors(t *testing.T) {
	cases := []struct {
		name   string
		path   string
		err    error
		status int
	}{
		{"unknown job", "/jobs/nope/run?wait=true", nil, http.StatusNotFound},
		{"overlap", "/jobs/stock_alerts/run?wait=true", pipeline.ErrAlreadyRunning, http.StatusConflict},
		{"failure", "/jobs/stock_alerts/run?wait=true", errors.New("erp down"), http.StatusInternalServerError},
		{"stopped", "/jobs/stock_alerts/run?wait=true", pipeline.ErrStopped, http.StatusServiceUnavailable},
		{"stopped async", "/jobs/stock_alerts/run", pipeline.ErrStopped, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestOps(&fakeRunner{err: tc.err}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tc.path, nil))
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d %s", tc.status, rec.Code, rec.Body.String())
			}
			if decode(t, rec)["ok"] != false {
				t.Fatalf("expected ok=false: %s", rec.Body.String())
			}
		})
	}
}

func TestOps_RunJobWaitIgnoresClientCancel(t *testing.T) {
	runner := &fakeRunner{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/jobs/stock_alerts/run?wait=true", nil).WithContext(ctx)
	newTestOps(runner).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestOps_RunRequiresPost(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestOps(&fakeRunner{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/stock_alerts/run", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "run-1") {
		t.Fatal("job must not run on GET")
	}
}
