package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/erpsync/internal/domain"
	"github.com/andresuchdata/erpsync/internal/pipeline"
)

// jobRunner starts runs that Stop waits for.
type jobRunner interface {
	Trigger(job pipeline.Job) error
	RunNow(job pipeline.Job) (domain.JobRun, error)
}

type jobLookup interface {
	Get(name string) (pipeline.Job, error)
	Names() []string
}

type opsServer struct {
	jobs     jobLookup
	runner   jobRunner
	schedule map[string]string
}

// newOpsRouter serves the worker's health, metrics and manual job triggers.
func newOpsRouter(jobs jobLookup, runner jobRunner, schedule map[string]string, gatherer prometheus.Gatherer) http.Handler {
	s := &opsServer{jobs: jobs, runner: runner, schedule: schedule}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/jobs", s.listJobs).Methods(http.MethodGet)
	r.HandleFunc("/jobs/{name}/run", s.runJob).Methods(http.MethodPost)
	return r
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn().Err(err).Msg("ops: write response failed")
	}
}

func (s *opsServer) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *opsServer) listJobs(w http.ResponseWriter, _ *http.Request) {
	type entry struct {
		Name     string `json:"name"`
		Schedule string `json:"schedule,omitempty"`
	}
	names := s.jobs.Names()
	out := make([]entry, 0, len(names))
	for _, name := range names {
		out = append(out, entry{Name: name, Schedule: s.schedule[name]})
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "rows": out})
}

// runJob triggers one run. With ?wait=true the response carries the run
// outcome, otherwise it returns 202 at once. A disconnecting client never
// cancels the run.
func (s *opsServer) runJob(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	job, err := s.jobs.Get(name)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": err.Error()})
		return
	}

	if r.URL.Query().Get("wait") != "true" {
		if err := s.runner.Trigger(job); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"ok": true, "job": name})
		return
	}

	run, err := s.runner.RunNow(job)
	switch {
	case errors.Is(err, pipeline.ErrStopped):
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": err.Error()})
	case errors.Is(err, pipeline.ErrAlreadyRunning):
		writeJSON(w, http.StatusConflict, map[string]any{"ok": false, "error": err.Error()})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error(), "run": run})
	default:
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "run": run})
	}
}
