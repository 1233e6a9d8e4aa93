package pipeline

import (
	"context"
	"sort"

	"github.com/andresuchdata/erpsync/internal/domain"
)

// Job is one scheduled unit of work: fetch, transform and write. Run
// performs exactly one complete run; scheduling is the caller's concern.
type Job interface {
	// Name returns the unique identifier for this job
	Name() string

	// Run executes the job once and reports what it wrote
	Run(ctx context.Context) (Result, error)
}

// Result summarizes a finished run.
type Result struct {
	// Rows is the number of rows written to the store.
	Rows int
	// Datasets lists the cached read datasets the run made stale.
	Datasets []string
}

// RunStatus represents the state of a job run
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusSucceeded RunStatus = "succeeded"
	StatusFailed    RunStatus = "failed"
)

// Registry holds the jobs known to a process, by name.
type Registry struct {
	jobs map[string]Job
}

func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{jobs: make(map[string]Job, len(jobs))}
	for _, j := range jobs {
		r.Register(j)
	}
	return r
}

// Register adds j, replacing a job with the same name.
func (r *Registry) Register(j Job) {
	r.jobs[j.Name()] = j
}

func (r *Registry) Get(name string) (Job, error) {
	j, ok := r.jobs[name]
	if !ok {
		return nil, domain.ErrUnknownJob
	}
	return j, nil
}

// Names returns the registered job names in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.jobs))
	for n := range r.jobs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
