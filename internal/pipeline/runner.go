package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/erpsync/internal/cache"
	"github.com/andresuchdata/erpsync/internal/domain"
	"github.com/andresuchdata/erpsync/internal/events"
)

// ErrAlreadyRunning is returned when a run of the same job is in progress.
var ErrAlreadyRunning = errors.New("job already running")

// Runner executes jobs one run at a time per job name, recording every run
// in job_runs, in the metrics and on the event stream.
type Runner struct {
	runs    RunRepository
	cache   cache.DashboardCache
	events  events.Publisher
	metrics *Metrics
	now     func() time.Time
	newID   func() string

	mu      sync.Mutex
	running map[string]bool
}

func NewRunner(runs RunRepository, cacheImpl cache.DashboardCache, publisher events.Publisher, metrics *Metrics) *Runner {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopDashboardCache()
	}
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Runner{
		runs:    runs,
		cache:   cacheImpl,
		events:  publisher,
		metrics: metrics,
		now:     time.Now,
		newID:   uuid.NewString,
		running: make(map[string]bool),
	}
}

func (r *Runner) acquire(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running[name] {
		return false
	}
	r.running[name] = true
	return true
}

func (r *Runner) release(name string) {
	r.mu.Lock()
	delete(r.running, name)
	r.mu.Unlock()
}

// Run executes job once. If a run of the same job is still in progress the
// call returns ErrAlreadyRunning without running it. The returned error is
// the job's own failure; bookkeeping failures are only logged.
func (r *Runner) Run(ctx context.Context, job Job) (domain.JobRun, error) {
	name := job.Name()
	if !r.acquire(name) {
		r.metrics.skip(name)
		log.Warn().Str("job", name).Msg("previous run still in progress, skipping")
		return domain.JobRun{}, ErrAlreadyRunning
	}
	defer r.release(name)

	run := domain.JobRun{
		ID:        r.newID(),
		Job:       name,
		Status:    string(StatusRunning),
		StartedAt: r.now(),
	}
	logger := log.With().Str("job", name).Str("run_id", run.ID).Logger()

	if err := r.runs.Start(ctx, run); err != nil {
		logger.Warn().Err(err).Msg("could not record job start")
	}
	r.metrics.started(name)
	logger.Info().Msg("job started")

	result, err := r.execute(ctx, job)

	finished := r.now()
	run.FinishedAt = &finished
	run.Rows = result.Rows
	run.Status = string(StatusSucceeded)
	if err != nil {
		msg := err.Error()
		run.Status = string(StatusFailed)
		run.ErrorMessage = &msg
	}

	// Bookkeeping must survive a cancelled job context.
	bookCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if ferr := r.runs.Finish(bookCtx, run); ferr != nil {
		logger.Warn().Err(ferr).Msg("could not record job outcome")
	}
	took := finished.Sub(run.StartedAt)
	r.metrics.finished(name, RunStatus(run.Status), run.Rows, took, finished)

	if err == nil && len(result.Datasets) > 0 {
		if cerr := r.cache.Invalidate(bookCtx, result.Datasets...); cerr != nil {
			logger.Warn().Err(cerr).Strs("datasets", result.Datasets).Msg("cache invalidation failed")
		}
	}
	if perr := r.events.Publish(bookCtx, events.FromRun(run)); perr != nil {
		logger.Warn().Err(perr).Msg("could not publish job run event")
	}

	if err != nil {
		logger.Error().Err(err).Dur("took", took).Msg("job failed")
		return run, err
	}
	logger.Info().Int("rows", run.Rows).Dur("took", took).Msg("job finished")
	return run, nil
}

// execute runs job, turning a panic into an error.
func (r *Runner) execute(ctx context.Context, job Job) (res Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			log.Error().Str("job", job.Name()).Bytes("stack", debug.Stack()).Msg("job panicked")
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return job.Run(ctx)
}
