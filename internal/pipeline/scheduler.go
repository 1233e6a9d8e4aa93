package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/erpsync/internal/domain"
)

// ErrStopped is returned for runs requested after Stop.
var ErrStopped = errors.New("scheduler stopped")

// Scheduler fires jobs on their cron specs through a Runner. A tick that
// finds the previous run of the same job still going is skipped. Every run
// it starts, scheduled or requested, is awaited by Stop.
type Scheduler struct {
	cron    *cron.Cron
	runner  *Runner
	entries []scheduled

	mu      sync.Mutex
	ctx     context.Context
	stopped bool
	wg      sync.WaitGroup
}

type scheduled struct {
	job  Job
	spec string
	id   cron.EntryID
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}

func NewScheduler(runner *Runner, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cronLogger{}),
			cron.WithChain(cron.Recover(cronLogger{})),
		),
		runner: runner,
		ctx:    context.Background(),
	}
}

// Add schedules job on a standard five field cron spec.
func (s *Scheduler) Add(job Job, spec string) error {
	id, err := s.cron.AddFunc(spec, func() { s.fire(job) })
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", job.Name(), spec, err)
	}
	s.entries = append(s.entries, scheduled{job: job, spec: spec, id: id})
	return nil
}

// track registers a run with Stop and returns the context runs execute in.
func (s *Scheduler) track() (context.Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil, false
	}
	s.wg.Add(1)
	return s.ctx, true
}

// fire runs job once. Failures are logged by the runner and the next tick
// starts clean.
func (s *Scheduler) fire(job Job) {
	ctx, ok := s.track()
	if !ok {
		return
	}
	defer s.wg.Done()
	_, _ = s.runner.Run(ctx, job)
}

// Trigger starts one run of job in the background.
func (s *Scheduler) Trigger(job Job) error {
	ctx, ok := s.track()
	if !ok {
		return ErrStopped
	}
	go func() {
		defer s.wg.Done()
		_, _ = s.runner.Run(ctx, job)
	}()
	return nil
}

// RunNow runs job once and waits for the outcome. The run uses the
// scheduler's context, so the caller going away does not cut it short.
func (s *Scheduler) RunNow(job Job) (domain.JobRun, error) {
	ctx, ok := s.track()
	if !ok {
		return domain.JobRun{}, ErrStopped
	}
	defer s.wg.Done()
	return s.runner.Run(ctx, job)
}

// Start begins firing jobs. With runOnStart every scheduled job also runs
// once immediately, in the background.
func (s *Scheduler) Start(ctx context.Context, runOnStart bool) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	for _, e := range s.entries {
		log.Info().Str("job", e.job.Name()).Str("spec", e.spec).Time("next", s.cron.Entry(e.id).Next).Msg("job scheduled")
	}
	if runOnStart {
		for _, e := range s.entries {
			_ = s.Trigger(e.job)
		}
	}
}

// Stop halts the scheduler, refuses new runs and waits for every run in
// progress up to the deadline of ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	cronDone := s.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Schedule lists the scheduled job names with their specs.
func (s *Scheduler) Schedule() map[string]string {
	out := make(map[string]string, len(s.entries))
	for _, e := range s.entries {
		out[e.job.Name()] = e.spec
	}
	return out
}
