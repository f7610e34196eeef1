package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	robfig "github.com/robfig/cron/v3"
)

// Job is a function run on a cron schedule ("@every 1m", "0 0 1 * *").
type Job struct {
	Name     string
	Schedule string
	Fn       func(ctx context.Context) error
}

// Scheduler runs registered jobs until stopped. A job that is still running
// when its next tick fires is skipped for that tick.
type Scheduler struct {
	mu     sync.Mutex
	cron   *robfig.Cron
	jobs   []Job
	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   robfig.New(robfig.WithChain(robfig.SkipIfStillRunning(robfig.DiscardLogger))),
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddJob registers a job. The schedule uses the standard five-field cron
// syntax or a descriptor such as "@every 30s".
func (s *Scheduler) AddJob(name, schedule string, fn func(ctx context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("cron job %s: function required", name)
	}
	job := Job{Name: name, Schedule: schedule, Fn: fn}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.cron.AddFunc(schedule, func() { execute(s.context(), job) }); err != nil {
		return fmt.Errorf("cron job %s: invalid schedule %q: %w", name, schedule, err)
	}
	s.jobs = append(s.jobs, job)
	slog.Info("cron job registered", "name", name, "schedule", schedule)
	return nil
}

func (s *Scheduler) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// Start runs every job once and then hands them to the cron loop. Jobs stop
// when ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.cancel()
	s.ctx, s.cancel = context.WithCancel(ctx)
	jobCount := len(s.jobs)
	s.mu.Unlock()

	_ = s.RunOnce(s.context())
	s.cron.Start()
	slog.Info("cron scheduler started", "job_count", jobCount)
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	slog.Info("cron scheduler stopped")
}

func execute(ctx context.Context, job Job) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	start := time.Now()
	if err := job.Fn(ctx); err != nil {
		slog.Error("cron job failed", "name", job.Name, "error", err, "duration", time.Since(start))
		return fmt.Errorf("%s: %w", job.Name, err)
	}
	slog.Debug("cron job completed", "name", job.Name, "duration", time.Since(start))
	return nil
}

// RunOnce runs every job once in registration order and joins their errors.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.mu.Lock()
	jobs := append([]Job(nil), s.jobs...)
	s.mu.Unlock()

	var errs []error
	for _, job := range jobs {
		if err := execute(ctx, job); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
