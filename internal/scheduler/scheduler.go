package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"MarketLens/internal/metrics"
)

// Job is one refresh task. runID identifies the run in logs and the run log.
type Job func(ctx context.Context, runID string) error

// Scheduler runs registered jobs on a fixed refresh cadence.
type Scheduler struct {
	Cron     *cron.Cron
	Ctx      context.Context
	Interval time.Duration
	Metrics  *metrics.Registry

	enabled atomic.Bool
	mu      sync.Mutex
	jobs    map[string]Job
}

// NewScheduler creates a Scheduler ticking every interval. Overlapping ticks are skipped.
func NewScheduler(ctx context.Context, interval time.Duration, m *metrics.Registry) *Scheduler {
	logger := cron.PrintfLogger(&log.Logger)
	s := &Scheduler{
		Cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(logger)), cron.WithLogger(logger)),
		Ctx:      ctx,
		Interval: interval,
		Metrics:  m,
		jobs:     make(map[string]Job),
	}
	s.enabled.Store(true)
	return s
}

// Register adds job under name on the refresh cadence.
func (s *Scheduler) Register(name string, job Job) error {
	s.mu.Lock()
	s.jobs[name] = job
	s.mu.Unlock()
	spec := fmt.Sprintf("@every %s", s.Interval)
	if _, err := s.Cron.AddFunc(spec, func() { s.run(name, job) }); err != nil {
		return fmt.Errorf("register %s: %w", name, err)
	}
	return nil
}

// SetEnabled toggles auto-refresh. Disabled ticks are skipped.
func (s *Scheduler) SetEnabled(on bool) {
	s.enabled.Store(on)
	log.Info().Bool("enabled", on).Msg("auto-refresh toggled")
}

// Enabled reports whether auto-refresh is on.
func (s *Scheduler) Enabled() bool { return s.enabled.Load() }

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Dur("interval", s.Interval).Msg("scheduler started")
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunNow executes the named job immediately, regardless of the toggle.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	return s.execute(name, job)
}

func (s *Scheduler) run(name string, job Job) {
	if !s.Enabled() {
		log.Debug().Str("job", name).Msg("auto-refresh disabled, skipping tick")
		return
	}
	_ = s.execute(name, job)
}

func (s *Scheduler) execute(name string, job Job) error {
	if err := s.Ctx.Err(); err != nil {
		return err
	}
	runID := uuid.NewString()
	start := time.Now()
	log.Info().Str("job", name).Str("run_id", runID).Msg("refresh started")

	err := job(s.Ctx, runID)
	s.Metrics.ObserveRefresh(err)
	if err != nil {
		log.Error().Str("job", name).Str("run_id", runID).Err(err).Msg("refresh failed")
		return err
	}
	log.Info().Str("job", name).Str("run_id", runID).Dur("took", time.Since(start)).Msg("refresh finished")
	return nil
}
