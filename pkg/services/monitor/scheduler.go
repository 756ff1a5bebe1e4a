package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/de-tools/benford-monitor/pkg/metrics"
	"github.com/de-tools/benford-monitor/pkg/models/domain"
)

var (
	ErrInvalidSchedule = errors.New("schedule needs a positive interval or a cron expression")
	ErrAlreadyStarted  = errors.New("scheduler already started")
)

const (
	stateIdle int32 = iota
	stateRunning
)

// Cycle is one unit of scheduled work. *Pipeline implements it.
type Cycle interface {
	RunCycle(ctx context.Context) (CycleResult, error)
}

type SchedulerSettings struct {
	Interval time.Duration
	// Cron takes precedence over Interval when set.
	Cron string
	// CycleTimeout bounds a single cycle. Zero means no bound beyond the run context.
	CycleTimeout time.Duration
	// SkipInitialRun disables the cycle that otherwise runs as soon as Run starts.
	SkipInitialRun bool
}

// Scheduler triggers cycles on a fixed period. It is Idle or Running, and a tick that
// arrives while a cycle is Running is dropped rather than queued. A Scheduler runs once:
// a second Run returns ErrAlreadyStarted and Trigger refuses work once Run is draining.
type Scheduler struct {
	cycle    Cycle
	settings SchedulerSettings
	schedule cron.Schedule
	metrics  *metrics.Metrics

	state   atomic.Int32
	started atomic.Bool
	stopped atomic.Bool
	done    chan struct{}

	// lifecycle orders wg.Add in Trigger against wg.Wait in drain.
	lifecycle sync.RWMutex
	closing   bool
	wg        sync.WaitGroup

	mu   sync.RWMutex
	last *domain.CycleOutcome
}

func NewScheduler(cycle Cycle, settings SchedulerSettings, m *metrics.Metrics) (*Scheduler, error) {
	if cycle == nil {
		return nil, errors.New("scheduler requires a cycle")
	}

	s := &Scheduler{
		cycle:    cycle,
		settings: settings,
		metrics:  m,
		done:     make(chan struct{}),
	}

	if settings.Cron != "" {
		schedule, err := cron.ParseStandard(settings.Cron)
		if err != nil {
			return nil, fmt.Errorf("failed to parse cron expression %q: %w", settings.Cron, err)
		}
		s.schedule = schedule
	} else if settings.Interval <= 0 {
		return nil, ErrInvalidSchedule
	}

	return s, nil
}

func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

func (s *Scheduler) State() domain.SchedulerState {
	switch {
	case s.state.Load() == stateRunning:
		return domain.SchedulerStateRunning
	case s.stopped.Load():
		return domain.SchedulerStateStopped
	default:
		return domain.SchedulerStateIdle
	}
}

func (s *Scheduler) LastOutcome() *domain.CycleOutcome {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil
	}
	out := *s.last
	return &out
}

func (s *Scheduler) Status() domain.SchedulerStatus {
	interval := s.settings.Interval.String()
	if s.settings.Cron != "" {
		interval = s.settings.Cron
	}
	return domain.SchedulerStatus{
		State:     s.State(),
		Interval:  interval,
		LastCycle: s.LastOutcome(),
	}
}

// Run triggers cycles until ctx is cancelled, then waits for the in-flight cycle to return.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	logger := zerolog.Ctx(ctx)
	defer close(s.done)
	defer s.stopped.Store(true)
	defer s.drain()

	logger.Info().Str("schedule", s.Status().Interval).Msg("scheduler started")

	if !s.settings.SkipInitialRun {
		s.Trigger(ctx)
	}

	if s.schedule != nil {
		s.runCron(ctx)
	} else {
		s.runTicker(ctx)
	}

	logger.Info().Msg("scheduler stopping")
	return nil
}

func (s *Scheduler) drain() {
	s.lifecycle.Lock()
	s.closing = true
	s.lifecycle.Unlock()
	s.wg.Wait()
}

func (s *Scheduler) runTicker(ctx context.Context) {
	ticker := time.NewTicker(s.settings.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Trigger(ctx)
		}
	}
}

func (s *Scheduler) runCron(ctx context.Context) {
	next := s.schedule.Next(time.Now())
	timer := time.NewTimer(time.Until(next))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.Trigger(ctx)
			next = s.schedule.Next(next)
			if wait := time.Until(next); wait > 0 {
				timer.Reset(wait)
			} else {
				next = s.schedule.Next(time.Now())
				timer.Reset(time.Until(next))
			}
		}
	}
}

// Trigger starts a cycle in the background if the scheduler is Idle and reports whether it did.
// It always reports false once Run has begun shutting down.
func (s *Scheduler) Trigger(ctx context.Context) bool {
	s.lifecycle.RLock()
	defer s.lifecycle.RUnlock()
	if s.closing {
		return false
	}

	if !s.state.CompareAndSwap(stateIdle, stateRunning) {
		zerolog.Ctx(ctx).Warn().Msg("cycle skipped, previous cycle still running")
		s.metrics.ObserveCycle(metrics.StatusSkipped, 0)
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.state.Store(stateIdle)
		s.execute(ctx)
	}()
	return true
}

func (s *Scheduler) execute(ctx context.Context) {
	logger := zerolog.Ctx(ctx)

	cycleCtx := ctx
	if s.settings.CycleTimeout > 0 {
		var cancel context.CancelFunc
		cycleCtx, cancel = context.WithTimeout(ctx, s.settings.CycleTimeout)
		defer cancel()
	}

	res, err := s.runSafely(cycleCtx)
	elapsed := res.FinishedAt.Sub(res.StartedAt)

	outcome := &domain.CycleOutcome{
		CycleID:    res.ID,
		Status:     domain.CycleStatusSucceeded,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
	}

	if err != nil {
		msg := err.Error()
		outcome.Status = domain.CycleStatusFailed
		outcome.Error = &msg
		if stage, ok := FailedStage(err); ok {
			outcome.Stage = string(stage)
		}
		logger.Error().
			Err(err).
			Str("cycle_id", res.ID).
			Str("stage", outcome.Stage).
			Msg("cycle failed")
		s.metrics.ObserveCycle(metrics.StatusFailure, elapsed)
	} else {
		logger.Info().
			Str("cycle_id", res.ID).
			Dur("elapsed", elapsed).
			Msg("cycle finished")
		s.metrics.ObserveCycle(metrics.StatusSuccess, elapsed)
	}

	s.mu.Lock()
	s.last = outcome
	s.mu.Unlock()
}

// runSafely guards against Cycle implementations that panic outside their own recovery.
func (s *Scheduler) runSafely(ctx context.Context) (res CycleResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panicked: %v", r)
			if res.StartedAt.IsZero() {
				res.StartedAt = time.Now()
			}
			res.FinishedAt = time.Now()
		}
	}()
	return s.cycle.RunCycle(ctx)
}
