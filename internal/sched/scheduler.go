// Package sched drives periodic watch runs on a cron schedule.
package sched

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ymgch/visasq-watch/internal/app"
)

// runTimeout bounds a single scheduled run so a wedged fetch cannot
// stall every later tick.
const runTimeout = 10 * time.Minute

// Runner executes a single watch cycle.
type Runner interface {
	RunOnce(ctx context.Context) (app.RunReport, error)
}

// Scheduler triggers watch runs on a cron schedule. Runs never overlap:
// a tick that fires while a run is still in flight is skipped.
type Scheduler struct {
	runner  Runner
	logger  *zap.Logger
	cron    *cron.Cron
	running atomic.Bool
}

// New creates a scheduler around the given runner.
func New(runner Runner, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		runner: runner,
		logger: logger,
		cron:   cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
	}
}

// Start registers the schedule and begins ticking. The schedule string
// uses the standard cron format plus descriptors such as "@every 15m".
func (s *Scheduler) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.tick); err != nil {
		return fmt.Errorf("parse schedule %q: %w", schedule, err)
	}
	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("schedule", schedule))
	return nil
}

// RunNow triggers a run outside the schedule, subject to the same
// overlap guard as scheduled ticks.
func (s *Scheduler) RunNow() {
	s.tick()
}

// Stop halts the schedule and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) tick() {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("previous run still in progress, skipping tick")
		return
	}
	defer s.running.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	report, err := s.runner.RunOnce(ctx)
	if err != nil {
		s.logger.Error("scheduled run failed",
			zap.String("run_id", report.RunID),
			zap.Error(err))
		return
	}
	s.logger.Info("scheduled run finished",
		zap.String("run_id", report.RunID),
		zap.String("source", report.Source),
		zap.Int("matches", report.Matches),
		zap.Bool("notified", report.Notified))
}
