// Package scheduler runs periodic maintenance for the capture queue.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// StaleSweeper fails capture jobs whose worker stopped reporting.
type StaleSweeper interface {
	SweepStale(ctx context.Context) (int, error)
}

// Scheduler wraps robfig/cron and runs the stale job sweep.
type Scheduler struct {
	cron    *cron.Cron
	sweeper StaleSweeper
	spec    string // cron spec, e.g. "@every 1m"
	logger  *zap.Logger
}

// New creates a Scheduler that sweeps on spec.
func New(sweeper StaleSweeper, spec string, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:    cron.New(cron.WithLogger(cronLogger{logger.Sugar()}), cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger.Sugar()}))),
		sweeper: sweeper,
		spec:    spec,
		logger:  logger,
	}
}

// Start registers the sweep and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.logger.Info("sweeper started", zap.String("spec", s.spec))
	return nil
}

// Stop halts the cron loop and waits for a running sweep.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("sweeper stopped")
}

// RunOnce performs a single sweep.
func (s *Scheduler) RunOnce(ctx context.Context) {
	n, err := s.sweeper.SweepStale(ctx)
	if err != nil {
		s.logger.Warn("stale job sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("failed stale capture jobs", zap.Int("count", n))
	}
}

// cronLogger routes cron's internal logging through zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
