// Package scheduler runs periodic background jobs: refreshing prices for every
// live portfolio session and purging expired sessions.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// PriceRefresher refreshes prices for all live sessions and reports how many ran.
// service.SessionRegistry implements it.
type PriceRefresher interface {
	RefreshAll(ctx context.Context) int
}

// SessionCleaner removes expired sessions. service.AuthService implements it.
type SessionCleaner interface {
	PurgeExpiredSessions(ctx context.Context) (int, error)
}

// Scheduler wraps a cron runner. Jobs never overlap with their own previous run.
type Scheduler struct {
	cron    *cron.Cron
	logger  *zap.Logger
	timeout time.Duration
}

// New creates a stopped scheduler. timeout bounds each job run; zero means unbounded.
func New(logger *zap.Logger, timeout time.Duration) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := cronLogger{logger.Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:  logger,
		timeout: timeout,
	}
}

// AddPriceRefresh schedules r.RefreshAll on spec, e.g. "@every 5m".
func (s *Scheduler) AddPriceRefresh(spec string, r PriceRefresher) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := s.jobContext()
		defer cancel()
		n := r.RefreshAll(ctx)
		s.logger.Debug("scheduled price refresh finished", zap.Int("sessions", n))
	})
	if err != nil {
		return fmt.Errorf("invalid price refresh schedule %q: %w", spec, err)
	}
	return nil
}

// AddSessionCleanup schedules c.PurgeExpiredSessions on spec.
func (s *Scheduler) AddSessionCleanup(spec string, c SessionCleaner) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := s.jobContext()
		defer cancel()
		if _, err := c.PurgeExpiredSessions(ctx); err != nil {
			s.logger.Error("session cleanup failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid session cleanup schedule %q: %w", spec, err)
	}
	return nil
}

// Len returns the number of scheduled jobs.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling new runs and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out with jobs still running")
	}
}

func (s *Scheduler) jobContext() (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(context.Background(), s.timeout)
	}
	return context.WithCancel(context.Background())
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
