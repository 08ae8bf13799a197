package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSchedule runs the sweep hourly, on the hour.
const DefaultSchedule = "0 * * * *"

const sweepTimeout = 5 * time.Minute

// Runner performs one sweep.
type Runner interface {
	RunOnce(ctx context.Context) (Result, error)
}

// Scheduler runs a Runner on a cron schedule. A run that is still going when
// the next one is due causes that next run to be skipped.
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	runner Runner
	logger *zap.Logger
}

// NewScheduler validates spec (standard five-field cron syntax or a
// descriptor such as "@every 1h") and builds a Scheduler for runner.
func NewScheduler(spec string, runner Runner, logger *zap.Logger) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultSchedule
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse reminder schedule %q: %w", spec, err)
	}

	cl := cronLogger{logger: logger.Sugar()}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	return &Scheduler{cron: c, spec: spec, runner: runner, logger: logger}, nil
}

// Start registers the sweep and starts the cron loop. The loop stops once
// ctx is cancelled; Stop can be used to wait for a running sweep.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		runCtx, cancel := context.WithTimeout(ctx, sweepTimeout)
		defer cancel()
		if _, err := s.runner.RunOnce(runCtx); err != nil {
			s.logger.Error("reminder sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule reminder sweep: %w", err)
	}

	s.cron.Start()
	s.logger.Info("reminder scheduler started", zap.String("schedule", s.spec))

	go func() {
		<-ctx.Done()
		s.cron.Stop()
	}()
	return nil
}

// Stop halts scheduling and returns a context that is done once any running
// sweep has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Entries reports how many jobs are registered.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
