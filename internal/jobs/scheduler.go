// Package jobs runs the periodic background work of the API.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"zenith/internal/middleware"
	"zenith/internal/service"

	"github.com/robfig/cron/v3"
)

// runTimeout bounds a single cleanup run.
const runTimeout = 10 * time.Minute

// CleanupRunner is implemented by service.CleanupService.
type CleanupRunner interface {
	Run(ctx context.Context) (service.CleanupResult, error)
}

// Scheduler triggers the archive cleanup on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	runner   CleanupRunner
	schedule string
	baseCtx  context.Context
	cancel   context.CancelFunc
}

// NewScheduler validates schedule (standard five-field cron or a descriptor
// such as @daily) and registers the cleanup job. Nothing runs before Start.
func NewScheduler(schedule string, runner CleanupRunner) (*Scheduler, error) {
	logger := cronLogger{l: middleware.Logger}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:     c,
		runner:   runner,
		schedule: schedule,
		baseCtx:  ctx,
		cancel:   cancel,
	}
	if _, err := c.AddFunc(schedule, s.tick); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(s.baseCtx, runTimeout)
	defer cancel()
	// errors are logged and counted by the cleanup service; the next tick retries
	_, _ = s.RunNow(ctx)
}

// RunNow runs the cleanup once, outside the schedule.
func (s *Scheduler) RunNow(ctx context.Context) (service.CleanupResult, error) {
	return s.runner.Run(ctx)
}

// Start begins firing the job in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	middleware.Logger.Info("cleanup scheduler started", slog.String("schedule", s.schedule))
}

// Stop halts the schedule, cancels a run in progress and waits for it to
// return or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopped := s.cron.Stop()
	s.cancel()
	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger routes cron's internal logging through slog.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
