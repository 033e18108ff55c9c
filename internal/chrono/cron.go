package chrono

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// CronAPI is what anything that needs to run on a schedule should depend on.
type CronAPI interface {
	Cron(spec string, callback func()) error
}

// StandardCron implements CronAPI with `github.com/robfig/cron/v3`. A job
// that is still running when its next activation comes around is skipped.
type StandardCron struct {
	cron *cron.Cron
}

// NewStandardCron starts a scheduler evaluating specs in loc, nil means the
// local timezone.
func NewStandardCron(loc *time.Location) StandardCron {
	if loc == nil {
		loc = time.Local
	}
	logger := cronLogger{}
	cronner := cron.New(
		cron.WithLogger(logger),
		cron.WithLocation(loc),
		cron.WithChain(
			cron.Recover(logger),
			cron.SkipIfStillRunning(logger),
		),
	)
	cronner.Start()

	return StandardCron{
		cron: cronner,
	}
}

func (s StandardCron) Cron(spec string, callback func()) error {
	_, err := s.cron.AddFunc(spec, callback)
	return err
}

// Next returns the next activation time of every scheduled job.
func (s StandardCron) Next() []time.Time {
	entries := s.cron.Entries()
	next := make([]time.Time, len(entries))
	for i, e := range entries {
		next[i] = e.Next
	}
	return next
}

// Stop stops scheduling new runs, the returned context is done once running
// jobs have finished.
func (s StandardCron) Stop() context.Context {
	return s.cron.Stop()
}

// Serial wraps callback so that a call made while a previous one is still
// running is skipped. Pass the wrapped func to Cron when the same job is also
// invoked directly.
func Serial(callback func()) func() {
	job := cron.NewChain(cron.SkipIfStillRunning(cronLogger{})).Then(cron.FuncJob(callback))
	return job.Run
}

// Validate reports whether spec is a valid 5 field cron expression.
func Validate(spec string) error {
	_, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	return nil
}

type cronLogger struct{}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug(fmt.Sprintf("cron: %s", msg), keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error(fmt.Sprintf("cron: %s", msg), append([]any{"err", err}, keysAndValues...)...)
}
