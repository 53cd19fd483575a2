// Package scheduler contains the time-based trigger that fires the daily
// settlement run.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/homeplanner/settlement-scheduler/internal/config"
	"github.com/homeplanner/settlement-scheduler/internal/settlement"
)

// DailyTrigger fires the settlement runner once per day at the configured
// local time. Each firing settles against that day's date; schedules missed
// while the process was down are caught up by the due-date filters, not by
// replaying missed firings.
type DailyTrigger struct {
	runner *settlement.Runner
	runAt  string
	logger *slog.Logger
	now    func() time.Time
}

// NewDailyTrigger creates a trigger that fires at cfg.RunAt ("HH:MM").
func NewDailyTrigger(logger *slog.Logger, cfg *config.SchedulerConfig, runner *settlement.Runner) *DailyTrigger {
	return &DailyTrigger{
		runner: runner,
		runAt:  cfg.RunAt,
		logger: logger,
		now:    time.Now,
	}
}

// Start runs the trigger loop until the context is canceled.
func (t *DailyTrigger) Start(ctx context.Context) {
	t.logger.Info("Starting daily settlement trigger", "run_at", t.runAt)

	for {
		now := t.now()
		next := nextRun(now, t.runAt)
		t.logger.Info("Next settlement run scheduled", "at", next)

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			t.logger.Info("Daily settlement trigger stopping due to context cancellation.")
			return
		case firedAt := <-timer.C:
			targetDate := localMidnight(firedAt)
			t.logger.Info("Daily settlement run firing", "target_date", targetDate.Format("2006-01-02"))
			t.runner.RunAll(ctx, targetDate)
		}
	}
}

// localMidnight returns midnight of t's calendar day in t's location.
// Truncating to 24h would yield the UTC day and shift the target date for
// any deployment east or west of UTC.
func localMidnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// nextRun returns the next occurrence of the "HH:MM" time of day strictly
// after now. RunAt is validated at config load, so a parse failure here
// falls back to midnight.
func nextRun(now time.Time, runAt string) time.Time {
	at, err := time.Parse("15:04", runAt)
	if err != nil {
		at = time.Time{}
	}

	next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
