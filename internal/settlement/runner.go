package settlement

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Reporter publishes a finished run to the settlement event stream. A
// publishing error never fails the run; the runner logs it and moves on.
type Reporter interface {
	PublishRun(ctx context.Context, summary RunSummary) error
}

// RunObserver records metrics for a finished run.
type RunObserver interface {
	ObserveRun(summary RunSummary, duration time.Duration)
}

// ErrUnknownEngine is returned when a run is requested for an engine name
// the runner does not know.
type ErrUnknownEngine struct {
	Name string
}

func (e ErrUnknownEngine) Error() string {
	return fmt.Sprintf("unknown settlement engine: %s", e.Name)
}

// Runner executes settlement engines and fans their results out to the
// reporter and metrics. The daily trigger and the admin API both go through
// it.
type Runner struct {
	engines  []Engine
	reporter Reporter
	observer RunObserver
	logger   *slog.Logger
}

// NewRunner creates a runner over the given engines. Reporter and observer
// may be nil, in which case the corresponding step is skipped.
func NewRunner(logger *slog.Logger, reporter Reporter, observer RunObserver, engines ...Engine) *Runner {
	return &Runner{
		engines:  engines,
		reporter: reporter,
		observer: observer,
		logger:   logger,
	}
}

// RunAll executes every engine in order against the target date and returns
// their summaries. Engines run sequentially; parallelism lives inside each
// engine's account fan-out.
func (r *Runner) RunAll(ctx context.Context, targetDate time.Time) []RunSummary {
	summaries := make([]RunSummary, 0, len(r.engines))
	for _, engine := range r.engines {
		summaries = append(summaries, r.run(ctx, engine, targetDate))
	}
	return summaries
}

// RunEngine executes the engine with the given name against the target date.
func (r *Runner) RunEngine(ctx context.Context, name string, targetDate time.Time) (RunSummary, error) {
	for _, engine := range r.engines {
		if engine.Name() == name {
			return r.run(ctx, engine, targetDate), nil
		}
	}
	return RunSummary{}, ErrUnknownEngine{Name: name}
}

func (r *Runner) run(ctx context.Context, engine Engine, targetDate time.Time) RunSummary {
	start := time.Now()
	result := engine.Run(ctx, targetDate)
	duration := time.Since(start)
	summary := result.Snapshot()

	if r.observer != nil {
		r.observer.ObserveRun(summary, duration)
	}

	if r.reporter != nil {
		if err := r.reporter.PublishRun(ctx, summary); err != nil {
			r.logger.Error("Failed to publish settlement run",
				"run_id", summary.RunID,
				"engine", summary.Engine,
				"error", err)
		}
	}

	r.logger.Info("Settlement run complete",
		"run_id", summary.RunID,
		"engine", summary.Engine,
		"duration", duration,
		"successes", summary.SuccessCount,
		"failures", summary.FailureCount,
		"errors", summary.ErrorCount)
	return summary
}
