package usecase

import (
	"context"
	"log/slog"
	"time"

	"TalkIdeas/internal/ports"
	"TalkIdeas/internal/staging"
)

// Sweeper re-feeds the watched directory through the staging machine.
type Sweeper interface {
	Sweep(ctx context.Context, dir string) ([]staging.Outcome, error)
}

// Scheduler wires the interval driver with the watched-folder sweep, so
// files that appeared while no event was delivered still get staged.
type Scheduler struct {
	driver  ports.Scheduler
	sweeper Sweeper
	dir     string
	logger  *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring sweeps.
func NewScheduler(driver ports.Scheduler, sweeper Sweeper, dir string, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{driver: driver, sweeper: sweeper, dir: dir, logger: logger}
}

// Start registers the sweep with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.sweeper == nil {
		return nil
	}

	job := func(trigger time.Time) {
		outcomes, err := s.sweeper.Sweep(ctx, s.dir)
		if err != nil {
			s.logger.Error("sweep watched folder", "dir", s.dir, "error", err)
			return
		}
		counts := map[staging.State]int{}
		for _, o := range outcomes {
			counts[o.State]++
		}
		s.logger.Debug("sweep finished",
			"trigger", trigger.Format(time.RFC3339),
			"entries", len(outcomes),
			"staged", counts[staging.StateStaged],
			"duplicates", counts[staging.StateDuplicate],
			"failed", counts[staging.StateFailed],
		)
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
