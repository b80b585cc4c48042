// Package statsync periodically recomputes the denormalized challenge and
// rating aggregates (total completed challenges, average rating) and writes
// them back onto profiles. The leaderboard never reads these fields — they
// exist for cheap profile reads.
package statsync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/skillbridge/skillbridge/internal/domain"
	"github.com/skillbridge/skillbridge/internal/scoring"
)

// Recorder counts refresher runs. Nil-safe implementations expected.
type Recorder interface {
	RecordStatsSyncRun(err error)
}

// Refresher runs the periodic stats synchronization.
type Refresher struct {
	profiles   domain.ProfileStore
	challenges domain.ChallengeStore
	ratings    domain.RatingStore
	logger     *slog.Logger
	recorder   Recorder
	cron       *cron.Cron
}

// New creates a Refresher. The recorder may be nil.
func New(profiles domain.ProfileStore, challenges domain.ChallengeStore, ratings domain.RatingStore, logger *slog.Logger, recorder Recorder) *Refresher {
	return &Refresher{
		profiles:   profiles,
		challenges: challenges,
		ratings:    ratings,
		logger:     logger,
		recorder:   recorder,
	}
}

// Start schedules the refresher with the given cron spec and runs one
// synchronization immediately. Returns a stop function.
func (r *Refresher) Start(ctx context.Context, spec string) (func(), error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if err := r.RunOnce(ctx); err != nil {
			r.logger.ErrorContext(ctx, "stats sync failed",
				slog.String("error", err.Error()),
			)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid stats sync schedule %q: %w", spec, err)
	}
	r.cron = c

	c.Start()
	r.logger.InfoContext(ctx, "stats refresher started", slog.String("schedule", spec))

	// Prime the aggregates so fresh deployments don't serve zeroes until
	// the first tick.
	go func() {
		if err := r.RunOnce(ctx); err != nil {
			r.logger.ErrorContext(ctx, "initial stats sync failed",
				slog.String("error", err.Error()),
			)
		}
	}()

	return func() {
		stopCtx := c.Stop()
		select {
		case <-stopCtx.Done():
		case <-time.After(5 * time.Second):
		}
		r.logger.Info("stats refresher stopped")
	}, nil
}

// RunOnce recomputes and persists the aggregates for every profile.
func (r *Refresher) RunOnce(ctx context.Context) error {
	start := time.Now()
	err := r.sync(ctx)
	if r.recorder != nil {
		r.recorder.RecordStatsSyncRun(err)
	}
	if err != nil {
		return err
	}
	r.logger.DebugContext(ctx, "stats sync completed",
		slog.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (r *Refresher) sync(ctx context.Context) error {
	profiles, err := r.profiles.List(ctx)
	if err != nil {
		return fmt.Errorf("listing profiles: %w", err)
	}
	completed, err := r.challenges.ListByStatus(ctx, domain.ChallengeCompleted)
	if err != nil {
		return fmt.Errorf("listing completed challenges: %w", err)
	}
	ratings, err := r.ratings.List(ctx)
	if err != nil {
		return fmt.Errorf("listing ratings: %w", err)
	}

	for i := range profiles {
		p := &profiles[i]
		total, avg := scoring.ProfileStats(p.ID, completed, ratings)
		if total == p.TotalChallenges && avg == p.AverageRating {
			continue // already up to date
		}
		if err := r.profiles.UpdateStats(ctx, p.ID, total, avg); err != nil {
			return fmt.Errorf("updating stats for profile %s: %w", p.ID, err)
		}
	}
	return nil
}
