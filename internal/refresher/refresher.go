// Package refresher runs the background sweep that renews CGM access
// tokens before they expire.
package refresher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bigMackD/Glyloop-sub002/internal/metrics"
	"github.com/bigMackD/Glyloop-sub002/internal/requestid"
	"github.com/bigMackD/Glyloop-sub002/internal/usecase"
	"github.com/robfig/cron/v3"
)

type Refresher struct {
	links     *usecase.LinkUsecase
	logger    *slog.Logger
	schedule  cron.Schedule
	threshold time.Duration
}

// New parses the standard five-field cron expression that sets the sweep
// cadence. Threshold is how far ahead of expiry a token is considered due.
func New(links *usecase.LinkUsecase, logger *slog.Logger, cronExpr string, threshold time.Duration) (*Refresher, error) {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("parse refresh cron %q: %w", cronExpr, err)
	}
	return &Refresher{
		links:     links,
		logger:    logger.With("component", "refresher"),
		schedule:  schedule,
		threshold: threshold,
	}, nil
}

func (r *Refresher) Start(ctx context.Context) {
	r.logger.Info("refresher started", "threshold", r.threshold)

	for {
		next := r.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			r.logger.Info("refresher shut down")
			return
		case <-timer.C:
			r.sweep(ctx)
		}
	}
}

func (r *Refresher) sweep(ctx context.Context) {
	started := time.Now()
	sweepID := requestid.New()
	refreshed, failed, err := r.links.RefreshDueLinks(ctx, r.threshold, sweepID)
	metrics.RefreshCycleDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		r.logger.Error("refresh sweep", "error", err, "sweep_id", sweepID)
		return
	}
	if refreshed > 0 || failed > 0 {
		r.logger.Info("refresh sweep finished", "refreshed", refreshed, "failed", failed, "sweep_id", sweepID)
	}
}
