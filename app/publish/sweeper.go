package publish

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/devsque/codegate/core/logger"
)

// scheduleParser accepts 5-field cron expressions and descriptors such as "@every 1m".
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Sweeper periodically expires idle publish sessions.
type Sweeper struct {
	cron *cron.Cron
}

// StartSweeper runs ctrl.ExpireIdle on schedule until Stop is called.
func StartSweeper(ctx context.Context, schedule string, ctrl *Controller) (*Sweeper, error) {
	c := cron.New(cron.WithParser(scheduleParser), cron.WithChain(cron.Recover(cron.DiscardLogger)))
	_, err := c.AddFunc(schedule, func() {
		if n := ctrl.ExpireIdle(ctx); n > 0 {
			logger.Info(ctx, logger.CompSession, "session.sweep",
				slog.String("status", "ok"),
				slog.Int("count", n),
			)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("publish: sweeper schedule %q: %w", schedule, err)
	}
	c.Start()
	logger.Info(ctx, logger.CompSession, "session.sweeper_started",
		slog.String("status", "ok"),
		slog.String("schedule", schedule),
	)
	return &Sweeper{cron: c}, nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s == nil || s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}
