package main

import (
	"context"
	"time"

	"github.com/trezcool/soma/apps/di"
	"github.com/trezcool/soma/core"
	"github.com/trezcool/soma/core/event"
	schedsvc "github.com/trezcool/soma/services/scheduler"
)

func backgroundTasks(c *di.Container, logger core.Logger) []schedsvc.Task {
	recompute := event.NewRecomputeJob(c.Repos.Events, logger)

	return []schedsvc.Task{
		{
			Name:     "event-status-recompute",
			Interval: c.Conf.Scheduler.EventRecomputeInterval,
			Run: func(ctx context.Context, now time.Time) error {
				sum, err := recompute.Run(ctx, now)
				if n := sum.Modified(); n > 0 {
					logger.Info("event statuses recomputed", map[string]interface{}{"modified": n})
				}
				return err
			},
		},
		{
			Name:     "attempt-expiry-sweep",
			Interval: c.Conf.Scheduler.AttemptSweepInterval,
			Run: func(ctx context.Context, now time.Time) error {
				res, err := c.Services.Attempt.ExpireOverdue(ctx, now)
				if res.Expired+res.AutoSubmitted > 0 {
					logger.Info("overdue attempts closed", map[string]interface{}{
						"expired":        res.Expired,
						"auto_submitted": res.AutoSubmitted,
					})
				}
				return err
			},
		},
	}
}
