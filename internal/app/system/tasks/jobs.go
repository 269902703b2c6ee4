// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"

	"github.com/dalemusser/stratadrive/internal/app/system/timeouts"
	"github.com/dalemusser/stratadrive/internal/app/system/workers"
	"go.uber.org/zap"
)

// DefaultTrashSweepSchedule purges the trash once a week.
const DefaultTrashSweepSchedule = "@weekly"

// TrashSweepJob creates a job that runs sweeper on schedule.
func TrashSweepJob(sweeper *workers.TrashSweeper, schedule string, logger *zap.Logger) Job {
	if schedule == "" {
		schedule = DefaultTrashSweepSchedule
	}
	return Job{
		Name:     "trash-sweep",
		Schedule: schedule,
		Timeout:  timeouts.Sweep(),
		Run: func(ctx context.Context) error {
			res, err := sweeper.PurgeTrashed(ctx)
			if err != nil {
				return err
			}
			if res.Failed > 0 {
				logger.Warn("trash sweep left files behind",
					zap.Int("failed", res.Failed), zap.Int("found", res.Found))
			}
			return nil
		},
	}
}
