// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/stratadrive/internal/app/system/tasks"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs after DB connections and schema setup, before the HTTP handler
// is built. StrataDrive registers the trash sweep and starts the scheduler.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	svcs, err := NewServices(appCfg, deps, logger)
	if err != nil {
		return err
	}

	job := tasks.TrashSweepJob(svcs.Sweeper, appCfg.TrashSweepSchedule, logger)
	if err := deps.Scheduler.Add(job); err != nil {
		logger.Error("register trash sweep failed", zap.Error(err))
		return err
	}
	deps.Scheduler.Start()

	logger.Info("trash sweep scheduled",
		zap.String("schedule", job.Schedule),
		zap.Duration("retention", appCfg.TrashRetention),
		zap.Bool("redis_lock", deps.Redis != nil))
	return nil
}
