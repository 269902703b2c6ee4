// internal/app/bootstrap/services.go
package bootstrap

import (
	"context"
	"time"

	"github.com/dalemusser/stratadrive/internal/app/directory"
	"github.com/dalemusser/stratadrive/internal/app/drive"
	"github.com/dalemusser/stratadrive/internal/app/store/audit"
	filestore "github.com/dalemusser/stratadrive/internal/app/store/files"
	orgstore "github.com/dalemusser/stratadrive/internal/app/store/organizations"
	starstore "github.com/dalemusser/stratadrive/internal/app/store/stars"
	userstore "github.com/dalemusser/stratadrive/internal/app/store/users"
	"github.com/dalemusser/stratadrive/internal/app/system/auditlog"
	"github.com/dalemusser/stratadrive/internal/app/system/authz"
	"github.com/dalemusser/stratadrive/internal/app/system/txn"
	"github.com/dalemusser/stratadrive/internal/app/system/workers"
	"go.uber.org/zap"
)

// sweepLockTTL bounds how long a crashed sweeper holds the Redis lock.
const sweepLockTTL = 30 * time.Minute

// Services is the domain layer wired over DBDeps.
type Services struct {
	Authz     *authz.Service
	Drive     *drive.Service
	Directory *directory.Service
	Sweeper   *workers.TrashSweeper
	Events    *audit.Store
}

// NewServices builds the domain services. It only constructs values; nothing
// here talks to a backend, so calling it from several hooks is fine.
func NewServices(appCfg AppConfig, deps DBDeps, logger *zap.Logger) (*Services, error) {
	policy, err := authz.ParsePolicy(appCfg.FileMutationPolicy)
	if err != nil {
		return nil, err
	}

	db := deps.MongoDatabase
	users := userstore.New(db)
	orgs := orgstore.New(db)
	files := filestore.New(db)

	events := audit.New(db)
	auditLog := auditlog.New(events, logger, auditlog.Config{
		File:      appCfg.AuditLogFiles,
		Directory: appCfg.AuditLogDirectory,
	})

	az := authz.New(users, files, policy)

	driveSvc := drive.New(drive.Deps{
		Authz: az,
		Files: files,
		Stars: starstore.New(db),
		Blobs: deps.Blobs,
		Audit: auditLog,
		Log:   logger,
	})

	runTx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return txn.Run(ctx, db, logger, fn)
	}
	dirSvc := directory.New(users, orgs, az, runTx, auditLog, logger)

	opts := workers.SweeperOptions{
		Retention: appCfg.TrashRetention,
		Workers:   appCfg.TrashSweepWorkers,
	}
	if deps.Redis != nil {
		opts.Lock = workers.NewRedisLock(deps.Redis, workers.DefaultLockKey, sweepLockTTL)
	}

	return &Services{
		Authz:     az,
		Drive:     driveSvc,
		Directory: dirSvc,
		Sweeper:   workers.NewTrashSweeper(driveSvc, logger, opts),
		Events:    events,
	}, nil
}
