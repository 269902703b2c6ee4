// internal/app/system/workers/trashsweeper.go
package workers

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dalemusser/stratadrive/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Purger is the system-privileged slice of the drive service the sweeper
// needs. It never consults a principal.
type Purger interface {
	TrashedFiles(ctx context.Context, cutoff time.Time) ([]models.File, error)
	// PurgeFile reports false with a nil error when f is no longer trashed.
	PurgeFile(ctx context.Context, f models.File) (bool, error)
}

// Locker guards a sweep across replicas. Acquire reports false when another
// holder owns the lock.
type Locker interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// SweepResult summarizes one PurgeTrashed run.
type SweepResult struct {
	Found   int  `json:"found"`
	Purged  int  `json:"purged"`
	Failed  int  `json:"failed"`
	Kept    int  `json:"kept"` // restored or deleted after the trash listing
	Skipped bool `json:"skipped,omitempty"` // another replica held the lock
}

// SweeperOptions configures a TrashSweeper.
type SweeperOptions struct {
	// Retention is how long a file stays in the trash before it is eligible.
	// Zero purges everything currently trashed.
	Retention time.Duration
	// Workers bounds concurrent purges. Defaults to 4.
	Workers int
	// Lock is optional.
	Lock Locker
}

// TrashSweeper permanently deletes trashed files: blob, then record, then stars.
type TrashSweeper struct {
	purger    Purger
	log       *zap.Logger
	retention time.Duration
	workers   int
	lock      Locker
	now       func() time.Time
}

// NewTrashSweeper creates a sweeper.
func NewTrashSweeper(p Purger, logger *zap.Logger, opts SweeperOptions) *TrashSweeper {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrashSweeper{
		purger:    p,
		log:       logger,
		retention: opts.Retention,
		workers:   opts.Workers,
		lock:      opts.Lock,
		now:       time.Now,
	}
}

// PurgeTrashed runs one sweep. A failure on one file is logged and counted;
// it never stops the others. The returned error covers only the trash query
// and the lock.
func (w *TrashSweeper) PurgeTrashed(ctx context.Context) (SweepResult, error) {
	var res SweepResult

	if w.lock != nil {
		ok, err := w.lock.Acquire(ctx)
		if err != nil {
			return res, fmt.Errorf("acquire sweep lock: %w", err)
		}
		if !ok {
			w.log.Info("trash sweep skipped, lock held elsewhere")
			res.Skipped = true
			return res, nil
		}
		defer func() {
			if err := w.lock.Release(context.WithoutCancel(ctx)); err != nil {
				w.log.Warn("failed to release sweep lock", zap.Error(err))
			}
		}()
	}

	var cutoff time.Time
	if w.retention > 0 {
		cutoff = w.now().UTC().Add(-w.retention)
	}
	files, err := w.purger.TrashedFiles(ctx, cutoff)
	if err != nil {
		return res, fmt.Errorf("list trashed files: %w", err)
	}
	res.Found = len(files)

	var purged, failed, kept atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(w.workers)
	for _, f := range files {
		g.Go(func() error {
			ok, err := w.purger.PurgeFile(ctx, f)
			switch {
			case err != nil:
				failed.Add(1)
				w.log.Warn("failed to purge trashed file",
					zap.String("file_id", f.ID.Hex()),
					zap.String("scope_id", f.ScopeID),
					zap.Error(err))
			case !ok:
				kept.Add(1)
			default:
				purged.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	res.Purged = int(purged.Load())
	res.Failed = int(failed.Load())
	res.Kept = int(kept.Load())
	w.log.Info("trash sweep finished",
		zap.Int("found", res.Found),
		zap.Int("purged", res.Purged),
		zap.Int("failed", res.Failed),
		zap.Int("kept", res.Kept),
		zap.Duration("retention", w.retention))
	return res, nil
}
