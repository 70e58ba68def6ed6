package app

import (
	"context"
	"time"

	pkgcron "github.com/microsolutions/showcase/internal/pkg/cron"
	"go.uber.org/zap"
)

const (
	orphanAssetAge      = 24 * time.Hour
	cacheRefreshEvery   = 10 * time.Minute
	orphanCleanupPeriod = 24 * time.Hour
)

// registerCronJobs registers the background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, svc *Services, logger *zap.Logger) {
	cronLogger := logger.Named("cron")

	sched.Register(pkgcron.Job{
		Name:        "cleanup_orphan_assets",
		Description: "Delete uploaded objects no row references",
		Interval:    orphanCleanupPeriod,
		Fn: func(ctx context.Context) error {
			removed, err := svc.Assets.CleanupOrphans(ctx, orphanAssetAge)
			if err != nil {
				return err
			}
			cronLogger.Info("orphan cleanup finished", zap.Int("removed", removed))
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "refresh_fallback_cache",
		Description: "Copy the solution list to the on-disk fallback cache",
		Interval:    cacheRefreshEvery,
		RunOnStart:  true,
		Fn: func(ctx context.Context) error {
			return refreshFallbackCache(ctx, svc)
		},
	})
}

func refreshFallbackCache(ctx context.Context, svc *Services) error {
	items, err := svc.Solutions.ListContext(ctx)
	if err != nil {
		return err
	}
	return svc.Cache.Save(items)
}
