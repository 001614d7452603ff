package app

import (
	"context"

	"github.com/mx-space/pagebuilder/internal/config"
	"github.com/mx-space/pagebuilder/internal/middleware"
	"github.com/mx-space/pagebuilder/internal/modules/content/reference"
	pkgcron "github.com/mx-space/pagebuilder/internal/pkg/cron"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	jobScanBrokenReferences = "scan_broken_references"
	jobPurgeAPICache        = "purge_api_cache"
)

// registerCronJobs registers the background jobs. A zero scan interval keeps
// the scan available for manual runs only.
func registerCronJobs(sched *pkgcron.Scheduler, scanner reference.BrokenReferenceScanner, rdb *redis.Client, cfg *config.AppConfig, logger *zap.Logger) {
	cronLogger := logger.Named("CronService")

	sched.Register(pkgcron.Job{
		Name:        jobScanBrokenReferences,
		Description: "Report section references to missing or deleted entities",
		Interval:    cfg.Jobs.BrokenReferenceScanInterval(),
		Fn: func(ctx context.Context) error {
			reports, err := scanner.ScanBrokenReferences(ctx)
			if err != nil {
				return err
			}
			for _, r := range reports {
				cronLogger.Warn("broken references",
					zap.String("section_id", r.SectionID),
					zap.String("page_type", string(r.PageType)),
					zap.String("page_id", r.PageID),
					zap.Int("column", r.ColumnNumber),
					zap.Int("broken", len(r.BrokenReferences)))
			}
			cronLogger.Info("broken reference scan finished", zap.Int("columns", len(reports)))
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        jobPurgeAPICache,
		Description: "Drop every cached API response",
		Fn: func(ctx context.Context) error {
			n, err := middleware.PurgeHTTPCache(ctx, rdb)
			if err != nil {
				return err
			}
			cronLogger.Info("api cache purged", zap.Int64("keys", n))
			return nil
		},
	})
}
