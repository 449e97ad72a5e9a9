package audit

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"taportal_backend/internals/features/users/auth/scheduler"
)

type SchedulerConfig struct {
	AuditSpec   string // cron spec for Reconcile
	CleanupSpec string // cron spec for the token blacklist cleanup
	TTLDays     int
}

// StartScheduler registers the ledger audit and the blacklist cleanup. The
// caller stops the returned cron on shutdown.
func StartScheduler(db *gorm.DB, cfg SchedulerConfig) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	if cfg.AuditSpec != "" {
		if _, err := c.AddFunc(cfg.AuditSpec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			rep, err := Reconcile(ctx, db)
			if err != nil {
				log.Printf("[AUDIT] run failed: %v", err)
				return
			}
			LogReport(rep)
		}); err != nil {
			return nil, err
		}
	}

	if cfg.CleanupSpec == "" {
		cfg.CleanupSpec = "@daily"
	}
	if _, err := c.AddFunc(cfg.CleanupSpec, func() {
		_, _ = scheduler.CleanupBlacklist(db, cfg.TTLDays, time.Now())
	}); err != nil {
		return nil, err
	}

	c.Start()
	log.Printf("⏱ scheduler started (audit=%q cleanup=%q)", cfg.AuditSpec, cfg.CleanupSpec)
	return c, nil
}
