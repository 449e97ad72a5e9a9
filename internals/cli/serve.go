package cli

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"taportal_backend/internals/configs"
	database "taportal_backend/internals/databases"
	"taportal_backend/internals/features/recruitment/audit"
	"taportal_backend/internals/features/recruitment/notifications"
)

func NewServeCommand(_ *RootOptions) *cobra.Command {
	var autoMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(autoMigrate)
		},
		SilenceUsage: true,
	}
	cmd.Flags().BoolVar(&autoMigrate, "migrate", false, "run AutoMigrate before serving")
	return cmd
}

func runServe(autoMigrate bool) error {
	cfg, err := configs.LoadEnv()
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required to serve")
	}

	// 🔌 DB connect + pool + warm-up
	db, err := database.ConnectDB(cfg)
	if err != nil {
		return err
	}
	database.TunePool(db)
	if autoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return err
		}
	}
	database.WarmUpQueries(db)

	notifier, closeNotifier := notifications.New(cfg.RedisURL, cfg.NotifyQueueKey)
	defer closeNotifier()

	// ⏱ scheduler setelah DB siap
	sched, err := audit.StartScheduler(db, audit.SchedulerConfig{
		AuditSpec: cfg.AuditCron,
		TTLDays:   cfg.TokenBlacklistTTLDays,
	})
	if err != nil {
		return err
	}

	app := NewApp(cfg, db, notifier)

	// 🔒 Keep-Alive & timeout koneksi server
	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	go func() {
		log.Printf("✅ Listening on :%s", cfg.Port)
		if err := app.Listen("0.0.0.0:" + cfg.Port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown + tutup pool DB
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)
	<-sched.Stop().Done()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}
