package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/assettracker/internal/config"
	"github.com/mamadbah2/assettracker/internal/labels"
	"github.com/mamadbah2/assettracker/internal/repository/mongodb"
	"github.com/mamadbah2/assettracker/internal/repository/sheets"
	"github.com/mamadbah2/assettracker/internal/repository/sqlite"
	"github.com/mamadbah2/assettracker/internal/scheduler"
	"github.com/mamadbah2/assettracker/internal/server/handlers"
	"github.com/mamadbah2/assettracker/internal/server/router"
	assetsvc "github.com/mamadbah2/assettracker/internal/service/assets"
	authsvc "github.com/mamadbah2/assettracker/internal/service/auth"
	labelingsvc "github.com/mamadbah2/assettracker/internal/service/labeling"
	reportingsvc "github.com/mamadbah2/assettracker/internal/service/reporting"
	"github.com/mamadbah2/assettracker/pkg/clients/notify"
	"github.com/mamadbah2/assettracker/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(logger.Options{Level: cfg.Server.LogLevel, Console: cfg.Server.LogConsole}))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	store, closeStore := openStore(cfg, baseLogger)
	defer closeStore()

	var snapshots mongodb.Repository
	if cfg.MongoDB.URI != "" {
		mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		snapshots = mongoRepo
	} else {
		baseLogger.Warn("mongodb uri missing, inventory snapshots are not persisted")
	}

	var notifier notify.Client
	if cfg.Notify.WebhookURL != "" {
		notifier = notify.NewWebhookClient(cfg.Notify.WebhookURL)
		baseLogger.Info("snapshot webhook enabled")
	}

	location, err := time.LoadLocation(cfg.Reporting.Timezone)
	if err != nil {
		baseLogger.Fatal("invalid timezone", zap.Error(err))
	}

	assetSvc, err := assetsvc.NewService(store, cfg.Tags, logger.Named(baseLogger, "svc.assets"))
	if err != nil {
		baseLogger.Fatal("failed to init asset service", zap.Error(err))
	}
	labelSvc, err := labelingsvc.NewService(assetSvc, labels.NewPDFWriter(cfg.Labels.FontPaths, logger.Named(baseLogger, "labels.pdf")), cfg.Labels.Grid, logger.Named(baseLogger, "svc.labeling"))
	if err != nil {
		baseLogger.Fatal("failed to init labeling service", zap.Error(err))
	}
	authSvc := authsvc.NewService(cfg.Auth.Users, cfg.Auth.SessionTTL, logger.Named(baseLogger, "svc.auth"))
	reportingSvc := reportingsvc.NewService(store, snapshots, notifier, location, logger.Named(baseLogger, "svc.reporting"))

	engine := router.New(router.Handlers{
		Auth:      handlers.NewAuthHandler(authSvc, logger.Named(baseLogger, "handlers.auth")),
		Assets:    handlers.NewAssetHandler(assetSvc, logger.Named(baseLogger, "handlers.assets")),
		Labels:    handlers.NewLabelHandler(labelSvc, logger.Named(baseLogger, "handlers.labels")),
		Dashboard: handlers.NewDashboardHandler(reportingSvc, logger.Named(baseLogger, "handlers.dashboard")),
	}, logger.Named(baseLogger, "router"))

	sched := scheduler.NewScheduler(cfg.Reporting.CronSchedule, location, reportingSvc, logger.Named(baseLogger, "scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("storage", cfg.Storage.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// openStore opens the configured asset backend and returns its closer.
func openStore(cfg *config.Config, baseLogger *zap.Logger) (assetsvc.Store, func()) {
	switch cfg.Storage.Backend {
	case config.BackendSheets:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		store := sheets.NewAssetStore(sheetsRepo, logger.Named(baseLogger, "repo.sheets.assets"))
		if err := store.Init(ctx); err != nil {
			baseLogger.Fatal("failed to prepare asset sheets", zap.Error(err))
		}
		return store, func() {}
	default:
		store, err := sqlite.New(cfg.SQLite.Path, logger.Named(baseLogger, "repo.sqlite"))
		if err != nil {
			baseLogger.Fatal("failed to open sqlite store", zap.Error(err))
		}
		return store, func() {
			if err := store.Close(); err != nil {
				baseLogger.Error("failed to close sqlite store", zap.Error(err))
			}
		}
	}
}
