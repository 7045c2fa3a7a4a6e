package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/fleetops/tms/internal/application/dispatcher"
	"github.com/fleetops/tms/internal/application/service"
	"github.com/fleetops/tms/internal/config"
	"github.com/fleetops/tms/internal/infrastructure/persistence/repository"
	"github.com/fleetops/tms/internal/infrastructure/persistence/sqlite"
	"github.com/fleetops/tms/internal/infrastructure/worker"
	httpiface "github.com/fleetops/tms/internal/interfaces/http"
	"github.com/fleetops/tms/internal/report"
	"github.com/fleetops/tms/internal/storage"
	"github.com/fleetops/tms/pkg/database"
	"github.com/fleetops/tms/pkg/utils"
)

// appLogger adapts zap's sugared logger to the keysAndValues Logger
// interfaces used across the application layer.
type appLogger struct {
	s *zap.SugaredLogger
}

func (l appLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Infow(msg, keysAndValues...)
}

func (l appLogger) Error(msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, keysAndValues...)
}

func main() {
	// Local overrides from .env, ignored when absent
	gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting transport management system",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Create necessary directories
	for _, dir := range []string{cfg.Storage.DocumentDir, cfg.Reports.OutputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Fatal("Failed to create directory", zap.String("dir", dir), zap.Error(err))
		}
	}

	// Initialize repositories
	txManager := sqlite.NewDB(db.DB, logger)
	requestRepo := repository.NewRequestRepository(db.DB, logger)
	vehicleRepo := repository.NewVehicleRepository(db.DB, logger)
	auditRepo := repository.NewAuditLogRepository(db.DB, logger)
	notificationRepo := repository.NewNotificationRepository(db.DB, logger)
	kilometerRepo := repository.NewKilometerLogRepository(db.DB, logger)
	directory := repository.NewUserRepository(db.DB, logger)

	// Document storage for maintenance letters and receipts
	documentStorage := storage.NewLocalDocumentStorage(cfg.Storage.DocumentDir, logger)

	appLog := appLogger{s: logger.Sugar()}
	events := dispatcher.NewDispatcher(dispatcher.WithLogger(appLog))
	defer events.Close()
	dispatcher.RegisterEventLog(events, appLog)

	// Initialize application services
	notifications := service.NewNotificationService(notificationRepo, directory, appLog)
	workflows := service.NewWorkflowService(requestRepo, vehicleRepo, auditRepo, directory, txManager, notifications, events, appLog)
	requests := service.NewRequestService(requestRepo, vehicleRepo, auditRepo, txManager, documentStorage, notifications, events, appLog)
	allocator := service.NewAllocatorService(requestRepo, vehicleRepo, auditRepo, txManager, notifications, events, appLog)
	vehicles := service.NewVehicleService(vehicleRepo, kilometerRepo, directory, txManager, notifications, appLog)
	reports := report.NewKilometerReportGenerator(kilometerRepo, vehicleRepo, logger)

	// Background workers
	workers := worker.NewManager(logger)
	workers.Register(worker.NewCleanupWorker(worker.CleanupWorkerConfig{
		Interval:  cfg.Notifications.CleanupInterval,
		Retention: cfg.Notifications.Retention,
	}, notifications, logger))
	if err := workers.StartAll(context.Background()); err != nil {
		logger.Error("Failed to start background workers", zap.Error(err))
	}
	defer workers.StopAll()

	// HTTP server
	srv := httpiface.NewServer(httpiface.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ReportOutputDir: cfg.Reports.OutputDir,
	}, workflows, requests, allocator, vehicles, notifications, reports, directory, appLog)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}
