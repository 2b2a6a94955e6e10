package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/nadersamir/approval-flow/internal/application/dispatcher"
	"github.com/nadersamir/approval-flow/internal/application/service"
	"github.com/nadersamir/approval-flow/internal/config"
	"github.com/nadersamir/approval-flow/internal/domain/event"
	"github.com/nadersamir/approval-flow/internal/infrastructure/persistence/repository"
	httpserver "github.com/nadersamir/approval-flow/internal/interfaces/http"
	"github.com/nadersamir/approval-flow/migrations"
	"github.com/nadersamir/approval-flow/pkg/database"
	"github.com/nadersamir/approval-flow/pkg/utils"
)

func main() {
	// Load .env if present, then configuration
	_ = gotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
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

	logger.Info("Starting approval workflow service",
		zap.Int("port", cfg.Server.Port))

	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Fatal("Failed to create data directory", zap.Error(err))
		}
	}

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

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(migrations.FS); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	appLogger := &loggerAdapter{sugar: logger.Sugar()}

	// Repositories
	userRepo := repository.NewUserRepository(db.DB, logger)
	workflowRepo := repository.NewWorkflowRepository(db.DB, logger)
	requestRepo := repository.NewRequestRepository(db.DB, logger)
	notificationRepo := repository.NewNotificationRepository(db.DB, logger)
	activityLogRepo := repository.NewActivityLogRepository(db.DB, logger)

	// Event dispatch: engine events become stored notifications
	events := dispatcher.New(appLogger)
	defer events.Close()

	notificationService := service.NewNotificationService(notificationRepo, userRepo, appLogger)
	for _, t := range []event.Type{
		event.TypeRequestCreated,
		event.TypeRequestApproved,
		event.TypeRequestRejected,
		event.TypeDecisionConfirmed,
	} {
		events.Subscribe(t, "notifications", notificationService.HandleEvent)
	}

	// Services
	authService := service.NewAuthService(userRepo, service.AuthConfig{
		JWTSecret: cfg.Auth.JWTSecret,
		TokenTTL:  cfg.Auth.TokenTTL,
	}, appLogger)
	workflowService := service.NewWorkflowService(workflowRepo, appLogger)
	requestService := service.NewRequestService(requestRepo, workflowRepo, events, appLogger)
	dashboardService := service.NewDashboardService(requestRepo, workflowRepo, appLogger)
	activityLogService := service.NewActivityLogService(activityLogRepo, appLogger)

	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		JWTSecret:    cfg.Auth.JWTSecret,
	}, authService, workflowService, requestService, dashboardService, notificationService, activityLogService, appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}

// loggerAdapter adapts zap's sugared logger to the minimal Logger
// interfaces the services, dispatcher and HTTP server expect.
type loggerAdapter struct {
	sugar *zap.SugaredLogger
}

func (a *loggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.sugar.Infow(msg, keysAndValues...)
}

func (a *loggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.sugar.Errorw(msg, keysAndValues...)
}
