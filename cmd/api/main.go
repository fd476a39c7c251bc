package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/woodcraft-crm/leadflow-api/docs"
	"github.com/woodcraft-crm/leadflow-api/internal/auth"
	"github.com/woodcraft-crm/leadflow-api/internal/cache"
	"github.com/woodcraft-crm/leadflow-api/internal/config"
	"github.com/woodcraft-crm/leadflow-api/internal/database"
	"github.com/woodcraft-crm/leadflow-api/internal/datawarehouse"
	"github.com/woodcraft-crm/leadflow-api/internal/http/handler"
	"github.com/woodcraft-crm/leadflow-api/internal/http/middleware"
	"github.com/woodcraft-crm/leadflow-api/internal/http/router"
	"github.com/woodcraft-crm/leadflow-api/internal/jobs"
	"github.com/woodcraft-crm/leadflow-api/internal/logger"
	"github.com/woodcraft-crm/leadflow-api/internal/metrics"
	"github.com/woodcraft-crm/leadflow-api/internal/repository"
	"github.com/woodcraft-crm/leadflow-api/internal/service"
	"github.com/woodcraft-crm/leadflow-api/internal/storage"
	"github.com/woodcraft-crm/leadflow-api/internal/workflow"
	"go.uber.org/zap"
)

// @title Leadflow API
// @version 1.0
// @description Lead stage workflow for furniture manufacturing: stage moves, activity status, readiness gates and department dashboards.

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description Service API key. Requires an X-Vendor-ID header.

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)
	if basicCfg.App.Environment == "development" {
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Secrets come from the environment in development and Key Vault elsewhere
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	store, err := cache.New(ctx, &cfg.Redis, log)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	defer func() { _ = store.Close() }()

	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// The warehouse only feeds the final-handover payment check; the API runs without it
	var dwClient *datawarehouse.Client
	if cfg.DataWarehouse.Enabled {
		dwClient, err = datawarehouse.NewClient(&cfg.DataWarehouse, log)
		if err != nil {
			log.Warn("Data warehouse connection failed, continuing without it", zap.Error(err))
			dwClient = nil
		}
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	// Repositories
	leadRepo := repository.NewLeadRepository(db)
	historyRepo := repository.NewLeadHistoryRepository(db)
	factRepo := repository.NewReadinessFactRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	numberSequenceRepo := repository.NewNumberSequenceRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Services
	cacheTTL := cfg.Redis.DefaultTTLDuration()
	numberSequenceService := service.NewNumberSequenceService(numberSequenceRepo, log)
	leadService := service.NewLeadService(leadRepo, historyRepo, numberSequenceService, store, cacheTTL, log)
	notificationService := service.NewNotificationService(notificationRepo, log)
	auditService := service.NewAuditLogService(auditRepo, leadService, log)

	var ledger service.LedgerSource
	if dwClient != nil {
		ledger = dwClient
	}
	readinessService := service.NewReadinessService(factRepo, leadService, ledger, fileStorage, store, service.ReadinessOptions{
		Timeout:  cfg.Workflow.FactTimeout(),
		CacheTTL: cfg.Workflow.ReadinessCacheTTL(),
		Locale:   cfg.Workflow.Locale,
	}, log)
	documentService := service.NewDocumentService(documentRepo, leadService, fileStorage, store, log)
	dashboardService := service.NewDashboardService(leadRepo, store, cacheTTL, log)

	deps := workflow.Dependencies{
		Leads:     leadService,
		Facts:     readinessService,
		Stages:    leadService,
		Statuses:  leadService,
		Notifier:  notificationService,
		Navigator: middleware.Navigator{},
		Cache:     store,
	}
	if m != nil {
		deps.Observer = m
	}
	orchestrator := workflow.NewOrchestrator(deps, workflow.Options{
		ConfirmTTL:    cfg.Workflow.ConfirmTTL(),
		SubmitTimeout: cfg.Workflow.SubmitTimeout(),
		Locale:        cfg.Workflow.Locale,
	}, log.Named("workflow"))

	// Middleware
	authMiddleware := auth.NewMiddleware(cfg, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)
	auditMiddleware := middleware.NewAuditMiddleware(auditService, nil, log)

	// Handlers
	rt := router.NewRouter(
		cfg,
		log,
		m,
		authMiddleware,
		rateLimiter,
		auditMiddleware,
		handler.NewHealthHandler(db, store, dwClient, log),
		handler.NewStageHandler(log),
		handler.NewLeadHandler(leadService, log),
		handler.NewTransitionHandler(orchestrator, leadService, log),
		handler.NewReadinessHandler(readinessService, log),
		handler.NewDocumentHandler(documentService, cfg.Storage.MaxUploadSizeMB, log),
		handler.NewDashboardHandler(dashboardService, log),
		handler.NewNotificationHandler(notificationService, log),
		handler.NewAuditHandler(auditService, log),
	)

	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(log)
		reminders := jobs.NewHoldReminderJob(leadRepo, notificationService, store, counterOrNil(m), log, time.Minute)
		if err := jobs.RegisterHoldReminderJob(scheduler, reminders, cfg.Jobs.HoldReminderCron); err != nil {
			return err
		}
		if err := jobs.RegisterIntentSweepJob(scheduler, orchestrator, counterOrNil(m), log, cfg.Jobs.IntentSweepCron); err != nil {
			return err
		}
		scheduler.Start()
	} else {
		log.Info("Background jobs disabled")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			<-scheduler.Stop().Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if dwClient != nil {
			if err := dwClient.Close(); err != nil {
				log.Warn("Error closing data warehouse connection", zap.Error(err))
			}
		}
		log.Info("Server stopped gracefully")
	}
	return nil
}

// jobCounter is what the jobs report to
type jobCounter interface {
	jobs.ReminderCounter
	jobs.SweepCounter
}

// counterOrNil keeps a nil *metrics.Metrics from becoming a non-nil interface
func counterOrNil(m *metrics.Metrics) jobCounter {
	if m == nil {
		return nil
	}
	return m
}
