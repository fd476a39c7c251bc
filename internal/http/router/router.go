package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"github.com/woodcraft-crm/leadflow-api/internal/auth"
	"github.com/woodcraft-crm/leadflow-api/internal/config"
	"github.com/woodcraft-crm/leadflow-api/internal/http/handler"
	"github.com/woodcraft-crm/leadflow-api/internal/http/middleware"
	"github.com/woodcraft-crm/leadflow-api/internal/metrics"
	"github.com/woodcraft-crm/leadflow-api/internal/workflow"
	"go.uber.org/zap"

	_ "github.com/woodcraft-crm/leadflow-api/docs" // swagger spec
)

type Router struct {
	cfg                 *config.Config
	logger              *zap.Logger
	metrics             *metrics.Metrics
	authMiddleware      *auth.Middleware
	rateLimiter         *middleware.RateLimiter
	auditMiddleware     *middleware.AuditMiddleware
	healthHandler       *handler.HealthHandler
	stageHandler        *handler.StageHandler
	leadHandler         *handler.LeadHandler
	transitionHandler   *handler.TransitionHandler
	readinessHandler    *handler.ReadinessHandler
	documentHandler     *handler.DocumentHandler
	dashboardHandler    *handler.DashboardHandler
	notificationHandler *handler.NotificationHandler
	auditHandler        *handler.AuditHandler
}

// NewRouter wires the handlers. m may be nil when metrics are disabled.
func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	m *metrics.Metrics,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	auditMiddleware *middleware.AuditMiddleware,
	healthHandler *handler.HealthHandler,
	stageHandler *handler.StageHandler,
	leadHandler *handler.LeadHandler,
	transitionHandler *handler.TransitionHandler,
	readinessHandler *handler.ReadinessHandler,
	documentHandler *handler.DocumentHandler,
	dashboardHandler *handler.DashboardHandler,
	notificationHandler *handler.NotificationHandler,
	auditHandler *handler.AuditHandler,
) *Router {
	return &Router{
		cfg:                 cfg,
		logger:              logger,
		metrics:             m,
		authMiddleware:      authMiddleware,
		rateLimiter:         rateLimiter,
		auditMiddleware:     auditMiddleware,
		healthHandler:       healthHandler,
		stageHandler:        stageHandler,
		leadHandler:         leadHandler,
		transitionHandler:   transitionHandler,
		readinessHandler:    readinessHandler,
		documentHandler:     documentHandler,
		dashboardHandler:    dashboardHandler,
		notificationHandler: notificationHandler,
		auditHandler:        auditHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Logging(rt.logger))
	if rt.metrics != nil {
		r.Use(rt.metrics.Middleware)
	}
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)
	r.Use(middleware.Navigation)

	// Health checks
	r.Get("/health", rt.healthHandler.Live)
	r.Get("/health/db", rt.healthHandler.Database)
	r.Get("/health/ready", rt.healthHandler.Ready)

	if rt.metrics != nil {
		r.Handle(rt.cfg.Metrics.Path, rt.metrics.Handler())
	}

	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.authMiddleware.Authenticate)
		r.Use(rt.rateLimiter.Limit)
		r.Use(rt.auditMiddleware.Audit)
		if rt.cfg.Server.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(time.Duration(rt.cfg.Server.RequestTimeout) * time.Second))
		}

		// Stage registry
		r.Get("/stages", rt.stageHandler.List)
		r.Get("/stages/{stage}", rt.stageHandler.Get)

		// Leads
		r.Route("/leads", func(r chi.Router) {
			r.Get("/", rt.leadHandler.List)
			r.Post("/", rt.leadHandler.Create)
			r.Get("/stats", rt.leadHandler.Stats)
			r.Get("/{id}", rt.leadHandler.GetByID)
			r.Put("/{id}", rt.leadHandler.Update)
			r.With(rt.authMiddleware.RequireCapability(workflow.CapDeleteLead)).Delete("/{id}", rt.leadHandler.Delete)
			r.Get("/{id}/history", rt.leadHandler.History)
			r.With(rt.authMiddleware.RequireCapability(workflow.CapViewAudit)).Get("/{id}/audit", rt.auditHandler.ListForLead)

			// Readiness
			r.Get("/{id}/readiness", rt.readinessHandler.Check)
			r.With(rt.authMiddleware.RequireCapability(workflow.CapManageFacts)).Put("/{id}/readiness/{stage}", rt.readinessHandler.PutFacts)

			// Transitions
			r.Get("/{id}/flow", rt.transitionHandler.Flow)
			r.Post("/{id}/stage-transitions", rt.transitionHandler.BeginStage)
			r.Post("/{id}/status-transitions", rt.transitionHandler.BeginStatus)

			// Documents
			r.Get("/{id}/documents", rt.documentHandler.List)
			r.With(rt.authMiddleware.RequireCapability(workflow.CapUploadDocuments)).Post("/{id}/documents", rt.documentHandler.Upload)
		})

		r.Route("/intents/{intentId}", func(r chi.Router) {
			r.Post("/confirm", rt.transitionHandler.Confirm)
			r.Delete("/", rt.transitionHandler.Cancel)
		})

		r.Get("/dashboard/{department}", rt.dashboardHandler.Department)

		// Notifications
		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", rt.notificationHandler.List)
			r.Get("/count", rt.notificationHandler.GetUnreadCount)
			r.Put("/read-all", rt.notificationHandler.MarkAllAsRead)
			r.Put("/{id}/read", rt.notificationHandler.MarkAsRead)
		})
	})

	return r
}
