package api

import (
	"log/slog"

	"github.com/fieldflow/fieldflow/internal/api/handlers"
	"github.com/fieldflow/fieldflow/internal/api/middleware"
	"github.com/fieldflow/fieldflow/internal/assignment"
	"github.com/fieldflow/fieldflow/internal/auth"
	"github.com/fieldflow/fieldflow/internal/catalog"
	"github.com/fieldflow/fieldflow/internal/dashboard"
	"github.com/fieldflow/fieldflow/internal/discussion"
	"github.com/fieldflow/fieldflow/internal/identity"
	"github.com/fieldflow/fieldflow/internal/notify"
	"github.com/fieldflow/fieldflow/internal/realtime"
	"github.com/fieldflow/fieldflow/internal/submission"
	"github.com/fieldflow/fieldflow/internal/tenant"
	"github.com/fieldflow/fieldflow/pkg/crypto"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB             *gorm.DB
	Redis          *redis.Client
	Logger         *slog.Logger
	JWTService     *auth.JWTService
	AuthService    *auth.Service
	Encryptor      *crypto.Encryptor
	AsynqClient    *asynq.Client
	AllowedOrigins []string // CORS allowed origins
	RateLimitReqs  int      // Rate limit requests per window
	RateLimitSecs  int      // Rate limit window in seconds
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	if cfg.RateLimitReqs > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitReqs, cfg.RateLimitSecs))
	}

	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Services
	notifier := notify.NewQueue(cfg.AsynqClient, cfg.Logger)
	tenantService := tenant.NewService(cfg.DB, cfg.Logger)
	identityService := identity.NewService(cfg.DB, notifier, cfg.Logger)
	catalogService := catalog.NewService(cfg.DB, cfg.Logger)
	assignmentService := assignment.NewService(cfg.DB, cfg.Logger)
	submissionService := submission.NewService(cfg.DB, assignmentService, notifier, cfg.Encryptor, cfg.Logger)
	discussionService := discussion.NewService(cfg.DB, notifier, cfg.Logger)
	dashboardService := dashboard.NewService(cfg.DB, cfg.Logger)

	// Handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	authHandler := handlers.NewAuthHandler(cfg.AuthService)
	companyHandler := handlers.NewCompanyHandler(tenantService)
	collaboratorHandler := handlers.NewCollaboratorHandler(identityService)
	templateHandler := handlers.NewTemplateHandler(catalogService)
	assignmentHandler := handlers.NewAssignmentHandler(assignmentService)
	submissionHandler := handlers.NewSubmissionHandler(submissionService)
	discussionHandler := handlers.NewDiscussionHandler(discussionService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	realtimeHandler := handlers.NewRealtimeHandler(realtime.NewAuthorizer(cfg.DB))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTService))
			r.Use(middleware.LoadActor(cfg.DB))

			r.Get("/me", authHandler.Me)
			r.Get("/dashboard", dashboardHandler.Stats)
			r.Post("/realtime/auth", realtimeHandler.Authorize)

			r.Route("/companies", func(r chi.Router) {
				r.Get("/", companyHandler.List)
				r.Post("/", companyHandler.Create)
				r.Get("/{id}", companyHandler.Get)
				r.Put("/{id}", companyHandler.Update)
				r.Delete("/{id}", companyHandler.Delete)
				r.Post("/{id}/activate", companyHandler.Activate)
				r.Post("/{id}/deactivate", companyHandler.Deactivate)
				r.Post("/{id}/subscriptions", companyHandler.AddSubscription)
			})

			r.Route("/collaborators", func(r chi.Router) {
				r.Get("/", collaboratorHandler.List)
				r.Post("/", collaboratorHandler.Create)
				r.Get("/{id}", collaboratorHandler.Get)
				r.Put("/{id}", collaboratorHandler.Update)
				r.Delete("/{id}", collaboratorHandler.Delete)
				r.Post("/{id}/activate", collaboratorHandler.Activate)
				r.Post("/{id}/deactivate", collaboratorHandler.Deactivate)
			})

			r.Route("/templates", func(r chi.Router) {
				r.Get("/", templateHandler.List)
				r.Post("/", templateHandler.Create)
				r.Get("/{id}", templateHandler.Get)
				r.Delete("/{id}", templateHandler.Delete)
				r.Post("/{id}/deactivate", templateHandler.Deactivate)
				r.Get("/{id}/assignments", assignmentHandler.ListForTemplate)
				r.Post("/{id}/assignments", assignmentHandler.Create)
				r.Post("/{id}/pairings", assignmentHandler.CreatePairing)
			})

			r.Route("/assignments", func(r chi.Router) {
				r.Get("/", assignmentHandler.ListMine)
				r.Post("/{id}/complete", assignmentHandler.Complete)
			})

			r.Route("/submissions", func(r chi.Router) {
				r.Get("/", submissionHandler.ListMine)
				r.Post("/", submissionHandler.Create)
				r.Get("/pending", submissionHandler.ListPending)
				r.Get("/{id}", submissionHandler.Get)
				r.Put("/{id}", submissionHandler.Update)
				r.Get("/{id}/location", submissionHandler.Location)
				r.Post("/{id}/submit", submissionHandler.Submit)
				r.Post("/{id}/validate", submissionHandler.Validate)
				r.Post("/{id}/refuse", submissionHandler.Refuse)
			})

			r.Route("/discussions", func(r chi.Router) {
				r.Get("/", discussionHandler.List)
				r.Post("/", discussionHandler.Create)
				r.Get("/{id}/messages", discussionHandler.Messages)
				r.Post("/{id}/messages", discussionHandler.Post)
			})
		})
	})

	return &Router{r}
}
