package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hikayahq/storefront/internal/provider"
	"github.com/hikayahq/storefront/internal/service"
	"github.com/hikayahq/storefront/pkg/health"
	"github.com/hikayahq/storefront/pkg/middleware"
)

// catalogCacheSeconds is the Cache-Control max-age for public catalog GETs.
const catalogCacheSeconds = 60

// RouterConfig carries the router's cross-cutting settings.
type RouterConfig struct {
	CORS               middleware.CORSConfig
	AuthRateLimitRPS   int
	AuthRateLimitBurst int
	PprofAllowedCIDRs  []string
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	authService *service.AuthService,
	storyService *service.StoryService,
	purchaseService *service.PurchaseService,
	verifier *provider.SignatureVerifier,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing("storefront"))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("storefront"))

	// Health and operational endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
	if len(cfg.PprofAllowedCIDRs) > 0 {
		middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)
	}

	authHandler := NewAuthHandler(authService, logger)
	storyHandler := NewStoryHandler(storyService, logger)
	purchaseHandler := NewPurchaseHandler(purchaseService, logger)
	webhookHandler := NewWebhookHandler(verifier, purchaseService, logger)
	adminHandler := NewAdminHandler(authService, storyService, purchaseService, logger)

	requireSession := RequireSession(authService.VerifyToken)

	// Account endpoints
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/signup", authHandler.Signup)
		r.Post("/verify-email", authHandler.VerifyEmail)
		r.Post("/forgot-password", authHandler.ForgotPassword)
		r.Post("/reset-password", authHandler.ResetPassword)

		// Credential guessing is the one endpoint worth throttling per IP.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst, logger))
			r.Post("/login", authHandler.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireSession)
			r.Get("/verify-token", authHandler.VerifyToken)
			r.Post("/logout", authHandler.Logout)
		})
	})

	// Public catalog
	r.Route("/api/v1/stories", func(r chi.Router) {
		r.Use(middleware.CacheControl(catalogCacheSeconds))

		r.Get("/", storyHandler.List)
		r.Get("/{id}", storyHandler.Get)
	})

	// Purchases
	r.Route("/api/v1/payments", func(r chi.Router) {
		// The webhook bypasses ContentTypeJSON and auth: its authenticity
		// comes from the signature over the raw body.
		r.Post("/webhook", webhookHandler.Handle)

		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Use(requireSession)
			r.Post("/create-intent", purchaseHandler.CreateIntent)
		})
	})

	// Owned-content library
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(requireSession)

		r.Get("/me/library", purchaseHandler.Library)
	})

	// Admin surface
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(requireSession)
		r.Use(RequireAdmin)

		r.Post("/stories", adminHandler.CreateStory)
		r.Delete("/stories/{id}", adminHandler.DeleteStory)
		r.Get("/users", adminHandler.ListUsers)
		r.Get("/purchases", adminHandler.ListPurchases)
		r.Get("/analytics", adminHandler.Analytics)
	})

	return r
}
