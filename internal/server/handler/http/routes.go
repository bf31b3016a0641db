package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/surya9901/diary-manager-backend/internal/metrics"
	"github.com/surya9901/diary-manager-backend/internal/middleware"
)

// RouterConfig bundles the handlers and collaborators mounted by NewRouter.
type RouterConfig struct {
	Accounts *AccountHandler
	Recovery *RecoveryHandler
	Entries  *EntryHandler
	Health   *HealthHandler
	// Tokens verifies session tokens on protected routes.
	Tokens middleware.TokenVerifier
	// Metrics is optional. When set, request metrics are recorded and /metrics is served.
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// NewRouter constructs and returns an HTTP handler that serves the diary API.
//
// Routes:
//
//	POST   /register               → Accounts.Register
//	POST   /login                  → Accounts.Login
//	POST   /forgot-password-email  → Recovery.ForgotPassword
//	POST   /verify-otp             → Recovery.VerifyOTP
//	POST   /new-pass-word          → Recovery.NewPassword
//	POST   /create-memory          → Entries.Create      (token required)
//	GET    /view-memory            → Entries.List        (token required)
//	GET    /view-memory-toEdit/:id → Entries.Get         (token required)
//	PUT    /edited-data/:id        → Entries.Update      (token required)
//	DELETE /delete-data/:id        → Entries.Delete      (token required)
//	GET    /filtered-data          → Entries.Search      (token required)
//	GET    /userName               → Accounts.UserName   (token required)
//	GET    /healthz, /metrics
//
// Middleware chain (applied in order):
//  1. RequestID and Recoverer
//  2. CORS, any origin
//  3. WithRequestLogging
//  4. AllowContentType("application/json") for requests with a body
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", middleware.TokenHeader},
	}).Handler)

	var reqMetrics *middleware.RequestMetrics
	if cfg.Metrics != nil {
		reqMetrics = &middleware.RequestMetrics{
			Total:    cfg.Metrics.HTTPRequestsTotal,
			Duration: cfg.Metrics.HTTPRequestDuration,
		}
	}
	r.Use(middleware.WithRequestLogging(cfg.Logger, reqMetrics))

	r.Get("/healthz", cfg.Health.Check)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		// Only allow requests with Content-Type: application/json
		r.Use(chiMiddleware.AllowContentType("application/json"))

		// Public endpoints
		r.Post("/register", cfg.Accounts.Register)
		r.Post("/login", cfg.Accounts.Login)
		r.Post("/forgot-password-email", cfg.Recovery.ForgotPassword)
		r.Post("/verify-otp", cfg.Recovery.VerifyOTP)
		r.Post("/new-pass-word", cfg.Recovery.NewPassword)

		// Protected group: requires a valid session token
		r.Group(func(r chi.Router) {
			r.Use(middleware.TokenAuth(cfg.Tokens))

			r.Post("/create-memory", cfg.Entries.Create)
			r.Get("/view-memory", cfg.Entries.List)
			r.Get("/view-memory-toEdit/{id}", cfg.Entries.Get)
			r.Put("/edited-data/{id}", cfg.Entries.Update)
			r.Delete("/delete-data/{id}", cfg.Entries.Delete)
			r.Get("/filtered-data", cfg.Entries.Search)
			r.Get("/userName", cfg.Accounts.UserName)
		})
	})

	return r
}
