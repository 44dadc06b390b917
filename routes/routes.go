package routes

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/authgate/app"
	"github.com/upb/authgate/handlers"
	"github.com/upb/authgate/internal/auth"
	"github.com/upb/authgate/utils"
)

var defaultAllowedOrigins = []string{"http://localhost:*", "https://*"}

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	if timeout := deps.Config.Server.RequestTimeout; timeout > 0 {
		r.Use(chimiddleware.Timeout(timeout))
	}
	r.Use(deps.Metrics.Instrument)

	origins := deps.Config.CORS.AllowedOrigins
	if len(origins) == 0 {
		origins = defaultAllowedOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	var db *sql.DB
	if deps.DB != nil {
		db = deps.DB.DB
	}
	health := handlers.NewHealthHandler(db, deps.ReadinessPinger(), deps.Logger)
	sessions := handlers.NewSessionHandler(deps.Sessions, deps.Logger)

	// Health check endpoints
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(deps.AuthMiddleware.RequireAuth)

		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireRole(auth.RoleBasic))
			r.Get("/me", sessions.HandleMe)
			r.Post("/auth/logout", sessions.HandleLogout)
			r.Post("/auth/logout-all", sessions.HandleLogoutAll)
		})

		// Admin endpoints (require admin role)
		r.Route("/admin", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireRole(auth.RoleAdmin))
			r.Get("/roles", sessions.HandleListRoles)
			r.Post("/users/{id}/sessions/revoke", sessions.HandleInvalidateUserSessions)
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})

	return r
}
