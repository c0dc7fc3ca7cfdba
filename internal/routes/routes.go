package routes

import (
	"github.com/eyramk/campusgate/internal/auth"
	"github.com/eyramk/campusgate/internal/handlers"
	"github.com/eyramk/campusgate/internal/middleware"
	"github.com/eyramk/campusgate/internal/models"
	"github.com/eyramk/campusgate/internal/repositories"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	adminHandler *handlers.AdminHandler,
	sessionIssuer *auth.SessionIssuer,
	accountRepo *repositories.AccountRepository,
) {
	loginRateLimit := middleware.DefaultLoginRateLimit()

	// Public routes - no authentication required
	router.With(middleware.RateLimitByIP(loginRateLimit)).Post("/auth/login", authHandler.Login)

	// Protected routes - valid session required
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(sessionIssuer))

		r.Post("/auth/session/refresh", authHandler.Refresh)

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(accountRepo, models.RoleAdmin))
			r.Post("/admin/credentials", adminHandler.ProvisionCredentials)
		})
	})
}
