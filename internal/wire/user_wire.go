package wire

import (
	"net/http"

	"contacts-api/internal/adaptor"
	"contacts-api/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// wireUser configures self-service and admin user routes
func wireUser(
	r chi.Router,
	userHandler *adaptor.UserHandler,
	authenticate func(http.Handler) http.Handler,
	log *zap.Logger,
) {
	// ==================== PROTECTED USER ROUTES ====================
	r.With(authenticate, middleware.RequireActive(log)).Put("/api/users/me", userHandler.UpdateMe)

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.RequireActive(log))
		r.Use(middleware.RequireAdmin(log))

		r.Get("/", userHandler.Dashboard)
		r.Get("/users", userHandler.ListUsers)
		r.Get("/users/{id}", userHandler.GetUser)
		r.Put("/users/{id}", userHandler.UpdateUser)
		r.Delete("/users/{id}", userHandler.DeleteUser)
	})
}
