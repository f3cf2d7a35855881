package wire

import (
	"net/http"

	"contacts-api/internal/adaptor"
	"contacts-api/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// wireContact mounts the owner-scoped contact routes. Every route is authenticated and rate limited per user.
func wireContact(
	r chi.Router,
	contactHandler *adaptor.ContactHandler,
	authenticate func(http.Handler) http.Handler,
	limiter *middleware.RateLimiter,
	log *zap.Logger,
) {
	r.Route("/api/contacts", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.RequireActive(log))
		r.Use(limiter.Middleware())

		r.Post("/", contactHandler.Create)
		r.Get("/", contactHandler.List)

		// static segments before /{id}
		r.Get("/search", contactHandler.Search)
		r.Get("/birthdays/upcoming", contactHandler.UpcomingBirthdays)

		r.Get("/{id}", contactHandler.Get)
		r.Put("/{id}", contactHandler.Update)
		r.Delete("/{id}", contactHandler.Delete)
	})
}
