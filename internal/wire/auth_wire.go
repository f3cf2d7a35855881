package wire

import (
	"net/http"

	"contacts-api/internal/adaptor"
	"contacts-api/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAuth(
	r chi.Router,
	authHandler *adaptor.AuthHandler,
	authenticate func(http.Handler) http.Handler,
	log *zap.Logger,
) {
	r.Route("/api/auth", func(r chi.Router) {
		// ==================== PUBLIC ROUTES ====================
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/send-otp", authHandler.SendOTP)
		r.Post("/verify-email", authHandler.VerifyEmail)
		r.Post("/password-reset-request", authHandler.PasswordResetRequest)
		r.Post("/password-reset", authHandler.PasswordReset)

		// ==================== PROTECTED ROUTES ====================
		r.With(authenticate, middleware.RequireActive(log)).Get("/me", authHandler.Me)
	})
}
