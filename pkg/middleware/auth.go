package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"contacts-api/internal/data/entity"
	"contacts-api/internal/usecase"
	"contacts-api/pkg/utils"

	"go.uber.org/zap"
)

// Resolver maps a bearer token to the caller's identity.
type Resolver interface {
	Resolve(ctx context.Context, bearer string) (*entity.User, error)
}

// Authenticate resolves the bearer token and stores the identity in the request context.
func Authenticate(resolver Resolver, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", "Bearer")
				utils.ResponseUnauthorized(w, "Not authenticated")
				return
			}

			user, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				if errors.Is(err, usecase.ErrUnauthenticated) {
					w.Header().Set("WWW-Authenticate", "Bearer")
					utils.ResponseUnauthorized(w, usecase.Message(err))
					return
				}
				logger.Error("Failed to resolve identity",
					zap.Error(err),
					zap.String("path", r.URL.Path))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}

			ctx := utils.SetIdentityContext(r.Context(), user)
			ctx = utils.SetTokenContext(ctx, token)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireActive rejects identities that were deactivated.
func RequireActive(logger *zap.Logger) func(http.Handler) http.Handler {
	return requireIdentity(logger, usecase.RequireActive)
}

// RequireAdmin rejects identities without the admin role. Mount after RequireActive.
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return requireIdentity(logger, usecase.RequireAdmin)
}

func requireIdentity(logger *zap.Logger, check func(*entity.User) error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := utils.GetIdentityFromContext(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "Not authenticated")
				return
			}

			if err := check(user); err != nil {
				logger.Warn("Access denied",
					zap.Int64("user_id", user.ID),
					zap.String("path", r.URL.Path),
					zap.String("reason", usecase.Message(err)))
				utils.ResponseForbidden(w, usecase.Message(err))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	scheme, token, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}
