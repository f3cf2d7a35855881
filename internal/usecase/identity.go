package usecase

import (
	"context"
	"strings"

	"contacts-api/internal/data/cached"
	"contacts-api/internal/data/entity"
	"contacts-api/internal/data/repository"
	"contacts-api/pkg/token"

	"go.uber.org/zap"
)

type TokenVerifier interface {
	Verify(tokenString string, purpose token.Purpose) (*token.Claims, error)
}

// IdentityResolver turns a bearer token into the caller's identity. A cached
// identity is served without touching the store.
type IdentityResolver struct {
	tokens TokenVerifier
	users  repository.UserRepository
	cache  *cached.EntityCache
	log    *zap.Logger
}

func NewIdentityResolver(
	tokens TokenVerifier,
	users repository.UserRepository,
	cache *cached.EntityCache,
	log *zap.Logger,
) *IdentityResolver {
	return &IdentityResolver{
		tokens: tokens,
		users:  users,
		cache:  cache,
		log:    log.With(zap.String("service", "identity")),
	}
}

// Resolve returns the identity as a projection: both the cached and the store
// path yield equal values without a password hash.
func (r *IdentityResolver) Resolve(ctx context.Context, bearer string) (*entity.User, error) {
	bearer = strings.TrimSpace(bearer)
	if bearer == "" {
		return nil, newError(ErrUnauthenticated, "Could not validate credentials")
	}

	claims, err := r.tokens.Verify(bearer, token.PurposeAccess)
	if err != nil {
		r.log.Debug("Token rejected", zap.Error(err))
		return nil, newError(ErrUnauthenticated, "Could not validate credentials")
	}
	email := claims.Subject

	if user, ok := r.cache.UserByEmail(ctx, email); ok {
		return user, nil
	}

	user, err := r.users.FindByEmail(ctx, email)
	if err != nil {
		r.log.Error("Failed to load identity", zap.Error(err), zap.String("email", email))
		return nil, newError(ErrStoreUnavailable, "Internal server error")
	}
	if user == nil {
		r.log.Warn("Token subject has no account", zap.String("email", email))
		return nil, newError(ErrUnauthenticated, "Could not validate credentials")
	}

	r.cache.PutUserByEmail(ctx, user)

	return cached.Identity(user), nil
}
