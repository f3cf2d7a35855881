package utils

import (
	"context"

	"contacts-api/internal/data/entity"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	RoleKey     contextKey = "role"
	TokenKey    contextKey = "token"
	IdentityKey contextKey = "identity"
)

func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	if !ok || userID <= 0 {
		return 0, false
	}
	return userID, true
}

func GetRoleFromContext(ctx context.Context) (entity.UserRole, bool) {
	role, ok := ctx.Value(RoleKey).(entity.UserRole)
	return role, ok
}

// GetIdentityFromContext returns the identity resolved by the auth middleware.
// It is a cache projection, so PasswordHash is always empty.
func GetIdentityFromContext(ctx context.Context) (*entity.User, bool) {
	user, ok := ctx.Value(IdentityKey).(*entity.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}

func SetIdentityContext(ctx context.Context, user *entity.User) context.Context {
	ctx = context.WithValue(ctx, IdentityKey, user)
	ctx = context.WithValue(ctx, UserIDKey, user.ID)
	ctx = context.WithValue(ctx, RoleKey, user.Role)
	return ctx
}

func GetTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}

func SetTokenContext(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, TokenKey, token)
}
