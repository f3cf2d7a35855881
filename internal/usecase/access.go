package usecase

import (
	"contacts-api/internal/data/entity"
)

func RequireActive(u *entity.User) error {
	if u == nil {
		return newError(ErrUnauthenticated, "Could not validate credentials")
	}
	if !u.IsActive {
		return newError(ErrForbidden, "Inactive user")
	}
	return nil
}

func RequireAdmin(u *entity.User) error {
	if u == nil {
		return newError(ErrUnauthenticated, "Could not validate credentials")
	}
	if u.Role.Normalize() != entity.RoleAdmin {
		return newError(ErrForbidden, "The user doesn't have enough privileges")
	}
	return nil
}

// RequireNotSelf guards destructive admin actions against the caller's own account.
func RequireNotSelf(u *entity.User, targetID int64) error {
	if u != nil && u.ID == targetID {
		return newError(ErrBadRequest, "Users cannot delete themselves")
	}
	return nil
}
