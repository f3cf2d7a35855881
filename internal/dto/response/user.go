package response

import (
	"time"

	"contacts-api/internal/data/entity"
)

type UserResponse struct {
	ID         int64           `json:"id"`
	Email      string          `json:"email"`
	IsActive   bool            `json:"is_active"`
	IsVerified bool            `json:"is_verified"`
	Role       entity.UserRole `json:"role"`
	CreatedAt  time.Time       `json:"created_at"`
}

func UserToResponse(user *entity.User) UserResponse {
	return UserResponse{
		ID:         user.ID,
		Email:      user.Email,
		IsActive:   user.IsActive,
		IsVerified: user.IsVerified,
		Role:       user.Role.Normalize(),
		CreatedAt:  user.CreatedAt,
	}
}

func UsersToResponse(users []*entity.User) []UserResponse {
	out := make([]UserResponse, len(users))
	for i, u := range users {
		out[i] = UserToResponse(u)
	}
	return out
}

type DashboardResponse struct {
	TotalUsers   int64 `json:"total_users"`
	AdminUsers   int64 `json:"admin_users"`
	RegularUsers int64 `json:"regular_users"`
}
