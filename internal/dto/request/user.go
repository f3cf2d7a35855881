package request

// UpdateMeRequest changes the caller's own credentials. Omitted fields are kept.
type UpdateMeRequest struct {
	Email    *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=6,max=72"`
}

// AdminUpdateUserRequest lets an admin change any user field, role included.
type AdminUpdateUserRequest struct {
	Email      *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Password   *string `json:"password,omitempty" validate:"omitempty,min=6,max=72"`
	IsActive   *bool   `json:"is_active,omitempty"`
	IsVerified *bool   `json:"is_verified,omitempty"`
	Role       *string `json:"role,omitempty" validate:"omitempty,oneof=user admin"`
}

type ListUsersRequest struct {
	Skip  int
	Limit int
	Role  string `json:"role" validate:"omitempty,oneof=user admin"`
}
