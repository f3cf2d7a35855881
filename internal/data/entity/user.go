package entity

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// Valid reports whether r is one of the enumerated roles.
func (r UserRole) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Normalize maps anything that is not explicitly admin to the standard role.
func (r UserRole) Normalize() UserRole {
	if r == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}

type User struct {
	Base
	Email        string   `db:"email"`
	PasswordHash string   `db:"hashed_password"`
	IsActive     bool     `db:"is_active"`
	IsVerified   bool     `db:"is_verified"`
	Role         UserRole `db:"role"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
