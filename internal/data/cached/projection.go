package cached

import (
	"errors"
	"time"

	"contacts-api/internal/data/entity"
)

var errInvalidProjection = errors.New("invalid cached projection")

// UserProjection is the cached shape of a user. It never carries the
// password hash.
type UserProjection struct {
	ID         int64           `json:"id"`
	Email      string          `json:"email"`
	IsActive   bool            `json:"is_active"`
	IsVerified bool            `json:"is_verified"`
	Role       entity.UserRole `json:"role"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ProjectUser times are kept in UTC so a decoded projection equals a fresh one.
func ProjectUser(u *entity.User) UserProjection {
	return UserProjection{
		ID:         u.ID,
		Email:      u.Email,
		IsActive:   u.IsActive,
		IsVerified: u.IsVerified,
		Role:       u.Role.Normalize(),
		CreatedAt:  u.CreatedAt.UTC(),
		UpdatedAt:  u.UpdatedAt.UTC(),
	}
}

func (p UserProjection) Validate() error {
	if p.ID <= 0 || p.Email == "" || !p.Role.Valid() {
		return errInvalidProjection
	}
	return nil
}

func (p UserProjection) ToEntity() *entity.User {
	return &entity.User{
		Base: entity.Base{
			ID:        p.ID,
			CreatedAt: p.CreatedAt,
			UpdatedAt: p.UpdatedAt,
		},
		Email:      p.Email,
		IsActive:   p.IsActive,
		IsVerified: p.IsVerified,
		Role:       p.Role,
	}
}

// Identity strips u down to what a cache hit would return, so callers see the
// same value whichever path served them.
func Identity(u *entity.User) *entity.User {
	return ProjectUser(u).ToEntity()
}

type ContactProjection struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Birthday  *time.Time `json:"birthday,omitempty"`
	Notes     *string    `json:"additional_data,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func ProjectContact(c *entity.Contact) ContactProjection {
	return ContactProjection{
		ID:        c.ID,
		UserID:    c.UserID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		Birthday:  utcDate(c.Birthday),
		Notes:     c.Notes,
		CreatedAt: c.CreatedAt.UTC(),
		UpdatedAt: c.UpdatedAt.UTC(),
	}
}

func utcDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := t.UTC()
	return &d
}

func (p ContactProjection) Validate() error {
	if p.ID <= 0 || p.UserID <= 0 {
		return errInvalidProjection
	}
	return nil
}

func (p ContactProjection) ToEntity() *entity.Contact {
	return &entity.Contact{
		Base: entity.Base{
			ID:        p.ID,
			CreatedAt: p.CreatedAt,
			UpdatedAt: p.UpdatedAt,
		},
		UserID:    p.UserID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Phone:     p.Phone,
		Birthday:  p.Birthday,
		Notes:     p.Notes,
	}
}

// ContactPage is one cached page of a user's contact list.
type ContactPage struct {
	Items []ContactProjection `json:"items"`
	Total int64               `json:"total"`
}

func (p ContactPage) Validate(owner int64) error {
	if p.Total < int64(len(p.Items)) {
		return errInvalidProjection
	}
	for _, item := range p.Items {
		if err := item.Validate(); err != nil {
			return err
		}
		if item.UserID != owner {
			return errInvalidProjection
		}
	}
	return nil
}
