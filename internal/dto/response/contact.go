package response

import (
	"time"

	"contacts-api/internal/data/entity"
)

const dateLayout = "2006-01-02"

type ContactResponse struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Birthday       *string   `json:"birthday"`
	AdditionalData *string   `json:"additional_data"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func ContactToResponse(c *entity.Contact) ContactResponse {
	resp := ContactResponse{
		ID:             c.ID,
		UserID:         c.UserID,
		FirstName:      c.FirstName,
		LastName:       c.LastName,
		Email:          c.Email,
		Phone:          c.Phone,
		AdditionalData: c.Notes,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
	if c.Birthday != nil {
		b := c.Birthday.Format(dateLayout)
		resp.Birthday = &b
	}
	return resp
}

func ContactsToResponse(contacts []*entity.Contact) []ContactResponse {
	out := make([]ContactResponse, len(contacts))
	for i, c := range contacts {
		out[i] = ContactToResponse(c)
	}
	return out
}
