package request

// CreateContactRequest has no owner field; the owner always comes from the
// authenticated identity.
type CreateContactRequest struct {
	FirstName      string  `json:"first_name" validate:"required,max=100"`
	LastName       string  `json:"last_name" validate:"required,max=100"`
	Email          string  `json:"email" validate:"required,email,max=255"`
	Phone          string  `json:"phone" validate:"required,max=32"`
	Birthday       *string `json:"birthday,omitempty" validate:"omitempty,datetime=2006-01-02"`
	AdditionalData *string `json:"additional_data,omitempty"`
}

// UpdateContactRequest is a partial update: absent fields are left untouched.
// Birthday and AdditionalData may be sent as null to clear them; the birthday
// format is checked by the service.
type UpdateContactRequest struct {
	FirstName      *string          `json:"first_name,omitempty" validate:"omitempty,min=1,max=100"`
	LastName       *string          `json:"last_name,omitempty" validate:"omitempty,min=1,max=100"`
	Email          *string          `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone          *string          `json:"phone,omitempty" validate:"omitempty,min=1,max=32"`
	Birthday       Nullable[string] `json:"birthday" validate:"-"`
	AdditionalData Nullable[string] `json:"additional_data" validate:"-"`
}
