package models

// NewUser is the registration payload.
type NewUser struct {
	Username        string `json:"user_name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"-" validate:"required,eqfield=Password"`
}

// LoginRequest holds the form-encoded login submission.
type LoginRequest struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

func (l LoginRequest) FormData() map[string]string {
	return map[string]string{
		"username": l.Username,
		"password": l.Password,
	}
}
