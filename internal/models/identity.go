package models

import (
	"encoding/json"
	"fmt"
)

// Identity is the profile returned by the users/me endpoint. The
// attributes belong to the remote service so the full payload is kept in
// Attributes and only a few well known fields are lifted out.
type Identity struct {
	ID        int       `json:"id"`
	Username  string    `json:"user_name"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt Timestamp `json:"created_at"`
	LastLogin Timestamp `json:"last_login"`

	Attributes map[string]any `json:"-"`
}

func (i *Identity) UnmarshalJSON(data []byte) error {
	type identity Identity

	var known identity
	if err := json.Unmarshal(data, &known); err != nil {
		return fmt.Errorf("failed to decode identity: %w", err)
	}

	var attributes map[string]any
	if err := json.Unmarshal(data, &attributes); err != nil {
		return fmt.Errorf("failed to decode identity attributes: %w", err)
	}

	*i = Identity(known)
	i.Attributes = attributes
	return nil
}

func (i *Identity) GetName() string {
	if i == nil {
		return ""
	}
	if len(i.Username) > 0 {
		return i.Username
	} else if len(i.Email) > 0 {
		return i.Email
	} else if i.ID > 0 {
		return fmt.Sprintf("user-%d", i.ID)
	}
	return "Unknown"
}
