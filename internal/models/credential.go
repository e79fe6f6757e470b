package models

import (
	"fmt"
	"strings"
)

// DefaultTokenScheme is used when the remote service issues a token
// without naming its type.
const DefaultTokenScheme = "Bearer"

// Credential is the token + scheme pair that authorizes requests
// against the travel API.
type Credential struct {
	Token  string `json:"token" yaml:"token"`
	Scheme string `json:"scheme" yaml:"scheme"`
}

// NewCredential builds a credential, defaulting the scheme when the
// server did not provide one.
func NewCredential(token, scheme string) Credential {
	scheme = strings.TrimSpace(scheme)
	if len(scheme) == 0 {
		scheme = DefaultTokenScheme
	}
	return Credential{
		Token:  strings.TrimSpace(token),
		Scheme: scheme,
	}
}

func (c Credential) IsValid() bool {
	return len(c.Token) > 0
}

// GetScheme returns the scheme with the "bearer" spelling normalised, the
// token endpoint reports it in lower case.
func (c Credential) GetScheme() string {
	if len(c.Scheme) == 0 || strings.EqualFold(c.Scheme, DefaultTokenScheme) {
		return DefaultTokenScheme
	}
	return c.Scheme
}

// AuthorizationValue renders the value of the Authorization header.
func (c Credential) AuthorizationValue() string {
	return fmt.Sprintf("%s %s", c.GetScheme(), c.Token)
}

// TokenResponse is the body returned by the token endpoint.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (t TokenResponse) ToCredential() Credential {
	return NewCredential(t.AccessToken, t.TokenType)
}
