package sessions

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/travelrag/travel-cli/internal/models"
)

// Storage keys shared with the original web client.
const (
	TokenKey     = "auth_token"
	TokenTypeKey = "token_type"
)

var ErrEmptyCredential = errors.New("credential has no token")

// CredentialStore persists the bearer token and its scheme. When the
// underlying storage has no medium every read is absent and every write
// is dropped; callers never need to check.
type CredentialStore struct {
	storage Storage
}

func NewCredentialStore(storage Storage) *CredentialStore {
	if storage == nil {
		storage = NullStorage{}
	}
	return &CredentialStore{storage: storage}
}

// Save writes token and scheme together.
func (c *CredentialStore) Save(credential models.Credential) error {
	if !credential.IsValid() {
		return ErrEmptyCredential
	}

	credential = models.NewCredential(credential.Token, credential.Scheme)

	if err := c.storage.Set(map[string]string{
		TokenKey:     credential.Token,
		TokenTypeKey: credential.Scheme,
	}); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"scheme":  credential.Scheme,
		"storage": c.storage.Mode(),
	}).Debugln("Stored credential")

	return nil
}

// Read returns the stored credential. A missing scheme falls back to the
// default one; a scheme without a token reads as absent.
func (c *CredentialStore) Read() (models.Credential, bool) {
	token, ok := c.storage.Get(TokenKey)
	if !ok || len(token) == 0 {
		return models.Credential{}, false
	}

	scheme, _ := c.storage.Get(TokenTypeKey)

	return models.NewCredential(token, scheme), true
}

func (c *CredentialStore) Clear() error {
	if err := c.storage.Remove(TokenKey, TokenTypeKey); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}
