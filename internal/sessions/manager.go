package sessions

import (
	"context"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/travelrag/travel-cli/internal/client"
	"github.com/travelrag/travel-cli/internal/common"
	"github.com/travelrag/travel-cli/internal/models"
)

// AuthAPI is the part of the travel service the session manager needs.
type AuthAPI interface {
	RequestToken(ctx context.Context, login models.LoginRequest) (*models.TokenResponse, error)
	CurrentUser(ctx context.Context) (*models.Identity, error)
	Logout(ctx context.Context) error
	Register(ctx context.Context, user models.NewUser) error
}

// SessionManager owns the credential store and the session state; nothing
// else writes to either. Every change to the credential bumps a
// generation, and identity fetches started under an older generation are
// discarded when they complete.
type SessionManager struct {
	lock        sync.Mutex
	api         AuthAPI
	credentials *CredentialStore
	state       *SessionState
	generation  uint64
}

func NewSessionManager(api AuthAPI, credentials *CredentialStore) *SessionManager {
	return &SessionManager{
		api:         api,
		credentials: credentials,
		state:       NewSessionState(),
	}
}

func (m *SessionManager) State() *SessionState {
	return m.state
}

func (m *SessionManager) Current() *models.Identity {
	return m.state.Current()
}

// Login exchanges username and password for a credential, stores it and
// loads the identity. A rejected login leaves the session untouched.
func (m *SessionManager) Login(ctx context.Context, username, password string) (*models.Identity, error) {
	login := models.LoginRequest{
		Username: username,
		Password: password,
	}

	if err := common.ValidateStruct(login); err != nil {
		return nil, client.NewValidationError(err)
	}

	logrus.WithField("username", username).Debugln("Requesting access token")

	token, err := m.api.RequestToken(ctx, login)
	if err != nil {
		return nil, err
	}

	credential := token.ToCredential()
	if !credential.IsValid() {
		return nil, &client.Error{
			Kind:    client.KindServerError,
			Message: "The travel service did not issue an access token",
			Err:     ErrEmptyCredential,
		}
	}

	m.lock.Lock()
	m.generation++
	generation := m.generation
	err = m.credentials.Save(credential)
	m.lock.Unlock()

	if err != nil {
		return nil, err
	}

	return m.refresh(ctx, generation)
}

// RefreshIdentity loads the identity for the stored credential. Without a
// credential it returns nil and makes no call. Any failure clears the
// session and is returned.
func (m *SessionManager) RefreshIdentity(ctx context.Context) (*models.Identity, error) {
	m.lock.Lock()
	generation := m.generation
	m.lock.Unlock()

	return m.refresh(ctx, generation)
}

func (m *SessionManager) refresh(ctx context.Context, generation uint64) (*models.Identity, error) {
	if _, ok := m.credentials.Read(); !ok {
		logrus.Debugln("No stored credential, skipping identity refresh")
		m.commit(generation, nil, false)
		return nil, nil
	}

	identity, err := m.api.CurrentUser(ctx)

	if err != nil {
		if m.commit(generation, nil, true) {
			logrus.WithError(err).Debugln("Identity refresh failed, session cleared")
		}
		return nil, err
	}

	if !m.commit(generation, identity, false) {
		logrus.WithField("user", identity.GetName()).
			Debugln("Discarding stale identity refresh, session changed meanwhile")
		return m.state.Current(), nil
	}

	logrus.WithField("user", identity.GetName()).Debugln("Session identity loaded")

	return identity, nil
}

// commit writes identity into the session state if generation is still
// current. clear also removes the credential. It reports whether the write
// happened.
func (m *SessionManager) commit(generation uint64, identity *models.Identity, clear bool) bool {
	m.lock.Lock()

	if m.generation != generation {
		m.lock.Unlock()
		return false
	}

	if clear {
		m.generation++
		if err := m.credentials.Clear(); err != nil {
			logrus.WithError(err).Errorln("Failed to clear credential")
		}
	}

	changed := m.state.store(identity)
	m.lock.Unlock()

	if changed {
		m.state.publish()
	}

	return true
}

// Logout tells the service, if there is anything to tell it, and then
// always clears the local session. It cannot fail.
func (m *SessionManager) Logout(ctx context.Context) {
	if _, ok := m.credentials.Read(); ok {
		if err := m.api.Logout(ctx); err != nil {
			logrus.WithError(err).Debugln("Remote logout failed, clearing local session anyway")
		}
	}

	m.clear("logout")
}

// Expire clears the local session without calling the service. It is used
// when the service has already rejected the credential.
func (m *SessionManager) Expire() {
	m.clear("expired")
}

func (m *SessionManager) clear(reason string) {
	m.lock.Lock()
	m.generation++
	if err := m.credentials.Clear(); err != nil {
		logrus.WithError(err).Errorln("Failed to clear credential")
	}
	changed := m.state.store(nil)
	m.lock.Unlock()

	if changed {
		m.state.publish()
	}

	logrus.WithField("reason", reason).Debugln("Session cleared")
}

// Register creates an account. It does not sign the user in.
func (m *SessionManager) Register(ctx context.Context, user models.NewUser) error {
	if err := common.ValidateStruct(user); err != nil {
		return client.NewValidationError(err)
	}

	logrus.WithFields(logrus.Fields{
		"username": user.Username,
		"email":    user.Email,
	}).Debugln("Registering new user")

	return m.api.Register(ctx, user)
}

// IsAuthenticated reports whether a credential is stored. It does not
// check that the service still accepts it.
func (m *SessionManager) IsAuthenticated() bool {
	_, ok := m.credentials.Read()
	return ok
}

func (m *SessionManager) Credential() (models.Credential, bool) {
	return m.credentials.Read()
}

// BuildAuthHeader returns the Authorization header for the stored
// credential, or an empty header.
func (m *SessionManager) BuildAuthHeader() http.Header {
	header := http.Header{}

	credential, ok := m.credentials.Read()
	if !ok {
		return header
	}

	header.Set("Authorization", credential.AuthorizationValue())
	return header
}
