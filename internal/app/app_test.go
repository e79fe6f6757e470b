package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travelrag/travel-cli/internal/client"
	"github.com/travelrag/travel-cli/internal/config"
	"github.com/travelrag/travel-cli/internal/models"
	"github.com/travelrag/travel-cli/internal/router"
	"github.com/travelrag/travel-cli/internal/sessions"
)

// travelService is a small stand-in for the remote API.
type travelService struct {
	mu      sync.Mutex
	issued  int
	valid   map[string]bool
	history []models.QueryRecord
	calls   map[string]int
}

func newTravelService() *travelService {
	return &travelService{
		valid: make(map[string]bool),
		calls: make(map[string]int),
		history: []models.QueryRecord{
			{ID: 1, UserID: 1, Query: "Cheapest flight to Tokyo", Response: "Try a red-eye."},
		},
	}
}

func (s *travelService) revokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.valid = make(map[string]bool)
}

func (s *travelService) count(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *travelService) authorized(r *http.Request) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	return s.valid[token]
}

func (s *travelService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.calls[r.URL.Path]++
	s.mu.Unlock()

	switch {
	case r.Method == http.MethodOptions:
		w.WriteHeader(http.StatusMethodNotAllowed)

	case r.URL.Path == client.TokenPath:
		if err := r.ParseForm(); err != nil || r.PostForm.Get("password") != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "incorrect password"})
			return
		}
		s.mu.Lock()
		s.issued++
		token := fmt.Sprintf("token-%d", s.issued)
		s.valid[token] = true
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"access_token": token, "token_type": "bearer"})

	case !s.authorized(r):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})

	case r.URL.Path == client.SearchPath:
		var request models.SearchRequest
		_ = json.NewDecoder(r.Body).Decode(&request)
		if strings.Contains(request.Content, "mars") {
			writeJSON(w, http.StatusOK, map[string]string{"error": "no itineraries found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"response": "Answer to " + request.Content})

	case r.URL.Path == client.CurrentUserPath:
		writeJSON(w, http.StatusOK, map[string]any{
			"id":         1,
			"user_name":  "alice",
			"email":      "alice@example.com",
			"is_active":  true,
			"created_at": "2025-03-01T10:00:00.123456",
		})

	case r.URL.Path == client.HistoryPath:
		writeJSON(w, http.StatusOK, map[string]any{"records": s.history, "total": len(s.history)})

	case r.URL.Path == client.HistoryPath+"/latest":
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "database unavailable"})

	case r.URL.Path == client.HistoryPath+"/42":
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "not your record"})

	case r.URL.Path == client.LogoutPath:
		writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})

	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not Found"})
	}
}

type harness struct {
	app          *App
	service      *travelService
	server       *httptest.Server
	storage      sessions.Storage
	forceLogouts []client.ForceLogout
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	service := newTravelService()
	server := httptest.NewServer(service)
	t.Cleanup(server.Close)

	cfg := config.DefaultConfig()
	cfg.API.Endpoint = server.URL

	storage := sessions.NewMemoryStorage()

	a, err := New(cfg, WithStorage(storage))
	require.NoError(t, err)
	t.Cleanup(a.Close)

	h := &harness{
		app:     a,
		service: service,
		server:  server,
		storage: storage,
	}

	a.Bus.Subscribe(func(cmd client.ForceLogout) {
		h.forceLogouts = append(h.forceLogouts, cmd)
	})

	return h
}

func TestScenario_ExpiredSessionReturnsToHistory(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.app.Sessions.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	require.NotNil(t, h.app.Sessions.Current())

	// The service forgets the token behind the client's back.
	h.service.revokeAll()

	var visited []string
	var historyErrors []error

	h.app.Mount(Views{
		Login: func(ctx context.Context, location router.Location) error {
			visited = append(visited, location.String())
			if !h.app.EnterLogin(location) {
				return nil
			}
			assert.Nil(t, h.app.Sessions.Current(), "session must be cleared before the login view")
			_, err := h.app.SubmitLogin(ctx, "alice", "secret")
			return err
		},
		History: func(ctx context.Context, location router.Location) error {
			visited = append(visited, location.String())
			_, err := h.app.History(ctx, 1, 10)
			historyErrors = append(historyErrors, err)
			return err
		},
	})

	location, err := h.app.Open(ctx, PathHistory)
	require.NoError(t, err)

	assert.Equal(t, PathHistory, location.Path)
	require.Len(t, visited, 3)
	assert.Equal(t, PathHistory, visited[0])
	assert.Equal(t, PathLogin, router.ParseLocation(visited[1]).Path)
	assert.Equal(t, PathHistory, router.ParseLocation(visited[1]).Param(router.ReturnURLParam))
	assert.Equal(t, PathHistory, visited[2])

	require.Len(t, historyErrors, 2)
	assert.ErrorIs(t, historyErrors[0], client.ErrUnauthorized)
	assert.NoError(t, historyErrors[1])

	require.Len(t, h.forceLogouts, 1)
	assert.Equal(t, PathHistory, h.forceLogouts[0].ReturnTo)

	_, pending := h.app.Ledger.Peek()
	assert.False(t, pending, "ledger must be empty after returning")

	credential, ok := h.app.Sessions.Credential()
	require.True(t, ok)
	assert.Equal(t, "token-2", credential.Token)
	assert.Equal(t, "alice", h.app.Sessions.Current().Username)
}

func TestScenario_WrongPassword(t *testing.T) {
	h := newHarness(t)

	identity, err := h.app.SubmitLogin(context.Background(), "alice", "wrong")
	assert.Nil(t, identity)
	assert.ErrorIs(t, err, client.ErrInvalidCredentials)
	assert.EqualError(t, err, "incorrect password")

	assert.Nil(t, h.app.Sessions.Current())
	assert.False(t, h.app.Sessions.IsAuthenticated())
	assert.Empty(t, h.forceLogouts, "a rejected login must not force a logout")

	_, pending := h.app.Router.Pending()
	assert.False(t, pending)

	active := h.app.Notifier.Active()
	require.Len(t, active, 1)
	assert.Equal(t, models.MessageError, active[0].Type)
	assert.Equal(t, "incorrect password", active[0].Text)
}

func TestScenario_GuardRedirectsAnonymousUser(t *testing.T) {
	h := newHarness(t)

	var loginViews int
	h.app.Mount(Views{
		Login: func(ctx context.Context, location router.Location) error {
			loginViews++
			h.app.EnterLogin(location)
			return nil
		},
		History: func(ctx context.Context, location router.Location) error {
			t.Fatal("protected view rendered without a credential")
			return nil
		},
	})

	location, err := h.app.Open(context.Background(), PathHistory)
	require.NoError(t, err)

	assert.Equal(t, PathLogin, location.Path)
	assert.Equal(t, PathHistory, location.Param(router.ReturnURLParam))
	assert.Equal(t, 1, loginViews)
	assert.Zero(t, h.service.count(client.HistoryPath), "the guard must not call the service")

	destination, ok := h.app.Ledger.Peek()
	require.True(t, ok)
	assert.Equal(t, PathHistory, destination)

	assert.Equal(t, PathHistory, h.app.CompleteLogin())
	_, ok = h.app.Ledger.TakeIfPresent()
	assert.False(t, ok, "consuming twice yields no destination")
}

func TestScenario_NetworkFailureKeepsSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.app.Sessions.Login(ctx, "alice", "secret")
	require.NoError(t, err)

	h.server.Close()

	_, err = h.app.History(ctx, 1, 10)
	assert.ErrorIs(t, err, client.ErrNetworkUnavailable)
	assert.True(t, IsConnectivity(err))

	assert.True(t, h.app.Sessions.IsAuthenticated())
	assert.NotNil(t, h.app.Sessions.Current())
	assert.Empty(t, h.forceLogouts)

	assert.ErrorIs(t, h.app.CheckBackend(ctx), client.ErrNetworkUnavailable)
}

func TestScenario_ForbiddenAndServerErrorsKeepSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.app.Sessions.Login(ctx, "alice", "secret")
	require.NoError(t, err)

	_, err = h.app.LatestHistory(ctx)
	assert.ErrorIs(t, err, client.ErrServerError)
	assert.EqualError(t, err, "database unavailable")

	_, err = h.app.HistoryRecord(ctx, 42)
	assert.ErrorIs(t, err, client.ErrForbidden)

	_, err = h.app.HistoryRecord(ctx, 7)
	assert.ErrorIs(t, err, client.ErrNotFound)

	assert.True(t, h.app.Sessions.IsAuthenticated())
	assert.NotNil(t, h.app.Sessions.Current())
	assert.Empty(t, h.forceLogouts)
}

func TestStart_RestoresStoredIdentity(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.app.Sessions.Login(ctx, "alice", "secret")
	require.NoError(t, err)

	// A second invocation sharing the same storage.
	next, err := New(h.app.Config, WithStorage(h.storage))
	require.NoError(t, err)
	defer next.Close()

	assert.Nil(t, next.Sessions.Current())
	next.Start(ctx)

	require.NotNil(t, next.Sessions.Current())
	assert.Equal(t, "alice", next.Sessions.Current().Username)
	assert.Equal(t, 2025, next.Sessions.Current().CreatedAt.Year())
}

func TestScenario_RepeatedRejectionRedirectsOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.app.Sessions.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	h.service.revokeAll()

	var states []*models.Identity
	unsubscribe := h.app.Sessions.State().Subscribe(func(identity *models.Identity) {
		states = append(states, identity)
	})
	defer unsubscribe()

	var loginViews int
	h.app.Mount(Views{
		Login: func(ctx context.Context, location router.Location) error {
			loginViews++
			assert.Equal(t, PathHistory, location.Param(router.ReturnURLParam))
			h.app.EnterLogin(location)
			return nil
		},
		History: func(ctx context.Context, location router.Location) error {
			_, first := h.app.History(ctx, 1, 10)
			_, second := h.app.History(ctx, 2, 10)
			return errors.Join(first, second)
		},
	})

	location, err := h.app.Open(ctx, PathHistory)
	require.NoError(t, err)
	assert.Equal(t, PathLogin, location.Path)
	assert.Equal(t, 1, loginViews)

	assert.Len(t, h.forceLogouts, 2, "both rejections are published")
	require.Len(t, states, 2, "the session is cleared once")
	assert.NotNil(t, states[0])
	assert.Nil(t, states[1])

	destination, ok := h.app.Ledger.TakeIfPresent()
	require.True(t, ok)
	assert.Equal(t, PathHistory, destination)
}

func TestStart_ExpiredCredential(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.app.Sessions.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	h.service.revokeAll()

	var loginViews []string
	h.app.Mount(Views{
		Login: func(ctx context.Context, location router.Location) error {
			loginViews = append(loginViews, location.Path)
			h.app.EnterLogin(location)
			return nil
		},
		Register: func(ctx context.Context, location router.Location) error {
			if !h.app.EnterRegister(location) {
				return nil
			}
			return h.app.SubmitRegistration(ctx, models.NewUser{
				Username:        "bob",
				Email:           "not-an-email",
				Password:        "secret",
				ConfirmPassword: "secret",
			})
		},
	})

	h.app.Start(ctx)

	assert.False(t, h.app.Sessions.IsAuthenticated())

	active := h.app.Notifier.Active()
	require.Len(t, active, 1)
	assert.Equal(t, models.MessageWarning, active[0].Type)
	assert.Equal(t, sessionExpiredMessage, active[0].Text)

	pending, ok := h.app.Router.Pending()
	require.True(t, ok)
	assert.Equal(t, PathLogin, router.ParseLocation(pending).Path)

	t.Run("resume follows the login redirect", func(t *testing.T) {
		location, resumed, err := h.app.Resume(ctx)
		require.NoError(t, err)
		assert.True(t, resumed)
		assert.Equal(t, PathLogin, location.Path)
		assert.Equal(t, []string{PathLogin}, loginViews)
	})

	t.Run("open drops the queued redirect", func(t *testing.T) {
		h.app.Router.RequestNavigation(pending)

		location, err := h.app.Open(ctx, PathRegister)
		assert.ErrorIs(t, err, client.ErrValidation)
		assert.Equal(t, PathRegister, location.Path)
		assert.Len(t, loginViews, 1, "the login view must not take over")

		_, ok := h.app.Router.Pending()
		assert.False(t, ok)
	})
}

func TestStart_WithoutCredentialMakesNoCall(t *testing.T) {
	h := newHarness(t)

	h.app.Start(context.Background())

	assert.Zero(t, h.service.count(client.CurrentUserPath))
	assert.Nil(t, h.app.Sessions.Current())
}

func TestEnterLogin(t *testing.T) {
	h := newHarness(t)

	assert.True(t, h.app.EnterLogin(router.ParseLocation("/login?registered=true&returnUrl=%2Fhistory")))

	destination, ok := h.app.Ledger.Peek()
	require.True(t, ok)
	assert.Equal(t, PathHistory, destination)

	active := h.app.Notifier.Active()
	require.Len(t, active, 1)
	assert.Equal(t, models.MessageSuccess, active[0].Type)

	_, err := h.app.Sessions.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)

	assert.False(t, h.app.EnterLogin(router.ParseLocation(PathLogin)))
	pending, ok := h.app.Router.Pending()
	require.True(t, ok)
	assert.Equal(t, PathRoot, pending)
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.app.Sessions.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	require.NoError(t, h.app.Ledger.Set(PathHistory))

	h.app.Logout(ctx)

	assert.Equal(t, 1, h.service.count(client.LogoutPath))
	assert.False(t, h.app.Sessions.IsAuthenticated())
	assert.Nil(t, h.app.Sessions.Current())

	_, pending := h.app.Ledger.Peek()
	assert.False(t, pending)

	next, ok := h.app.Router.Pending()
	require.True(t, ok)
	assert.Equal(t, PathLogin, next)
}

func TestSearch_EmptyQuery(t *testing.T) {
	h := newHarness(t)

	_, err := h.app.Search(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
	assert.Zero(t, h.service.count(client.SearchPath))

	active := h.app.Notifier.Active()
	require.Len(t, active, 1)
	assert.Equal(t, models.MessageWarning, active[0].Type)
}

func TestSearch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.app.Sessions.Login(ctx, "alice", "secret")
	require.NoError(t, err)

	response, err := h.app.Search(ctx, "  weekend in Lisbon ")
	require.NoError(t, err)
	assert.Equal(t, "Answer to weekend in Lisbon", response.Response)

	response, err = h.app.Search(ctx, "trip to mars")
	assert.ErrorIs(t, err, ErrSearchFailed)
	require.NotNil(t, response)
	assert.Equal(t, "no itineraries found", response.Error)

	var errorNotices int
	for _, message := range h.app.Notifier.Active() {
		if message.Type == models.MessageError {
			errorNotices++
		}
	}
	assert.Equal(t, 1, errorNotices)
}

func TestHistory_Pages(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.app.Sessions.Login(ctx, "alice", "secret")
	require.NoError(t, err)

	page, err := h.app.History(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, config.DefaultPageSize, page.PageSize)
	assert.Equal(t, 1, page.TotalPages())
	assert.False(t, page.HasNext())
	assert.False(t, page.HasPrevious())
	require.Len(t, page.Records, 1)
	assert.Equal(t, "Cheapest flight to Tokyo", page.Records[0].Query)

	_, err = h.app.History(ctx, 3, 10)
	assert.ErrorIs(t, err, ErrNoSuchPage)
}
