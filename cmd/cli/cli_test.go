package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travelrag/travel-cli/internal/app"
	"github.com/travelrag/travel-cli/internal/client"
	"github.com/travelrag/travel-cli/internal/config"
	"github.com/travelrag/travel-cli/internal/models"
	"github.com/travelrag/travel-cli/internal/notify"
	"github.com/travelrag/travel-cli/internal/sessions"
)

type fakeService struct {
	mu    sync.Mutex
	calls map[string]int
}

func (s *fakeService) count(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[key]
}

func (s *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.calls[r.Method+" "+r.URL.Path]++
	s.mu.Unlock()

	reply := func(status int, body any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}

	switch {
	case r.Method == http.MethodOptions:
		w.WriteHeader(http.StatusMethodNotAllowed)
	case r.URL.Path == client.TokenPath:
		if err := r.ParseForm(); err != nil || r.PostForm.Get("password") != "secret" {
			reply(http.StatusUnauthorized, map[string]string{"detail": "Incorrect username or password"})
			return
		}
		reply(http.StatusOK, map[string]string{"access_token": "t1", "token_type": "bearer"})
	case r.Header.Get("Authorization") != "Bearer t1":
		reply(http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
	case r.URL.Path == client.CurrentUserPath:
		reply(http.StatusOK, map[string]any{"id": 1, "user_name": "alice"})
	case r.URL.Path == client.HistoryPath:
		reply(http.StatusOK, map[string]any{
			"records": []map[string]any{{"id": 7, "query": "Rome in May", "response": "Take the train."}},
			"total":   1,
		})
	case r.Method == http.MethodDelete && r.URL.Path == client.HistoryPath+"/7":
		reply(http.StatusOK, map[string]string{"message": "Record deleted"})
	default:
		reply(http.StatusNotFound, map[string]string{"detail": "Not Found"})
	}
}

func newTestApp(t *testing.T) (*app.App, *fakeService) {
	t.Helper()

	service := &fakeService{calls: make(map[string]int)}
	server := httptest.NewServer(service)
	t.Cleanup(server.Close)

	cfg := config.DefaultConfig()
	cfg.API.Endpoint = server.URL

	a, err := app.New(cfg, app.WithStorage(sessions.NewMemoryStorage()))
	require.NoError(t, err)
	t.Cleanup(a.Close)

	mountViews(a)

	previous := isInteractive
	isInteractive = func() bool { return false }

	t.Cleanup(func() {
		isInteractive = previous
		loginInput.username, loginInput.password, loginInput.skipCheck = "", "", false
		registerInput = models.NewUser{}
	})

	return a, service
}

func TestViews_LoginReturnsToProtectedView(t *testing.T) {
	a, service := newTestApp(t)
	loginInput.username, loginInput.password = "alice", "secret"

	location, err := a.Open(context.Background(), app.PathHistory)
	require.NoError(t, err)

	assert.Equal(t, app.PathHistory, location.Path)
	assert.Equal(t, 1, service.count("POST "+client.TokenPath))
	assert.Equal(t, 1, service.count("GET "+client.HistoryPath))
	assert.Equal(t, "alice", a.Sessions.Current().GetName())

	_, pending := a.Ledger.Peek()
	assert.False(t, pending)
}

func TestViews_LoginWithoutCredentials(t *testing.T) {
	a, service := newTestApp(t)

	location, err := a.Open(context.Background(), app.PathHistory)
	assert.ErrorIs(t, err, errLoginRequired)
	assert.Equal(t, app.PathLogin, location.Path)
	assert.Zero(t, service.count("GET "+client.HistoryPath))

	destination, ok := a.Ledger.Peek()
	require.True(t, ok)
	assert.Equal(t, app.PathHistory, destination)
}

func TestViews_LoginRejected(t *testing.T) {
	a, _ := newTestApp(t)
	loginInput.username, loginInput.password = "alice", "wrong"

	_, err := a.Open(context.Background(), app.PathLogin)
	assert.ErrorIs(t, err, client.ErrInvalidCredentials)
	assert.True(t, reported(err))
	assert.False(t, a.Sessions.IsAuthenticated())
}

func TestViews_Delete(t *testing.T) {
	a, service := newTestApp(t)
	loginInput.username, loginInput.password = "alice", "secret"
	_, err := a.Open(context.Background(), app.PathLogin)
	require.NoError(t, err)

	_, err = a.Open(context.Background(), recordURL(pathDelete, 7))
	assert.ErrorIs(t, err, errNotConfirmed)
	assert.Zero(t, service.count("DELETE "+client.HistoryPath+"/7"))

	_, err = a.Open(context.Background(), "/history/delete?id=7&confirm=true")
	require.NoError(t, err)
	assert.Equal(t, 1, service.count("DELETE "+client.HistoryPath+"/7"))

	_, err = a.Open(context.Background(), "/history/delete?id=abc&confirm=true")
	assert.ErrorIs(t, err, errInvalidID)
}

func TestRenderMessage(t *testing.T) {
	tests := []struct {
		kind models.MessageType
		icon string
	}{
		{models.MessageSuccess, "✓"},
		{models.MessageError, "✗"},
		{models.MessageWarning, "!"},
		{models.MessageInfo, "i"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			var buf bytes.Buffer
			renderMessage(&buf, models.Message{Type: tt.kind, Text: "hello"})
			assert.Contains(t, buf.String(), tt.icon+" hello")
		})
	}
}

func TestMessageBoard_PauseHoldsMessages(t *testing.T) {
	var buf bytes.Buffer
	notifier := notify.New()
	b := &messageBoard{out: &buf, notifier: notifier}

	unsubscribe := notifier.Subscribe(b.show)
	defer unsubscribe()

	b.pause()
	notifier.Info("first")
	assert.Empty(t, buf.String())
	assert.Len(t, notifier.Active(), 1)

	b.resume()
	assert.Contains(t, buf.String(), "first")
	assert.Empty(t, notifier.Active())

	notifier.Info("second")
	assert.Contains(t, buf.String(), "second")
	assert.Empty(t, notifier.Active())
}

func TestAttachNotifications_DismissesPrinted(t *testing.T) {
	a, _ := newTestApp(t)

	var buf bytes.Buffer
	previous := board
	board = &messageBoard{out: &buf}
	t.Cleanup(func() { board = previous })

	detach := attachNotifications(a.Notifier)
	defer detach()

	a.Notifier.Warning("Session expired")

	assert.Contains(t, buf.String(), "! Session expired")
	assert.Empty(t, a.Notifier.Active())
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview("short", 10))
	assert.Equal(t, "one two", preview("one\n  two", 10))
	assert.Equal(t, "abcd…", preview("abcdefgh", 5))
	assert.Equal(t, "€€€", preview("€€€", 3))
}

func TestHistoryRows(t *testing.T) {
	rows := historyRows([]models.QueryRecord{
		{ID: 3, Query: "Lisbon", Response: "Go in spring"},
	})
	require.Len(t, rows, 1)
	assert.Equal(t, "3", rows[0][0])
	assert.Equal(t, "Lisbon", rows[0][2])
	assert.Len(t, rows[0], len(historyHeader))
}

func TestTokenExpiry(t *testing.T) {
	expiry := time.Now().Add(30 * time.Minute).Truncate(time.Second)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"exp": expiry.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	got, ok := tokenExpiry(signed)
	require.True(t, ok)
	assert.True(t, expiry.Equal(got))

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, ok = tokenExpiry(noExpiry)
	assert.False(t, ok)

	_, ok = tokenExpiry("not-a-jwt")
	assert.False(t, ok)
}

func TestDescribeExpiry(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, strings.HasPrefix(describeExpiry(now.Add(90*time.Second), now), "in 1m30s"))
	expired := describeExpiry(now.Add(-time.Minute), now)
	assert.Contains(t, expired, "expired")
	assert.Contains(t, expired, "1m0s")
}

func TestPageURL(t *testing.T) {
	assert.Equal(t, "/history?page=2", pageURL(2, 0))
	assert.Equal(t, "/history?page=1&size=5", pageURL(0, 5))
}

func TestConnectivityHint(t *testing.T) {
	hint, ok := connectivityHint(fmt.Errorf("login: %w", client.ErrNetworkUnavailable), "http://localhost:8000")
	require.True(t, ok)
	assert.Contains(t, hint, "http://localhost:8000")

	_, ok = connectivityHint(client.ErrUnauthorized, "http://localhost:8000")
	assert.False(t, ok)

	_, ok = connectivityHint(errors.New("boom"), "http://localhost:8000")
	assert.False(t, ok)
}

func TestReported(t *testing.T) {
	assert.True(t, reported(client.ErrUnauthorized))
	assert.True(t, reported(app.ErrEmptyQuery))
	assert.True(t, reported(app.ErrSearchFailed))
	assert.False(t, reported(errLoginRequired))
	assert.False(t, reported(errors.New("boom")))
}
