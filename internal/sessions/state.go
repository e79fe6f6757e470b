package sessions

import (
	"sync"

	"github.com/travelrag/travel-cli/internal/common"
	"github.com/travelrag/travel-cli/internal/models"
)

// SessionState holds the current identity, or nil when signed out.
// Subscribers receive the current value on subscription and every change
// after it, synchronously with the write. Only the SessionManager writes.
type SessionState struct {
	mu      sync.RWMutex
	current *models.Identity
	hub     *common.Hub[*models.Identity]
}

func NewSessionState() *SessionState {
	return &SessionState{
		hub: common.NewHub[*models.Identity](),
	}
}

func (s *SessionState) Current() *models.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *SessionState) Subscribe(fn func(*models.Identity)) func() {
	unsubscribe := s.hub.Subscribe(fn)
	fn(s.Current())
	return unsubscribe
}

// store replaces the value without notifying.
func (s *SessionState) store(identity *models.Identity) (changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed = s.current != identity
	s.current = identity
	return changed
}

// publish delivers the value current at the time of the call, so a late
// publisher never overwrites a newer value in the subscribers' view.
func (s *SessionState) publish() {
	s.hub.Publish(s.Current())
}
