package client

import (
	"fmt"
	"sync"
	"time"

	"rifas/internal/auth"
	"rifas/internal/models"
)

// Identity is what the client knows about the signed-in user. It is read
// from the token without verifying the signature; the server stays the
// authority.
type Identity struct {
	UserID    string
	TenantID  string
	Email     string
	Name      string
	Role      string
	ExpiresAt time.Time
}

// IsAdmin reports whether the identity may reach the admin screens
func (i Identity) IsAdmin() bool {
	return models.IsAdminRole(i.Role)
}

// Session holds the bearer token shared by every request of a Client
type Session struct {
	mu       sync.RWMutex
	token    string
	identity *Identity
	onLogout []func()
	now      func() time.Time
}

func NewSession() *Session {
	return &Session{now: time.Now}
}

// SetToken replaces the current token. Malformed or expired tokens are
// rejected and leave the session unchanged.
func (s *Session) SetToken(token string) (*Identity, error) {
	claims, err := auth.DecodeUnverified(token)
	if err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	if claims.Expired(s.now()) {
		return nil, fmt.Errorf("%w: token expired", ErrUnauthenticated)
	}

	id := &Identity{
		UserID:   claims.UserID,
		TenantID: claims.TenantID,
		Email:    claims.Email,
		Name:     claims.Name,
		Role:     claims.Role,
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}

	s.mu.Lock()
	s.token = token
	s.identity = id
	s.mu.Unlock()

	copied := *id
	return &copied, nil
}

// Refresh updates the identity with the server's view of the user. It is
// ignored when the session was dropped or now belongs to someone else.
func (s *Session) Refresh(me models.MeResponse) (Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil || s.identity.UserID != me.ID {
		return Identity{}, false
	}
	s.identity.Email = me.Email
	s.identity.Name = me.Name
	s.identity.Role = me.Role
	s.identity.TenantID = me.TenantID
	return *s.identity, true
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Identity returns the signed-in user, if any
func (s *Session) Identity() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return Identity{}, false
	}
	return *s.identity, true
}

// Authenticated reports whether a token is held and not yet expired
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" || s.identity == nil {
		return false
	}
	return s.identity.ExpiresAt.IsZero() || s.now().Before(s.identity.ExpiresAt)
}

// OnLogout registers a callback run after every logout
func (s *Session) OnLogout(fn func()) {
	s.mu.Lock()
	s.onLogout = append(s.onLogout, fn)
	s.mu.Unlock()
}

// Logout drops the token and runs the logout callbacks. Logging out an
// empty session still runs them.
func (s *Session) Logout() {
	s.mu.Lock()
	s.token = ""
	s.identity = nil
	callbacks := append([]func(){}, s.onLogout...)
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}
