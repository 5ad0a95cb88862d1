package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Credentials is what survives between runs of the client
type Credentials struct {
	Token string `json:"token,omitempty"`
	Theme Theme  `json:"theme,omitempty"`
}

// CredentialStore persists Credentials
type CredentialStore interface {
	Load() (Credentials, error)
	Save(Credentials) error
}

// FileCredentialStore keeps credentials in a JSON file readable only by
// the owner
type FileCredentialStore struct {
	Path string
}

func (s FileCredentialStore) Load() (Credentials, error) {
	var creds Credentials
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return creds, nil
	}
	if err != nil {
		return creds, fmt.Errorf("failed to read credentials: %w", err)
	}
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("failed to decode credentials: %w", err)
	}
	return creds, nil
}

func (s FileCredentialStore) Save(creds Credentials) error {
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("failed to create credentials dir: %w", err)
	}
	if err := os.WriteFile(s.Path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return nil
}

type MemoryCredentialStore struct {
	mu    sync.Mutex
	creds Credentials
}

func (s *MemoryCredentialStore) Load() (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds, nil
}

func (s *MemoryCredentialStore) Save(creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	return nil
}

// AppState is the authentication and theme state of a client run. It is
// only changed through Login, Logout, SetTheme and ToggleTheme.
type AppState struct {
	store   CredentialStore
	session *Session

	mu    sync.Mutex
	theme Theme
}

// NewAppState restores the stored session. A stored token that is no
// longer usable is dropped.
func NewAppState(store CredentialStore, session *Session) (*AppState, error) {
	creds, err := store.Load()
	if err != nil {
		return nil, err
	}

	a := &AppState{store: store, session: session, theme: ThemeLight}
	if creds.Theme == ThemeDark {
		a.theme = ThemeDark
	}

	if creds.Token != "" {
		if _, err := session.SetToken(creds.Token); err != nil {
			if err := a.persist(""); err != nil {
				return nil, err
			}
		}
	}

	session.OnLogout(func() {
		_ = a.persist("")
	})
	return a, nil
}

func (a *AppState) Session() *Session {
	return a.session
}

// Login adopts a freshly issued token and persists it
func (a *AppState) Login(token string) (*Identity, error) {
	id, err := a.session.SetToken(token)
	if err != nil {
		return nil, err
	}
	if err := a.persist(token); err != nil {
		return nil, err
	}
	return id, nil
}

// Logout drops the session. The stored token is cleared by the session's
// logout callback and the theme is kept.
func (a *AppState) Logout() {
	a.session.Logout()
}

func (a *AppState) Theme() Theme {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.theme
}

func (a *AppState) SetTheme(t Theme) error {
	if t != ThemeLight && t != ThemeDark {
		return fmt.Errorf("%w: unknown theme %q", ErrValidation, t)
	}
	a.mu.Lock()
	a.theme = t
	a.mu.Unlock()
	return a.persist(a.session.Token())
}

func (a *AppState) ToggleTheme() (Theme, error) {
	next := ThemeDark
	if a.Theme() == ThemeDark {
		next = ThemeLight
	}
	return next, a.SetTheme(next)
}

func (a *AppState) persist(token string) error {
	a.mu.Lock()
	creds := Credentials{Token: token, Theme: a.theme}
	a.mu.Unlock()

	if err := a.store.Save(creds); err != nil {
		return fmt.Errorf("failed to persist app state: %w", err)
	}
	return nil
}
