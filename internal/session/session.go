package session

import (
	"errors"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

// AccountKind distinguishes the two account types the dashboard serves.
// Exactly one kind is active per session, which removes the "which token
// wins" ambiguity of keeping two parallel token slots.
type AccountKind string

const (
	AccountUser         AccountKind = "user"
	AccountOrganization AccountKind = "organization"
)

// Storage keys, one token and one cached profile blob per account kind.
const (
	keyUserToken   = "token"
	keyOrgToken    = "org_token"
	keyUserProfile = "profile"
	keyOrgProfile  = "org_profile"
)

// ErrNoToken is returned when no bearer token is stored for the session.
var ErrNoToken = errors.New("no session token")

// Session is the explicit session context handed to the HTTP client. It wraps
// the persistence store with a single AccountKind tag.
type Session struct {
	mu    sync.RWMutex
	store Store
	kind  AccountKind
}

// New creates a session over the given store, tagged with kind.
func New(store Store, kind AccountKind) *Session {
	if kind == "" {
		kind = AccountUser
	}
	return &Session{store: store, kind: kind}
}

// Kind returns the active account kind.
func (s *Session) Kind() AccountKind {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.kind
}

// SetKind switches the active account kind.
func (s *Session) SetKind(kind AccountKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kind = kind
}

// Store exposes the underlying persistence adapter for collaborators that
// keep their own local state (for example the notification read set).
func (s *Session) Store() Store {
	return s.store
}

// SetToken stores the bearer token for the active account kind.
func (s *Session) SetToken(token string) error {
	return s.store.Set(s.tokenKey(s.Kind()), token)
}

// Token returns the bearer token for the active account kind. If that slot is
// empty it falls back to the other kind, preserving the "whichever token is
// present" request behavior.
func (s *Session) Token() (string, error) {
	kind := s.Kind()
	if tok, err := s.store.Get(s.tokenKey(kind)); err == nil && tok != "" {
		return tok, nil
	}
	if tok, err := s.store.Get(s.tokenKey(otherKind(kind))); err == nil && tok != "" {
		return tok, nil
	}
	return "", ErrNoToken
}

// SetProfile caches the raw profile blob for the active account kind.
func (s *Session) SetProfile(blob string) error {
	return s.store.Set(s.profileKey(s.Kind()), blob)
}

// Profile returns the cached profile blob for the active account kind.
func (s *Session) Profile() (string, error) {
	return s.store.Get(s.profileKey(s.Kind()))
}

// Clear removes every known token and cached profile, for both account kinds.
// Called by the HTTP client's global 401 handler.
func (s *Session) Clear() {
	for _, key := range []string{keyUserToken, keyOrgToken, keyUserProfile, keyOrgProfile} {
		_ = s.store.Delete(key)
	}
}

// Authenticated reports whether a bearer token is present.
func (s *Session) Authenticated() bool {
	_, err := s.Token()
	return err == nil
}

// UserID extracts the user id from the stored bearer token's claims. The
// token is not verified here; the client only needs the id to address the
// notification feed, and the backend re-verifies every request.
func (s *Session) UserID() string {
	tok, err := s.Token()
	if err != nil {
		return ""
	}

	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(tok, claims); err != nil {
		return ""
	}

	for _, key := range []string{"userId", "sub", "id"} {
		if v, ok := claims[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func (s *Session) tokenKey(kind AccountKind) string {
	if kind == AccountOrganization {
		return keyOrgToken
	}
	return keyUserToken
}

func (s *Session) profileKey(kind AccountKind) string {
	if kind == AccountOrganization {
		return keyOrgProfile
	}
	return keyUserProfile
}

func otherKind(kind AccountKind) AccountKind {
	if kind == AccountOrganization {
		return AccountUser
	}
	return AccountOrganization
}
