package auth

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid session")
)

// sessionPattern extracts the session value from a raw Cookie header. Only
// an unbroken run of digits counts; anything else is an absent session.
var sessionPattern = regexp.MustCompile(`session=(\d+)`)

// SessionToken extracts the session token from a raw Cookie header, or ""
// when no session is present. This is the one place the cookie wire format
// is parsed.
func SessionToken(cookieHeader string) string {
	m := sessionPattern.FindStringSubmatch(cookieHeader)
	if m == nil {
		return ""
	}
	return m[1]
}

// Service issues and resolves sessions against the credential store.
//
// The session token is the decimal user id, carried in the client cookie
// with no server-side secret and no expiry. Resolve checks the id against
// the user store, not against the issued-session registry, so any valid id
// authenticates regardless of whether a login happened. That weakness is
// part of the contract this service reproduces; the registry only models
// the issue/invalidate lifecycle.
type Service struct {
	users   UserStore
	nowFunc func() time.Time

	sessMu   sync.RWMutex
	sessions map[string]Session
}

func NewService(users UserStore) (*Service, error) {
	if users == nil {
		return nil, fmt.Errorf("user store is required")
	}
	return &Service{
		users:    users,
		nowFunc:  time.Now,
		sessions: make(map[string]Session),
	}, nil
}

// Login matches the credentials exactly and issues a session whose token is
// the user's id. Unknown username and wrong password are indistinguishable
// to the caller.
func (s *Service) Login(username, password string) (Session, error) {
	u, err := s.users.GetByCredentials(username, password)
	if err != nil {
		return Session{}, ErrInvalidCredentials
	}

	session := Session{
		Token:    strconv.FormatInt(u.ID, 10),
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		IssuedAt: s.nowFunc(),
	}

	s.sessMu.Lock()
	s.sessions[session.Token] = session
	s.sessMu.Unlock()

	return session, nil
}

// Resolve authenticates a raw Cookie header. A missing cookie, a malformed
// value, and an id with no matching user all yield ErrInvalidSession; the
// caller cannot tell them apart.
func (s *Service) Resolve(cookieHeader string) (User, error) {
	token := SessionToken(cookieHeader)
	if token == "" {
		return User{}, ErrInvalidSession
	}

	id, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return User{}, ErrInvalidSession
	}

	u, err := s.users.GetByID(id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrInvalidSession
		}
		return User{}, fmt.Errorf("resolve session: %w", err)
	}
	return u, nil
}

// Logout invalidates the session for a token. It succeeds whether or not a
// session was ever issued for it.
func (s *Service) Logout(token string) {
	s.sessMu.Lock()
	delete(s.sessions, token)
	s.sessMu.Unlock()
}

func (s *Service) ActiveSessions() int {
	s.sessMu.RLock()
	defer s.sessMu.RUnlock()
	return len(s.sessions)
}
