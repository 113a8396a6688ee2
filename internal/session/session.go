package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
)

// Session is what the web tier knows about a signed-in browser.
type Session struct {
	ID        string      `json:"id"`
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

func (s *Session) HasRole(role string) bool {
	return s != nil && s.User.Role == role
}

func (s *Session) IsStudent() bool { return s.HasRole(models.StudentRole) }

func (s *Session) IsTeacher() bool { return s.HasRole(models.TeacherRole) }

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// HomePath is the landing route for role.
func HomePath(role string) string {
	switch role {
	case models.StudentRole:
		return "/student"
	case models.TeacherRole:
		return "/teacher"
	default:
		return "/login"
	}
}

type Store interface {
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// Manager turns API tokens into stored sessions.
type Manager struct {
	parser *TokenParser
	store  Store
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(parser *TokenParser, store Store, ttl time.Duration) *Manager {
	return &Manager{parser: parser, store: store, ttl: ttl, now: time.Now}
}

// Open parses token and stores a new session for it. The session lives until
// the token expires or ttl elapses, whichever is first.
func (m *Manager) Open(ctx context.Context, token string) (*Session, error) {
	user, expiresAt, err := m.parser.Parse(token)
	if err != nil {
		return nil, err
	}
	if limit := m.now().Add(m.ttl); m.ttl > 0 && limit.Before(expiresAt) {
		expiresAt = limit
	}
	s := &Session{
		ID:        uuid.NewString(),
		Token:     token,
		User:      user,
		ExpiresAt: expiresAt,
	}
	if err := m.store.Save(ctx, s, expiresAt.Sub(m.now())); err != nil {
		return nil, err
	}
	return s, nil
}

// Current loads the session id points at and drops it once expired.
func (m *Manager) Current(ctx context.Context, id string) (*Session, error) {
	s, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Expired(m.now()) {
		_ = m.store.Delete(ctx, id)
		return nil, errExpired
	}
	return s, nil
}

func (m *Manager) Close(ctx context.Context, id string) error {
	return m.store.Delete(ctx, id)
}
