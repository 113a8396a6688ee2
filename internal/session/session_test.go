package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/app_errors"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
)

const testSecret = "test-secret"

func signToken(t *testing.T, role string, expiresAt time.Time) (string, uuid.UUID) {
	t.Helper()
	id := uuid.New()
	claims := models.AccessClaims{
		UserID: id,
		Name:   "Ada",
		Email:  "ada@example.com",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return raw, id
}

func TestTokenParserReadsClaims(t *testing.T) {
	raw, id := signToken(t, models.TeacherRole, time.Now().Add(time.Hour))

	for name, parser := range map[string]*TokenParser{
		"unverified": NewTokenParser(""),
		"verified":   NewTokenParser(testSecret),
	} {
		t.Run(name, func(t *testing.T) {
			user, exp, err := parser.Parse(raw)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if user.ID != id || user.Role != models.TeacherRole || user.Email != "ada@example.com" {
				t.Errorf("Parse() user = %+v", user)
			}
			if time.Until(exp) <= 0 {
				t.Errorf("Parse() expiry %v is not in the future", exp)
			}
		})
	}
}

func TestTokenParserRejectsExpired(t *testing.T) {
	raw, _ := signToken(t, models.StudentRole, time.Now().Add(-time.Minute))

	for name, parser := range map[string]*TokenParser{
		"unverified": NewTokenParser(""),
		"verified":   NewTokenParser(testSecret),
	} {
		t.Run(name, func(t *testing.T) {
			if _, _, err := parser.Parse(raw); !errors.Is(err, app_errors.ErrTokenExpired) {
				t.Fatalf("Parse() error = %v, want ErrTokenExpired", err)
			}
		})
	}
}

func TestTokenParserRejectsBadSignatureAndRole(t *testing.T) {
	raw, _ := signToken(t, models.StudentRole, time.Now().Add(time.Hour))
	if _, _, err := NewTokenParser("other-secret").Parse(raw); !errors.Is(err, app_errors.ErrInvalidToken) {
		t.Errorf("wrong secret: error = %v, want ErrInvalidToken", err)
	}

	raw, _ = signToken(t, "admin", time.Now().Add(time.Hour))
	if _, _, err := NewTokenParser("").Parse(raw); !errors.Is(err, app_errors.ErrUnknownRole) {
		t.Errorf("unknown role: error = %v, want ErrUnknownRole", err)
	}

	if _, _, err := NewTokenParser("").Parse("not-a-jwt"); !errors.Is(err, app_errors.ErrInvalidToken) {
		t.Errorf("garbage: error = %v, want ErrInvalidToken", err)
	}
}

func TestManagerOpenCurrentClose(t *testing.T) {
	ctx := context.Background()
	raw, id := signToken(t, models.StudentRole, time.Now().Add(time.Hour))
	m := NewManager(NewTokenParser(""), NewMemoryStore(), 30*time.Minute)

	s, err := m.Open(ctx, raw)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !s.IsStudent() || s.IsTeacher() {
		t.Errorf("role accessors wrong for %+v", s.User)
	}
	if s.User.ID != id {
		t.Errorf("session user id = %v, want %v", s.User.ID, id)
	}
	if d := time.Until(s.ExpiresAt); d > 31*time.Minute {
		t.Errorf("session expiry not capped by ttl: %v", d)
	}

	got, err := m.Current(ctx, s.ID)
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if got.Token != raw {
		t.Errorf("Current() token mismatch")
	}

	if err := m.Close(ctx, s.ID); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := m.Current(ctx, s.ID); !errors.Is(err, app_errors.ErrSessionNotFound) {
		t.Errorf("Current() after Close error = %v, want ErrSessionNotFound", err)
	}
}

func TestManagerDropsExpiredSession(t *testing.T) {
	ctx := context.Background()
	raw, _ := signToken(t, models.TeacherRole, time.Now().Add(time.Hour))
	store := NewMemoryStore()
	m := NewManager(NewTokenParser(""), store, time.Hour)

	s, err := m.Open(ctx, raw)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	if _, err := m.Current(ctx, s.ID); !errors.Is(err, app_errors.ErrTokenExpired) {
		t.Fatalf("Current() error = %v, want ErrTokenExpired", err)
	}
	if _, err := store.Get(ctx, s.ID); !errors.Is(err, app_errors.ErrSessionNotFound) {
		t.Errorf("expired session still stored: %v", err)
	}
}

func TestHomePath(t *testing.T) {
	cases := map[string]string{
		models.StudentRole: "/student",
		models.TeacherRole: "/teacher",
		"":                 "/login",
	}
	for role, want := range cases {
		if got := HomePath(role); got != want {
			t.Errorf("HomePath(%q) = %q, want %q", role, got, want)
		}
	}
}

func TestMemoryStoreSweepsUnreadExpiredSessions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }

	for i := 0; i < 1000; i++ {
		if err := store.Save(ctx, &Session{ID: uuid.NewString()}, time.Millisecond); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}
	if err := store.Save(ctx, &Session{ID: "live"}, time.Hour); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	now = now.Add(20 * time.Millisecond)
	if n := store.Sweep(); n != 1000 {
		t.Fatalf("Sweep() = %d, want 1000", n)
	}
	if store.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", store.Len())
	}

	for i := 0; i < 10; i++ {
		_ = store.Save(ctx, &Session{ID: uuid.NewString()}, time.Millisecond)
	}
	now = now.Add(sweepEvery)
	_ = store.Save(ctx, &Session{ID: "next"}, time.Hour)
	if store.Len() != 2 {
		t.Fatalf("Len() after Save sweep = %d, want 2", store.Len())
	}
}

func TestMemoryStoreRunSweepsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := NewMemoryStore()
	for i := 0; i < 100; i++ {
		_ = store.Save(ctx, &Session{ID: uuid.NewString()}, time.Millisecond)
	}

	done := make(chan struct{})
	go func() {
		store.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for store.Len() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("Len() = %d, want 0", store.Len())
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
