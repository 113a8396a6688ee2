package session

import (
	"context"
	"sync"
	"time"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/app_errors"
)

var errExpired = app_errors.ErrTokenExpired

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

// sweepEvery bounds how often Save walks the map for expired entries.
const sweepEvery = time.Minute

// MemoryStore keeps sessions in process. Sessions are lost on restart.
// Expired entries are swept by Save, Sweep and the janitor started by Run.
type MemoryStore struct {
	mu        sync.RWMutex
	sessions  map[string]memoryEntry
	now       func() time.Time
	lastSweep time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryStore) Save(ctx context.Context, s *Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if now.Sub(m.lastSweep) >= sweepEvery {
		m.sweepLocked(now)
	}
	m.sessions[s.ID] = memoryEntry{session: *s, expiresAt: now.Add(ttl)}
	return nil
}

// Sweep drops every expired session and reports how many went.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked(m.now())
}

func (m *MemoryStore) sweepLocked(now time.Time) int {
	m.lastSweep = now
	n := 0
	for id, entry := range m.sessions {
		if !now.Before(entry.expiresAt) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is cancelled.
func (m *MemoryStore) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = sweepEvery
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-ctx.Done():
			return
		}
	}
}

// Len is the number of entries held, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	entry, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, app_errors.ErrSessionNotFound
	}
	if !m.now().Before(entry.expiresAt) {
		_ = m.Delete(ctx, id)
		return nil, app_errors.ErrSessionNotFound
	}
	s := entry.session
	return &s, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
