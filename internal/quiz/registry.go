package quiz

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/app_errors"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
	"github.com/MohamedLahlami/EMSTUDY-sub000/pkg/logger"
)

type key struct {
	session string
	quiz    uuid.UUID
}

// DefaultRetention is how long a finished attempt stays readable so the
// take page can still send the student to the result.
const DefaultRetention = 10 * time.Minute

// Registry holds the attempts of every signed-in session, one per quiz.
// Finished attempts are dropped once they are older than the retention.
type Registry struct {
	log       logger.Log
	tick      time.Duration
	retention time.Duration
	ctx       context.Context
	stop      context.CancelFunc
	now       func() time.Time

	mu       sync.Mutex
	attempts map[key]*Attempt
}

type RegistryOption func(*Registry)

// WithRetention sets how long finished attempts are kept.
func WithRetention(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.retention = d
		}
	}
}

// WithRegistryClock replaces time.Now for the registry and its attempts.
func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

// NewRegistry starts a janitor that prunes finished attempts every retention
// period until Close.
func NewRegistry(log logger.Log, tick time.Duration, opts ...RegistryOption) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Registry{
		log:       log,
		tick:      tick,
		retention: DefaultRetention,
		ctx:       ctx,
		stop:      cancel,
		now:       time.Now,
		attempts:  make(map[key]*Attempt),
	}
	for _, opt := range opts {
		opt(r)
	}
	go r.janitor()
	return r
}

func (r *Registry) janitor() {
	ticker := time.NewTicker(r.retention)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := r.Prune(); n > 0 {
				r.log.Debug("pruned quiz attempts", "count", n)
			}
		case <-r.ctx.Done():
			return
		}
	}
}

// Prune drops attempts that ended more than the retention ago and reports
// how many went.
func (r *Registry) Prune() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-r.retention)
	n := 0
	for k, a := range r.attempts {
		if ended, ok := a.EndedAt(); ok && !ended.After(cutoff) {
			delete(r.attempts, k)
			n++
		}
	}
	return n
}

// Len is the number of attempts held, finished ones included.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.attempts)
}

// Start returns the session's running attempt at q, or begins a new one at
// startedAt. A finished or stopped attempt is replaced.
func (r *Registry) Start(sessionID string, q models.Quiz, startedAt time.Time, submit SubmitFunc) *Attempt {
	k := key{session: sessionID, quiz: q.ID}

	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.attempts[k]; ok {
		switch a.State() {
		case StateRunning, StateSubmitting:
			return a
		}
	}
	a := NewAttempt(r.log, q, startedAt, r.tick, submit, WithClock(r.now))
	r.attempts[k] = a
	a.Start(r.ctx)
	r.log.Debug("quiz attempt started", "quiz_id", q.ID, "duration_minutes", q.DurationMinutes)
	return a
}

func (r *Registry) Get(sessionID string, quizID uuid.UUID) (*Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[key{session: sessionID, quiz: quizID}]
	if !ok {
		return nil, app_errors.ErrAttemptNotFound
	}
	return a, nil
}

// Remove stops and forgets the attempt.
func (r *Registry) Remove(sessionID string, quizID uuid.UUID) {
	k := key{session: sessionID, quiz: quizID}
	r.mu.Lock()
	a, ok := r.attempts[k]
	delete(r.attempts, k)
	r.mu.Unlock()
	if ok {
		a.Stop()
	}
}

// EndSession stops every attempt the session still has running.
func (r *Registry) EndSession(sessionID string) {
	r.mu.Lock()
	var stopped []*Attempt
	for k, a := range r.attempts {
		if k.session == sessionID {
			stopped = append(stopped, a)
			delete(r.attempts, k)
		}
	}
	r.mu.Unlock()
	for _, a := range stopped {
		a.Stop()
	}
}

// Close stops all countdowns.
func (r *Registry) Close() {
	r.stop()
}
