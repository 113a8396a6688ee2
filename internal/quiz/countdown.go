package quiz

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/app_errors"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
	"github.com/MohamedLahlami/EMSTUDY-sub000/pkg/logger"
)

type State string

const (
	StateRunning    State = "running"
	StateSubmitting State = "submitting"
	StateSubmitted  State = "submitted"
	StateStopped    State = "stopped"
)

// SubmitFunc persists the selection. req.AutoSubmitted is set when the
// countdown fired.
type SubmitFunc func(ctx context.Context, req models.SubmissionRequest) (*models.Submission, error)

// Attempt is one countdown over one quiz. The selection is submitted exactly
// once: either by Submit or by the tick that sees the remaining time reach zero.
type Attempt struct {
	quiz      models.Quiz
	startedAt time.Time
	deadline  time.Time
	tick      time.Duration
	submit    SubmitFunc
	log       logger.Log
	now       func() time.Time

	mu         sync.Mutex
	state      State
	selection  map[uuid.UUID]uuid.UUID
	remaining  time.Duration
	submission *models.Submission
	err        error
	endedAt    time.Time

	once sync.Once
	stop chan struct{}
	done chan struct{}
}

type Option func(*Attempt)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Attempt) { a.now = now }
}

// NewAttempt prepares an attempt. The countdown does not run until Start.
func NewAttempt(log logger.Log, q models.Quiz, startedAt time.Time, tick time.Duration, submit SubmitFunc, opts ...Option) *Attempt {
	if tick <= 0 {
		tick = time.Second
	}
	a := &Attempt{
		quiz:      q,
		startedAt: startedAt,
		deadline:  startedAt.Add(q.Duration()),
		tick:      tick,
		submit:    submit,
		log:       log,
		now:       time.Now,
		state:     StateRunning,
		selection: make(map[uuid.UUID]uuid.UUID),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.remaining = a.left()
	return a
}

func (a *Attempt) left() time.Duration {
	d := a.deadline.Sub(a.now())
	if d < 0 {
		return 0
	}
	return d
}

// Start runs the countdown until it fires, Submit wins the latch, Stop is
// called or ctx is cancelled.
func (a *Attempt) Start(ctx context.Context) {
	if a.left() == 0 {
		go a.finish(context.Background(), true)
		return
	}
	go a.run(ctx)
}

func (a *Attempt) run(ctx context.Context) {
	ticker := time.NewTicker(a.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.mu.Lock()
			if a.state != StateRunning {
				a.mu.Unlock()
				return
			}
			a.remaining = a.left()
			zero := a.remaining == 0
			a.mu.Unlock()
			if zero {
				a.finish(context.Background(), true)
				return
			}
		case <-a.stop:
			return
		case <-a.done:
			return
		case <-ctx.Done():
			a.Stop()
			return
		}
	}
}

// finish is the latch. Only the first caller submits; everybody else waits
// for that outcome.
func (a *Attempt) finish(ctx context.Context, auto bool) (*models.Submission, error) {
	a.once.Do(func() {
		a.mu.Lock()
		if a.state == StateStopped {
			a.err = app_errors.ErrAttemptClosed
			a.endedAt = a.now()
			a.mu.Unlock()
			close(a.done)
			return
		}
		a.state = StateSubmitting
		a.remaining = a.left()
		req := models.SubmissionRequest{
			QuizID:        a.quiz.ID,
			StartedAt:     a.startedAt,
			Answers:       a.selectedLocked(),
			AutoSubmitted: auto,
		}
		a.mu.Unlock()

		sub, err := a.submit(ctx, req)

		a.mu.Lock()
		if err != nil {
			// no retry: the attempt stays in submitting
			a.err = err
			a.log.ErrorErr("quiz submission failed", err, "quiz_id", a.quiz.ID, "auto", auto)
		} else {
			a.state = StateSubmitted
			a.submission = sub
			a.log.Info("quiz submitted", "quiz_id", a.quiz.ID, "submission_id", sub.ID, "auto", auto, "answers", len(req.Answers))
		}
		a.endedAt = a.now()
		a.mu.Unlock()
		close(a.done)
	})
	<-a.done

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.submission, a.err
}

// Submit hands the current selection in. Calling it after the countdown fired
// returns the countdown's outcome.
func (a *Attempt) Submit(ctx context.Context) (*models.Submission, error) {
	return a.finish(ctx, false)
}

// Stop clears the timer without submitting. It is a no-op once submission began.
func (a *Attempt) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateRunning {
		return
	}
	a.state = StateStopped
	a.endedAt = a.now()
	close(a.stop)
}

// Select records answerID for questionID, replacing an earlier choice.
func (a *Attempt) Select(questionID, answerID uuid.UUID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateRunning {
		return app_errors.ErrAttemptClosed
	}
	a.selection[questionID] = answerID
	return nil
}

func (a *Attempt) Selected(questionID uuid.UUID) (uuid.UUID, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id, ok := a.selection[questionID]
	return id, ok
}

func (a *Attempt) selectedLocked() []models.SelectedAnswer {
	out := make([]models.SelectedAnswer, 0, len(a.selection))
	for q, ans := range a.selection {
		out = append(out, models.SelectedAnswer{QuestionID: q, AnswerID: ans})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].QuestionID.String() < out[j].QuestionID.String()
	})
	return out
}

// Remaining is the time left as of the last tick.
func (a *Attempt) Remaining() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.remaining
}

func (a *Attempt) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Result is the submission once it went through, or the error that left the
// attempt in submitting.
func (a *Attempt) Result() (*models.Submission, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.submission, a.err
}

func (a *Attempt) Quiz() models.Quiz { return a.quiz }

func (a *Attempt) StartedAt() time.Time { return a.startedAt }

func (a *Attempt) Deadline() time.Time { return a.deadline }

// EndedAt is when the attempt was submitted, failed to submit or was stopped.
// ok is false while it is still running or waiting on the API.
func (a *Attempt) EndedAt() (t time.Time, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.endedAt, !a.endedAt.IsZero()
}

// Done is closed once the latch resolved.
func (a *Attempt) Done() <-chan struct{} { return a.done }
