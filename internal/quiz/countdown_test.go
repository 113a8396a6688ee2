package quiz

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/app_errors"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
	"github.com/MohamedLahlami/EMSTUDY-sub000/pkg/logger"
)

const testTick = 5 * time.Millisecond

type recorder struct {
	calls atomic.Int32
	mu    sync.Mutex
	last  models.SubmissionRequest
	fail  error
}

func (r *recorder) submit(ctx context.Context, req models.SubmissionRequest) (*models.Submission, error) {
	r.calls.Add(1)
	r.mu.Lock()
	r.last = req
	r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	return &models.Submission{ID: uuid.New(), QuizID: req.QuizID, AutoSubmitted: req.AutoSubmitted}, nil
}

func (r *recorder) request() models.SubmissionRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// oneMinuteQuiz returns a one minute quiz whose attempt started so long ago
// that only left remains.
func oneMinuteQuiz(left time.Duration) (models.Quiz, time.Time) {
	q := models.Quiz{ID: uuid.New(), Title: "Warm-up", DurationMinutes: 1}
	return q, time.Now().Add(-time.Minute + left)
}

func waitDone(t *testing.T, a *Attempt) {
	t.Helper()
	select {
	case <-a.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("attempt did not finish in time")
	}
}

func TestCountdownSubmitsEmptySelectionOnceAtZero(t *testing.T) {
	rec := &recorder{}
	q, startedAt := oneMinuteQuiz(30 * time.Millisecond)
	a := NewAttempt(logger.Discard(), q, startedAt, testTick, rec.submit)
	a.Start(context.Background())

	waitDone(t, a)
	time.Sleep(10 * testTick)

	if got := rec.calls.Load(); got != 1 {
		t.Fatalf("submit called %d times, want 1", got)
	}
	req := rec.request()
	if !req.AutoSubmitted {
		t.Error("AutoSubmitted = false, want true")
	}
	if len(req.Answers) != 0 {
		t.Errorf("Answers = %v, want empty", req.Answers)
	}
	if !req.StartedAt.Equal(startedAt) || req.QuizID != q.ID {
		t.Errorf("request = %+v", req)
	}
	if a.State() != StateSubmitted {
		t.Errorf("State() = %s, want submitted", a.State())
	}
	if a.Remaining() != 0 {
		t.Errorf("Remaining() = %v, want 0", a.Remaining())
	}
}

func TestCountdownSubmitsCurrentSelection(t *testing.T) {
	rec := &recorder{}
	q, startedAt := oneMinuteQuiz(40 * time.Millisecond)
	a := NewAttempt(logger.Discard(), q, startedAt, testTick, rec.submit)
	a.Start(context.Background())

	question, first, second := uuid.New(), uuid.New(), uuid.New()
	if err := a.Select(question, first); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if err := a.Select(question, second); err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	waitDone(t, a)

	req := rec.request()
	if len(req.Answers) != 1 || req.Answers[0].QuestionID != question || req.Answers[0].AnswerID != second {
		t.Errorf("Answers = %+v, want the latest choice only", req.Answers)
	}
	if err := a.Select(question, first); !errors.Is(err, app_errors.ErrAttemptClosed) {
		t.Errorf("Select() after submit error = %v, want ErrAttemptClosed", err)
	}
}

func TestManualSubmitRacingTimerSubmitsOnce(t *testing.T) {
	for i := 0; i < 20; i++ {
		rec := &recorder{}
		q, startedAt := oneMinuteQuiz(2 * testTick)
		a := NewAttempt(logger.Discard(), q, startedAt, testTick, rec.submit)
		a.Start(context.Background())

		var wg sync.WaitGroup
		results := make([]*models.Submission, 8)
		time.Sleep(time.Duration(i%4) * testTick)
		for j := range results {
			wg.Add(1)
			go func(j int) {
				defer wg.Done()
				sub, err := a.Submit(context.Background())
				if err != nil {
					t.Errorf("Submit() error = %v", err)
					return
				}
				results[j] = sub
			}(j)
		}
		wg.Wait()
		time.Sleep(5 * testTick)

		if got := rec.calls.Load(); got != 1 {
			t.Fatalf("run %d: submit called %d times, want 1", i, got)
		}
		for _, sub := range results {
			if sub == nil || sub.ID != results[0].ID {
				t.Fatalf("run %d: callers saw different outcomes", i)
			}
		}
	}
}

func TestSubmitBeforeZeroClearsTimer(t *testing.T) {
	rec := &recorder{}
	q, startedAt := oneMinuteQuiz(50 * time.Millisecond)
	a := NewAttempt(logger.Discard(), q, startedAt, testTick, rec.submit)
	a.Start(context.Background())

	sub, err := a.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if sub.AutoSubmitted {
		t.Error("manual submit flagged as auto")
	}
	time.Sleep(100 * time.Millisecond)
	if got := rec.calls.Load(); got != 1 {
		t.Fatalf("submit called %d times, want 1", got)
	}
}

func TestFailedSubmissionStaysSubmittingWithoutRetry(t *testing.T) {
	rec := &recorder{fail: errors.New("connection refused")}
	q, startedAt := oneMinuteQuiz(20 * time.Millisecond)
	a := NewAttempt(logger.Discard(), q, startedAt, testTick, rec.submit)
	a.Start(context.Background())

	waitDone(t, a)
	time.Sleep(10 * testTick)

	if a.State() != StateSubmitting {
		t.Fatalf("State() = %s, want submitting", a.State())
	}
	if _, err := a.Submit(context.Background()); err == nil {
		t.Error("Submit() after failure error = nil, want the original error")
	}
	if got := rec.calls.Load(); got != 1 {
		t.Fatalf("submit called %d times, want 1 (no retry)", got)
	}
}

func TestStopClearsTimerWithoutSubmitting(t *testing.T) {
	rec := &recorder{}
	q, startedAt := oneMinuteQuiz(20 * time.Millisecond)
	a := NewAttempt(logger.Discard(), q, startedAt, testTick, rec.submit)
	a.Start(context.Background())
	a.Stop()

	time.Sleep(60 * time.Millisecond)
	if got := rec.calls.Load(); got != 0 {
		t.Fatalf("submit called %d times after Stop, want 0", got)
	}
	if a.State() != StateStopped {
		t.Errorf("State() = %s, want stopped", a.State())
	}
	if _, err := a.Submit(context.Background()); !errors.Is(err, app_errors.ErrAttemptClosed) {
		t.Errorf("Submit() after Stop error = %v, want ErrAttemptClosed", err)
	}
}

func TestExpiredStartSubmitsImmediately(t *testing.T) {
	rec := &recorder{}
	q := models.Quiz{ID: uuid.New(), DurationMinutes: 1}
	a := NewAttempt(logger.Discard(), q, time.Now().Add(-2*time.Minute), time.Hour, rec.submit)
	a.Start(context.Background())

	waitDone(t, a)
	if got := rec.calls.Load(); got != 1 {
		t.Fatalf("submit called %d times, want 1", got)
	}
	if !rec.request().AutoSubmitted {
		t.Error("AutoSubmitted = false, want true")
	}
}

func TestCancelledContextStopsCountdown(t *testing.T) {
	rec := &recorder{}
	q, startedAt := oneMinuteQuiz(30 * time.Millisecond)
	a := NewAttempt(logger.Discard(), q, startedAt, testTick, rec.submit)
	ctx, cancel := context.WithCancel(context.Background())
	a.Start(ctx)
	cancel()

	time.Sleep(80 * time.Millisecond)
	if got := rec.calls.Load(); got != 0 {
		t.Fatalf("submit called %d times after cancel, want 0", got)
	}
}
