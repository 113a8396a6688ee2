package memory

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/app_errors"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
)

func newCourse(t *testing.T, s *Storage, code string) models.Course {
	t.Helper()
	c := models.Course{ID: uuid.New(), Title: "Course " + code, TeacherID: uuid.New(), JoinCode: code, CreatedAt: time.Now()}
	if err := s.NewCourse(context.Background(), &c); err != nil {
		t.Fatalf("NewCourse: %v", err)
	}
	return c
}

func TestUserEmailIsUnique(t *testing.T) {
	s := New()
	ctx := context.Background()
	if _, err := s.CreateUser(ctx, models.User{Email: "a@b.c"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := s.CreateUser(ctx, models.User{Email: "A@B.C"}); !errors.Is(err, app_errors.ErrUserExists) {
		t.Fatalf("err = %v, want ErrUserExists", err)
	}
	if _, err := s.UserByEmail(ctx, "nobody@b.c"); !errors.Is(err, app_errors.ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestJoinCodeLookup(t *testing.T) {
	s := New()
	ctx := context.Background()
	c := newCourse(t, s, "ABC234")

	got, err := s.CourseByJoinCode(ctx, "ABC234")
	if err != nil || got.ID != c.ID {
		t.Fatalf("CourseByJoinCode = %v, %v", got, err)
	}
	if _, err := s.CourseByJoinCode(ctx, "ZZZ999"); !errors.Is(err, app_errors.ErrJoinCodeNotFound) {
		t.Fatalf("err = %v, want ErrJoinCodeNotFound", err)
	}
	dup := models.Course{ID: uuid.New(), JoinCode: "ABC234"}
	if err := s.NewCourse(ctx, &dup); err == nil {
		t.Fatal("duplicate join code accepted")
	}
}

func TestEnrollTwice(t *testing.T) {
	s := New()
	ctx := context.Background()
	c := newCourse(t, s, "ENR777")
	student := uuid.New()

	if err := s.Enroll(ctx, &models.Enrollment{ID: uuid.New(), CourseID: c.ID, StudentID: student}); err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	err := s.Enroll(ctx, &models.Enrollment{ID: uuid.New(), CourseID: c.ID, StudentID: student})
	if !errors.Is(err, app_errors.ErrAlreadyEnrolled) {
		t.Fatalf("err = %v, want ErrAlreadyEnrolled", err)
	}
	ok, _ := s.IsEnrolled(ctx, c.ID, student)
	if !ok {
		t.Fatal("student not enrolled")
	}
}

func TestDeleteCourseCascades(t *testing.T) {
	s := New()
	ctx := context.Background()
	c := newCourse(t, s, "DEL123")
	q := models.Quiz{ID: uuid.New(), CourseID: c.ID, DurationMinutes: 1}
	if err := s.NewQuiz(ctx, &q); err != nil {
		t.Fatal(err)
	}
	if err := s.AddQuestion(ctx, &models.Question{ID: uuid.New(), QuizID: q.ID, Text: "?"}); err != nil {
		t.Fatal(err)
	}
	if err := s.NewSubmission(ctx, &models.Submission{ID: uuid.New(), QuizID: q.ID}); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteCourse(ctx, c.ID); err != nil {
		t.Fatalf("DeleteCourse: %v", err)
	}
	if _, err := s.QuizByID(ctx, q.ID); !errors.Is(err, app_errors.ErrQuizNotFound) {
		t.Fatalf("quiz survived: %v", err)
	}
	subs, _ := s.SubmissionsByQuiz(ctx, q.ID)
	if len(subs) != 0 {
		t.Fatalf("submissions survived: %v", subs)
	}
}

func TestCoursesByIDsKeepsOrder(t *testing.T) {
	s := New()
	a := newCourse(t, s, "AAA222")
	b := newCourse(t, s, "BBB333")
	got, _ := s.CoursesByIDs(context.Background(), []uuid.UUID{b.ID, uuid.New(), a.ID})
	if len(got) != 2 || got[0].ID != b.ID || got[1].ID != a.ID {
		t.Fatalf("order = %v", got)
	}
}

func TestQuestionsAreCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	c := newCourse(t, s, "CPY456")
	q := models.Quiz{ID: uuid.New(), CourseID: c.ID}
	_ = s.NewQuiz(ctx, &q)
	yes := true
	_ = s.AddQuestion(ctx, &models.Question{ID: uuid.New(), QuizID: q.ID, Answers: []models.Answer{{ID: uuid.New(), IsCorrect: &yes}}})

	first, _ := s.QuestionsByQuiz(ctx, q.ID)
	*first[0].Answers[0].IsCorrect = false
	second, _ := s.QuestionsByQuiz(ctx, q.ID)
	if !second[0].Answers[0].Correct() {
		t.Fatal("stored answer was mutated through a returned copy")
	}
}

func TestFileStorageRoundTrip(t *testing.T) {
	f := NewFileStorage()
	ctx := context.Background()
	key, err := f.Upload(ctx, uuid.New(), "notes.pdf", strings.NewReader("hello"), 5, "application/pdf")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !strings.HasSuffix(key, ".pdf") {
		t.Fatalf("key = %q", key)
	}
	rc, err := f.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	if string(data) != "hello" {
		t.Fatalf("data = %q", data)
	}
	_ = f.Delete(ctx, key)
	if _, err := f.Open(ctx, key); !errors.Is(err, app_errors.ErrMaterialNotFound) {
		t.Fatalf("err = %v, want ErrMaterialNotFound", err)
	}
}

func TestFileStorageRejectsShortUpload(t *testing.T) {
	_, err := NewFileStorage().Upload(context.Background(), uuid.New(), "a.txt", strings.NewReader("abc"), 10, "")
	if !errors.Is(err, app_errors.ErrFileSize) {
		t.Fatalf("err = %v, want ErrFileSize", err)
	}
}

func TestCourseSearchSubstring(t *testing.T) {
	s := NewCourseSearch()
	ctx := context.Background()
	older := models.Course{ID: uuid.New(), Title: "Intro to Go", CreatedAt: time.Now().Add(-time.Hour)}
	newer := models.Course{ID: uuid.New(), Title: "Biology", Description: "no golang here... well, GO", CreatedAt: time.Now()}
	other := models.Course{ID: uuid.New(), Title: "Chemistry"}
	for _, c := range []models.Course{older, newer, other} {
		_ = s.Index(ctx, c)
	}

	ids, _ := s.Search(ctx, "  go ", 10)
	if len(ids) != 2 || ids[0] != newer.ID || ids[1] != older.ID {
		t.Fatalf("ids = %v", ids)
	}
	_ = s.Delete(ctx, newer.ID)
	ids, _ = s.Search(ctx, "go", 10)
	if len(ids) != 1 {
		t.Fatalf("after delete ids = %v", ids)
	}
}
