package submission

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/app_errors"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/service/quiz"
	"github.com/MohamedLahlami/EMSTUDY-sub000/pkg/logger"
)

type submissionRepo interface {
	NewSubmission(ctx context.Context, s *models.Submission) error
	SubmissionByID(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	SubmissionsByQuiz(ctx context.Context, quizID uuid.UUID) ([]models.Submission, error)
	SubmissionsByStudent(ctx context.Context, studentID uuid.UUID) ([]models.Submission, error)
}

type quizRepo interface {
	QuizByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error)
	QuestionsByQuiz(ctx context.Context, quizID uuid.UUID) ([]models.Question, error)
}

type courseRepo interface {
	CourseByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
}

type enrollmentRepo interface {
	IsEnrolled(ctx context.Context, courseID, studentID uuid.UUID) (bool, error)
}

type SubmissionService struct {
	log         logger.Log
	submissions submissionRepo
	quizzes     quizRepo
	courses     courseRepo
	enrollments enrollmentRepo
	now         func() time.Time
}

func NewSubmissionService(log logger.Log, s submissionRepo, q quizRepo, c courseRepo, e enrollmentRepo) *SubmissionService {
	return &SubmissionService{
		log:         log,
		submissions: s,
		quizzes:     q,
		courses:     c,
		enrollments: e,
		now:         time.Now,
	}
}

// Submit grades and stores a student's answers.
func (s *SubmissionService) Submit(ctx context.Context, studentID uuid.UUID, req models.SubmissionRequest) (*models.Submission, error) {
	q, err := s.quizzes.QuizByID(ctx, req.QuizID)
	if err != nil {
		return nil, err
	}
	enrolled, err := s.enrollments.IsEnrolled(ctx, q.CourseID, studentID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, app_errors.ErrNotEnrolled
	}
	questions, err := s.quizzes.QuestionsByQuiz(ctx, q.ID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	startedAt := req.StartedAt.UTC()
	if startedAt.IsZero() || startedAt.After(now) {
		startedAt = now
	}
	answers := req.Answers
	if answers == nil {
		answers = []models.SelectedAnswer{}
	}
	score, total := quiz.Grade(questions, answers)
	sub := &models.Submission{
		ID:            uuid.New(),
		QuizID:        q.ID,
		StudentID:     studentID,
		Answers:       answers,
		Score:         score,
		Total:         total,
		StartedAt:     startedAt,
		SubmittedAt:   now,
		AutoSubmitted: req.AutoSubmitted,
	}
	if err := s.submissions.NewSubmission(ctx, sub); err != nil {
		return nil, err
	}
	s.log.Info("submission graded", "submission_id", sub.ID, "quiz_id", q.ID, "score", score, "total", total, "auto", req.AutoSubmitted)
	return sub, nil
}

// Submission is visible to the student who sent it and to the course's teacher.
func (s *SubmissionService) Submission(ctx context.Context, id, userID uuid.UUID) (*models.Submission, error) {
	sub, err := s.submissions.SubmissionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.StudentID == userID {
		return sub, nil
	}
	if err := s.ownQuiz(ctx, sub.QuizID, userID); err != nil {
		return nil, app_errors.ErrForbidden
	}
	return sub, nil
}

func (s *SubmissionService) ownQuiz(ctx context.Context, quizID, teacherID uuid.UUID) error {
	q, err := s.quizzes.QuizByID(ctx, quizID)
	if err != nil {
		return err
	}
	course, err := s.courses.CourseByID(ctx, q.CourseID)
	if err != nil {
		return err
	}
	if course.TeacherID != teacherID {
		return app_errors.ErrNotCourseOwner
	}
	return nil
}

func (s *SubmissionService) QuizSubmissions(ctx context.Context, quizID, teacherID uuid.UUID) ([]models.Submission, error) {
	if err := s.ownQuiz(ctx, quizID, teacherID); err != nil {
		return nil, err
	}
	return s.submissions.SubmissionsByQuiz(ctx, quizID)
}

func (s *SubmissionService) MySubmissions(ctx context.Context, studentID uuid.UUID) ([]models.Submission, error) {
	return s.submissions.SubmissionsByStudent(ctx, studentID)
}
