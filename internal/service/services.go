package service

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/service/auth"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/service/course"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/service/enrollment"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/service/material"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/service/quiz"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/service/submission"
	"github.com/MohamedLahlami/EMSTUDY-sub000/pkg/logger"
)

// Collection is every service the demo API serves.
type Collection struct {
	*auth.AuthService
	*course.CourseService
	*quiz.QuizService
	*submission.SubmissionService
	*material.MaterialService
	*enrollment.EnrollmentService
}

// Store is the record storage behind every service. Both memory.Storage and
// postgres.Repositories implement it.
type Store interface {
	auth.AuthRepo

	NewCourse(ctx context.Context, course *models.Course) error
	CourseByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
	CourseByJoinCode(ctx context.Context, code string) (*models.Course, error)
	UpdateCourse(ctx context.Context, course *models.Course) error
	DeleteCourse(ctx context.Context, id uuid.UUID) error
	ListCourses(ctx context.Context) ([]models.Course, error)
	CoursesByTeacher(ctx context.Context, teacherID uuid.UUID) ([]models.Course, error)
	CoursesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Course, error)

	NewQuiz(ctx context.Context, quiz *models.Quiz) error
	QuizByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error)
	QuizzesByCourse(ctx context.Context, courseID uuid.UUID) ([]models.Quiz, error)
	DeleteQuiz(ctx context.Context, id uuid.UUID) error
	AddQuestion(ctx context.Context, question *models.Question) error
	QuestionsByQuiz(ctx context.Context, quizID uuid.UUID) ([]models.Question, error)

	NewSubmission(ctx context.Context, s *models.Submission) error
	SubmissionByID(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	SubmissionsByQuiz(ctx context.Context, quizID uuid.UUID) ([]models.Submission, error)
	SubmissionsByStudent(ctx context.Context, studentID uuid.UUID) ([]models.Submission, error)

	Enroll(ctx context.Context, e *models.Enrollment) error
	IsEnrolled(ctx context.Context, courseID, studentID uuid.UUID) (bool, error)
	EnrollmentsByStudent(ctx context.Context, studentID uuid.UUID) ([]models.Enrollment, error)
	EnrollmentsByCourse(ctx context.Context, courseID uuid.UUID) ([]models.Enrollment, error)

	NewMaterial(ctx context.Context, m *models.CourseMaterial) error
	MaterialByID(ctx context.Context, id uuid.UUID) (*models.CourseMaterial, error)
	MaterialsByCourse(ctx context.Context, courseID uuid.UUID) ([]models.CourseMaterial, error)
	DeleteMaterial(ctx context.Context, id uuid.UUID) error
}

// Files holds uploaded material bytes.
type Files interface {
	Upload(ctx context.Context, courseID uuid.UUID, filename string, reader io.Reader, size int64, contentType string) (string, error)
	URL(ctx context.Context, objectKey string) (string, error)
	Open(ctx context.Context, objectKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, objectKey string) error
}

// Search indexes courses for the catalogue query.
type Search interface {
	Index(ctx context.Context, course models.Course) error
	Search(ctx context.Context, query string, size int) ([]uuid.UUID, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Options struct {
	MaxUpload int64
	// PublicURL is the API base URL used in download links of stored files.
	PublicURL string
}

func New(log logger.Log, jwt *auth.JWTManager, store Store, files Files, search Search, opts Options) *Collection {
	return &Collection{
		AuthService:       auth.NewAuthService(log, jwt, store),
		CourseService:     course.NewCourseService(log, store, search, store),
		QuizService:       quiz.NewQuizService(log, store, store),
		SubmissionService: submission.NewSubmissionService(log, store, store, store, store),
		MaterialService:   material.NewMaterialService(log, store, store, files, opts.MaxUpload, opts.PublicURL),
		EnrollmentService: enrollment.NewEnrollmentService(log, store, store, store),
	}
}
