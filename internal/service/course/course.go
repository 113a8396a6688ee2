package course

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/app_errors"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
	"github.com/MohamedLahlami/EMSTUDY-sub000/pkg/logger"
)

const (
	joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	joinCodeLength   = 6
	joinCodeAttempts = 8
	searchSize       = 50
)

type courseRepo interface {
	NewCourse(ctx context.Context, course *models.Course) error
	CourseByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
	CourseByJoinCode(ctx context.Context, code string) (*models.Course, error)
	UpdateCourse(ctx context.Context, course *models.Course) error
	DeleteCourse(ctx context.Context, id uuid.UUID) error
	ListCourses(ctx context.Context) ([]models.Course, error)
	CoursesByTeacher(ctx context.Context, teacherID uuid.UUID) ([]models.Course, error)
	CoursesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Course, error)
}

type searchRepo interface {
	Index(ctx context.Context, course models.Course) error
	Search(ctx context.Context, query string, size int) ([]uuid.UUID, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type enrollmentRepo interface {
	EnrollmentsByStudent(ctx context.Context, studentID uuid.UUID) ([]models.Enrollment, error)
}

type CourseService struct {
	log         logger.Log
	courseRepo  courseRepo
	searchRepo  searchRepo
	enrollments enrollmentRepo
}

func NewCourseService(log logger.Log, courseRepo courseRepo, searchRepo searchRepo, enrollments enrollmentRepo) *CourseService {
	return &CourseService{
		log:         log,
		courseRepo:  courseRepo,
		searchRepo:  searchRepo,
		enrollments: enrollments,
	}
}

func (s *CourseService) CreateCourse(ctx context.Context, teacherID uuid.UUID, in models.CourseInput) (*models.Course, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", app_errors.ErrValidation)
	}
	code, err := s.uniqueJoinCode(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	course := &models.Course{
		ID:          uuid.New(),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		TeacherID:   teacherID,
		JoinCode:    code,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.courseRepo.NewCourse(ctx, course); err != nil {
		return nil, err
	}
	if err := s.searchRepo.Index(ctx, *course); err != nil {
		s.log.ErrorErr("failed to index course", err, "course_id", course.ID)
	}
	return course, nil
}

func (s *CourseService) uniqueJoinCode(ctx context.Context) (string, error) {
	for i := 0; i < joinCodeAttempts; i++ {
		code, err := GenerateJoinCode()
		if err != nil {
			return "", err
		}
		_, err = s.courseRepo.CourseByJoinCode(ctx, code)
		if errors.Is(err, app_errors.ErrJoinCodeNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("could not allocate a free join code")
}

// GenerateJoinCode draws a code from an alphabet without look-alike characters.
func GenerateJoinCode() (string, error) {
	b := make([]byte, joinCodeLength)
	max := big.NewInt(int64(len(joinCodeAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = joinCodeAlphabet[n.Int64()]
	}
	return string(b), nil
}

func (s *CourseService) Course(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	return s.courseRepo.CourseByID(ctx, id)
}

// OwnedCourse loads the course and checks that teacherID teaches it.
func (s *CourseService) OwnedCourse(ctx context.Context, id, teacherID uuid.UUID) (*models.Course, error) {
	course, err := s.courseRepo.CourseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if course.TeacherID != teacherID {
		return nil, app_errors.ErrNotCourseOwner
	}
	return course, nil
}

func (s *CourseService) UpdateCourse(ctx context.Context, id, teacherID uuid.UUID, in models.CourseInput) (*models.Course, error) {
	course, err := s.OwnedCourse(ctx, id, teacherID)
	if err != nil {
		return nil, err
	}
	if title := strings.TrimSpace(in.Title); title != "" {
		course.Title = title
	}
	course.Description = strings.TrimSpace(in.Description)
	course.UpdatedAt = time.Now().UTC()
	if err := s.courseRepo.UpdateCourse(ctx, course); err != nil {
		return nil, err
	}
	if err := s.searchRepo.Index(ctx, *course); err != nil {
		s.log.ErrorErr("failed to reindex course", err, "course_id", course.ID)
	}
	return course, nil
}

func (s *CourseService) DeleteCourse(ctx context.Context, id, teacherID uuid.UUID) error {
	if _, err := s.OwnedCourse(ctx, id, teacherID); err != nil {
		return err
	}
	if err := s.courseRepo.DeleteCourse(ctx, id); err != nil {
		return err
	}
	if err := s.searchRepo.Delete(ctx, id); err != nil {
		s.log.ErrorErr("failed to drop course from index", err, "course_id", id)
	}
	return nil
}

// ListCourses returns every course, or the matches of query when it is set.
// Join codes are only shown to the course's teacher.
func (s *CourseService) ListCourses(ctx context.Context, query string) ([]models.Course, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		courses, err := s.courseRepo.ListCourses(ctx)
		if err != nil {
			return nil, err
		}
		return hideJoinCodes(courses), nil
	}
	ids, err := s.searchRepo.Search(ctx, query, searchSize)
	if err != nil {
		return nil, err
	}
	courses, err := s.courseRepo.CoursesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return hideJoinCodes(courses), nil
}

// MyCourses is the teacher's own courses or the student's enrolled ones.
func (s *CourseService) MyCourses(ctx context.Context, userID uuid.UUID, role string) ([]models.Course, error) {
	if role == models.TeacherRole {
		return s.courseRepo.CoursesByTeacher(ctx, userID)
	}
	enrollments, err := s.enrollments.EnrollmentsByStudent(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.CourseID)
	}
	courses, err := s.courseRepo.CoursesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return hideJoinCodes(courses), nil
}

func hideJoinCodes(courses []models.Course) []models.Course {
	out := make([]models.Course, len(courses))
	for i, c := range courses {
		c.JoinCode = ""
		out[i] = c
	}
	return out
}
