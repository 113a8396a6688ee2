package enrollment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/app_errors"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
	"github.com/MohamedLahlami/EMSTUDY-sub000/pkg/logger"
)

type enrollmentRepo interface {
	Enroll(ctx context.Context, e *models.Enrollment) error
	EnrollmentsByStudent(ctx context.Context, studentID uuid.UUID) ([]models.Enrollment, error)
	EnrollmentsByCourse(ctx context.Context, courseID uuid.UUID) ([]models.Enrollment, error)
}

type courseRepo interface {
	CourseByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
	CourseByJoinCode(ctx context.Context, code string) (*models.Course, error)
}

type userRepo interface {
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type EnrollmentService struct {
	log         logger.Log
	enrollments enrollmentRepo
	courses     courseRepo
	users       userRepo
}

func NewEnrollmentService(log logger.Log, e enrollmentRepo, c courseRepo, u userRepo) *EnrollmentService {
	return &EnrollmentService{log: log, enrollments: e, courses: c, users: u}
}

// Enroll signs studentID up for the course that carries joinCode.
func (s *EnrollmentService) Enroll(ctx context.Context, studentID uuid.UUID, joinCode string) (*models.Enrollment, error) {
	joinCode = strings.ToUpper(strings.TrimSpace(joinCode))
	if joinCode == "" {
		return nil, fmt.Errorf("%w: join code is required", app_errors.ErrValidation)
	}
	course, err := s.courses.CourseByJoinCode(ctx, joinCode)
	if err != nil {
		return nil, err
	}
	e := &models.Enrollment{
		ID:         uuid.New(),
		CourseID:   course.ID,
		StudentID:  studentID,
		EnrolledAt: time.Now().UTC(),
	}
	if err := s.enrollments.Enroll(ctx, e); err != nil {
		return nil, err
	}
	s.log.Info("student enrolled", "course_id", course.ID, "student_id", studentID)
	return e, nil
}

func (s *EnrollmentService) MyEnrollments(ctx context.Context, studentID uuid.UUID) ([]models.Enrollment, error) {
	return s.enrollments.EnrollmentsByStudent(ctx, studentID)
}

// Roster lists the course's students. Only its teacher may ask.
func (s *EnrollmentService) Roster(ctx context.Context, courseID, teacherID uuid.UUID) ([]models.EnrolledStudent, error) {
	course, err := s.courses.CourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.TeacherID != teacherID {
		return nil, app_errors.ErrNotCourseOwner
	}
	enrollments, err := s.enrollments.EnrollmentsByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	out := make([]models.EnrolledStudent, 0, len(enrollments))
	for _, e := range enrollments {
		student, err := s.users.UserByID(ctx, e.StudentID)
		if err != nil {
			if errors.Is(err, app_errors.ErrUserNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, models.EnrolledStudent{Enrollment: e, Student: *student})
	}
	return out, nil
}
