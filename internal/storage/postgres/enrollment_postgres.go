package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/app_errors"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
)

type EnrollmentPostgres struct {
	db *pgxpool.Pool
}

func NewEnrollmentPostgres(db *pgxpool.Pool) *EnrollmentPostgres {
	return &EnrollmentPostgres{db: db}
}

func (r *EnrollmentPostgres) Enroll(ctx context.Context, e *models.Enrollment) error {
	const query = `INSERT INTO enrollments (id, course_id, student_id, enrolled_at) VALUES ($1, $2, $3, $4)`
	_, err := r.db.Exec(ctx, query, e.ID, e.CourseID, e.StudentID, e.EnrolledAt)
	switch pgCode(err) {
	case "":
	case codeUniqueViolation:
		return app_errors.ErrAlreadyEnrolled
	case codeForeignKeyViolation:
		return app_errors.ErrCourseNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to insert enrollment: %w", err)
	}
	return nil
}

func (r *EnrollmentPostgres) IsEnrolled(ctx context.Context, courseID, studentID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM enrollments WHERE course_id = $1 AND student_id = $2)`,
		courseID, studentID,
	).Scan(&exists)
	return exists, err
}

func (r *EnrollmentPostgres) EnrollmentsByStudent(ctx context.Context, studentID uuid.UUID) ([]models.Enrollment, error) {
	return r.query(ctx, `SELECT id, course_id, student_id, enrolled_at FROM enrollments WHERE student_id = $1 ORDER BY enrolled_at`, studentID)
}

func (r *EnrollmentPostgres) EnrollmentsByCourse(ctx context.Context, courseID uuid.UUID) ([]models.Enrollment, error) {
	return r.query(ctx, `SELECT id, course_id, student_id, enrolled_at FROM enrollments WHERE course_id = $1 ORDER BY enrolled_at`, courseID)
}

func (r *EnrollmentPostgres) query(ctx context.Context, query string, args ...any) ([]models.Enrollment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Enrollment, 0)
	for rows.Next() {
		var e models.Enrollment
		if err := rows.Scan(&e.ID, &e.CourseID, &e.StudentID, &e.EnrolledAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
