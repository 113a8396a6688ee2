package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/app_errors"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
)

type CoursePostgres struct {
	db *pgxpool.Pool
}

func NewCoursePostgres(db *pgxpool.Pool) *CoursePostgres {
	return &CoursePostgres{db: db}
}

const courseColumns = `id, title, description, teacher_id, join_code, created_at, updated_at`

func scanCourse(row pgx.Row) (*models.Course, error) {
	course := &models.Course{}
	err := row.Scan(
		&course.ID,
		&course.Title,
		&course.Description,
		&course.TeacherID,
		&course.JoinCode,
		&course.CreatedAt,
		&course.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return course, nil
}

func (r *CoursePostgres) NewCourse(ctx context.Context, course *models.Course) error {
	query := `INSERT INTO courses (` + courseColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Exec(ctx, query,
		course.ID,
		course.Title,
		course.Description,
		course.TeacherID,
		course.JoinCode,
		course.CreatedAt,
		course.UpdatedAt,
	)
	if err != nil {
		if pgCode(err) == codeUniqueViolation {
			return fmt.Errorf("join code %s is taken", course.JoinCode)
		}
		return fmt.Errorf("failed to insert course: %w", err)
	}
	return nil
}

func (r *CoursePostgres) CourseByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	course, err := scanCourse(r.db.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, app_errors.ErrCourseNotFound
	}
	return course, err
}

func (r *CoursePostgres) CourseByJoinCode(ctx context.Context, code string) (*models.Course, error) {
	course, err := scanCourse(r.db.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses WHERE join_code = $1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, app_errors.ErrJoinCodeNotFound
	}
	return course, err
}

func (r *CoursePostgres) UpdateCourse(ctx context.Context, course *models.Course) error {
	const query = `
        UPDATE courses
           SET title       = $2,
               description = $3,
               updated_at  = $4
         WHERE id = $1
    `
	cmdTag, err := r.db.Exec(ctx, query, course.ID, course.Title, course.Description, course.UpdatedAt)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return app_errors.ErrCourseNotFound
	}
	return nil
}

func (r *CoursePostgres) DeleteCourse(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return app_errors.ErrCourseNotFound
	}
	return nil
}

func (r *CoursePostgres) ListCourses(ctx context.Context) ([]models.Course, error) {
	return r.query(ctx, `SELECT `+courseColumns+` FROM courses ORDER BY created_at DESC`)
}

func (r *CoursePostgres) CoursesByTeacher(ctx context.Context, teacherID uuid.UUID) ([]models.Course, error) {
	return r.query(ctx, `SELECT `+courseColumns+` FROM courses WHERE teacher_id = $1 ORDER BY created_at DESC`, teacherID)
}

// CoursesByIDs keeps the order of ids.
func (r *CoursePostgres) CoursesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Course, error) {
	if len(ids) == 0 {
		return []models.Course{}, nil
	}
	found, err := r.query(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Course, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}
	out := make([]models.Course, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *CoursePostgres) query(ctx context.Context, query string, args ...any) ([]models.Course, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := make([]models.Course, 0)
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, *course)
	}
	return courses, rows.Err()
}
