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

type MaterialPostgres struct {
	db *pgxpool.Pool
}

func NewMaterialPostgres(db *pgxpool.Pool) *MaterialPostgres {
	return &MaterialPostgres{db: db}
}

const materialColumns = `id, course_id, title, description, url, object_key, file_name, content_type, size, created_at`

func scanMaterial(row pgx.Row) (*models.CourseMaterial, error) {
	m := &models.CourseMaterial{}
	err := row.Scan(&m.ID, &m.CourseID, &m.Title, &m.Description, &m.URL, &m.ObjectKey, &m.FileName, &m.ContentType, &m.Size, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *MaterialPostgres) NewMaterial(ctx context.Context, m *models.CourseMaterial) error {
	query := `INSERT INTO materials (` + materialColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.Exec(ctx, query, m.ID, m.CourseID, m.Title, m.Description, m.URL, m.ObjectKey, m.FileName, m.ContentType, m.Size, m.CreatedAt)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return app_errors.ErrCourseNotFound
		}
		return fmt.Errorf("failed to insert material: %w", err)
	}
	return nil
}

func (r *MaterialPostgres) MaterialByID(ctx context.Context, id uuid.UUID) (*models.CourseMaterial, error) {
	m, err := scanMaterial(r.db.QueryRow(ctx, `SELECT `+materialColumns+` FROM materials WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, app_errors.ErrMaterialNotFound
	}
	return m, err
}

func (r *MaterialPostgres) MaterialsByCourse(ctx context.Context, courseID uuid.UUID) ([]models.CourseMaterial, error) {
	rows, err := r.db.Query(ctx, `SELECT `+materialColumns+` FROM materials WHERE course_id = $1 ORDER BY created_at`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.CourseMaterial, 0)
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (r *MaterialPostgres) DeleteMaterial(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM materials WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return app_errors.ErrMaterialNotFound
	}
	return nil
}
