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

type SubmissionPostgres struct {
	db *pgxpool.Pool
}

func NewSubmissionPostgres(db *pgxpool.Pool) *SubmissionPostgres {
	return &SubmissionPostgres{db: db}
}

const submissionColumns = `id, quiz_id, student_id, answers, score, total, started_at, submitted_at, auto_submitted`

func scanSubmission(row pgx.Row) (*models.Submission, error) {
	s := &models.Submission{}
	err := row.Scan(&s.ID, &s.QuizID, &s.StudentID, &s.Answers, &s.Score, &s.Total, &s.StartedAt, &s.SubmittedAt, &s.AutoSubmitted)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewSubmission stores the selected answers as a JSONB array.
func (r *SubmissionPostgres) NewSubmission(ctx context.Context, s *models.Submission) error {
	query := `INSERT INTO submissions (` + submissionColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.Exec(ctx, query, s.ID, s.QuizID, s.StudentID, s.Answers, s.Score, s.Total, s.StartedAt, s.SubmittedAt, s.AutoSubmitted)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return app_errors.ErrQuizNotFound
		}
		return fmt.Errorf("failed to insert submission: %w", err)
	}
	return nil
}

func (r *SubmissionPostgres) SubmissionByID(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	s, err := scanSubmission(r.db.QueryRow(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, app_errors.ErrSubmissionNotFound
	}
	return s, err
}

func (r *SubmissionPostgres) SubmissionsByQuiz(ctx context.Context, quizID uuid.UUID) ([]models.Submission, error) {
	return r.query(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE quiz_id = $1 ORDER BY submitted_at`, quizID)
}

func (r *SubmissionPostgres) SubmissionsByStudent(ctx context.Context, studentID uuid.UUID) ([]models.Submission, error) {
	return r.query(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE student_id = $1 ORDER BY submitted_at`, studentID)
}

func (r *SubmissionPostgres) query(ctx context.Context, query string, args ...any) ([]models.Submission, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Submission, 0)
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}
