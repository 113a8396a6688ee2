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

type QuizPostgres struct {
	db *pgxpool.Pool
}

func NewQuizPostgres(db *pgxpool.Pool) *QuizPostgres {
	return &QuizPostgres{db: db}
}

const quizColumns = `id, course_id, title, description, duration_minutes, created_at`

func scanQuiz(row pgx.Row) (*models.Quiz, error) {
	quiz := &models.Quiz{}
	err := row.Scan(&quiz.ID, &quiz.CourseID, &quiz.Title, &quiz.Description, &quiz.DurationMinutes, &quiz.CreatedAt)
	if err != nil {
		return nil, err
	}
	return quiz, nil
}

func (r *QuizPostgres) NewQuiz(ctx context.Context, quiz *models.Quiz) error {
	query := `INSERT INTO quizzes (` + quizColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Exec(ctx, query, quiz.ID, quiz.CourseID, quiz.Title, quiz.Description, quiz.DurationMinutes, quiz.CreatedAt)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return app_errors.ErrCourseNotFound
		}
		return fmt.Errorf("failed to insert quiz: %w", err)
	}
	return nil
}

func (r *QuizPostgres) QuizByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	quiz, err := scanQuiz(r.db.QueryRow(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, app_errors.ErrQuizNotFound
	}
	return quiz, err
}

func (r *QuizPostgres) QuizzesByCourse(ctx context.Context, courseID uuid.UUID) ([]models.Quiz, error) {
	rows, err := r.db.Query(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE course_id = $1 ORDER BY created_at`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quizzes := make([]models.Quiz, 0)
	for rows.Next() {
		quiz, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, *quiz)
	}
	return quizzes, rows.Err()
}

func (r *QuizPostgres) DeleteQuiz(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM quizzes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return app_errors.ErrQuizNotFound
	}
	return nil
}

// AddQuestion writes the question and its answers in one transaction.
func (r *QuizPostgres) AddQuestion(ctx context.Context, question *models.Question) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	_, err = tx.Exec(ctx, `INSERT INTO questions (id, quiz_id, text) VALUES ($1, $2, $3)`,
		question.ID, question.QuizID, question.Text)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return app_errors.ErrQuizNotFound
		}
		return fmt.Errorf("failed to insert question: %w", err)
	}
	const insertAnswer = `INSERT INTO answers (id, question_id, text, is_correct, position) VALUES ($1, $2, $3, $4, $5)`
	for i, a := range question.Answers {
		if _, err = tx.Exec(ctx, insertAnswer, a.ID, question.ID, a.Text, a.Correct(), i); err != nil {
			return fmt.Errorf("failed to insert answer: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (r *QuizPostgres) QuestionsByQuiz(ctx context.Context, quizID uuid.UUID) ([]models.Question, error) {
	const query = `
        SELECT q.id, q.text, a.id, a.text, a.is_correct
          FROM questions q
          JOIN answers a ON a.question_id = q.id
         WHERE q.quiz_id = $1
         ORDER BY q.position, a.position
    `
	rows, err := r.db.Query(ctx, query, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := make([]models.Question, 0)
	for rows.Next() {
		var (
			questionID uuid.UUID
			text       string
			answer     models.Answer
			isCorrect  bool
		)
		if err := rows.Scan(&questionID, &text, &answer.ID, &answer.Text, &isCorrect); err != nil {
			return nil, err
		}
		answer.QuestionID = questionID
		answer.IsCorrect = &isCorrect
		if n := len(questions); n == 0 || questions[n-1].ID != questionID {
			questions = append(questions, models.Question{ID: questionID, QuizID: quizID, Text: text})
		}
		last := &questions[len(questions)-1]
		last.Answers = append(last.Answers, answer)
	}
	return questions, rows.Err()
}
