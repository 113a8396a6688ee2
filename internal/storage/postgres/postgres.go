package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

type Storage struct {
	Pool *pgxpool.Pool
}

func NewPostgresPool(username, password, host, port, dbName string) (*Storage, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s", username, password, host, port, dbName)
	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return &Storage{Pool: pool}, nil
}

func (p *Storage) Close() {
	if p.Pool != nil {
		p.Pool.Close()
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL UNIQUE,
	role       TEXT NOT NULL,
	password   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS courses (
	id          UUID PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	teacher_id  UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	join_code   TEXT NOT NULL UNIQUE,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS quizzes (
	id               UUID PRIMARY KEY,
	course_id        UUID NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
	title            TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	duration_minutes INT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS questions (
	id       UUID PRIMARY KEY,
	quiz_id  UUID NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
	text     TEXT NOT NULL,
	position SERIAL
);
CREATE TABLE IF NOT EXISTS answers (
	id          UUID PRIMARY KEY,
	question_id UUID NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
	text        TEXT NOT NULL,
	is_correct  BOOLEAN NOT NULL,
	position    INT NOT NULL
);
CREATE TABLE IF NOT EXISTS submissions (
	id             UUID PRIMARY KEY,
	quiz_id        UUID NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
	student_id     UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	answers        JSONB NOT NULL,
	score          INT NOT NULL,
	total          INT NOT NULL,
	started_at     TIMESTAMPTZ NOT NULL,
	submitted_at   TIMESTAMPTZ NOT NULL,
	auto_submitted BOOLEAN NOT NULL
);
CREATE TABLE IF NOT EXISTS enrollments (
	id          UUID PRIMARY KEY,
	course_id   UUID NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
	student_id  UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	enrolled_at TIMESTAMPTZ NOT NULL,
	UNIQUE (course_id, student_id)
);
CREATE TABLE IF NOT EXISTS materials (
	id           UUID PRIMARY KEY,
	course_id    UUID NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	url          TEXT NOT NULL DEFAULT '',
	object_key   TEXT NOT NULL DEFAULT '',
	file_name    TEXT NOT NULL DEFAULT '',
	content_type TEXT NOT NULL DEFAULT '',
	size         BIGINT NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL
);
`

// Migrate creates the tables when they are missing.
func (p *Storage) Migrate(ctx context.Context) error {
	if _, err := p.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// Repositories bundles every table repository over one pool.
type Repositories struct {
	*UserPostgres
	*CoursePostgres
	*QuizPostgres
	*SubmissionPostgres
	*EnrollmentPostgres
	*MaterialPostgres
}

func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserPostgres:       NewUserPostgres(db),
		CoursePostgres:     NewCoursePostgres(db),
		QuizPostgres:       NewQuizPostgres(db),
		SubmissionPostgres: NewSubmissionPostgres(db),
		EnrollmentPostgres: NewEnrollmentPostgres(db),
		MaterialPostgres:   NewMaterialPostgres(db),
	}
}
