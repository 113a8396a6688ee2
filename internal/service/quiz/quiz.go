package quiz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/app_errors"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
	"github.com/MohamedLahlami/EMSTUDY-sub000/pkg/logger"
)

type quizRepo interface {
	NewQuiz(ctx context.Context, quiz *models.Quiz) error
	QuizByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error)
	QuizzesByCourse(ctx context.Context, courseID uuid.UUID) ([]models.Quiz, error)
	DeleteQuiz(ctx context.Context, id uuid.UUID) error
	AddQuestion(ctx context.Context, question *models.Question) error
	QuestionsByQuiz(ctx context.Context, quizID uuid.UUID) ([]models.Question, error)
}

type courseRepo interface {
	CourseByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
}

type QuizService struct {
	log        logger.Log
	quizRepo   quizRepo
	courseRepo courseRepo
}

func NewQuizService(log logger.Log, q quizRepo, c courseRepo) *QuizService {
	return &QuizService{log: log, quizRepo: q, courseRepo: c}
}

func (s *QuizService) ownCourse(ctx context.Context, courseID, teacherID uuid.UUID) error {
	course, err := s.courseRepo.CourseByID(ctx, courseID)
	if err != nil {
		return err
	}
	if course.TeacherID != teacherID {
		return app_errors.ErrNotCourseOwner
	}
	return nil
}

func (s *QuizService) CreateQuiz(ctx context.Context, teacherID uuid.UUID, in models.QuizInput) (*models.Quiz, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", app_errors.ErrValidation)
	}
	if in.DurationMinutes < 1 || in.DurationMinutes > models.MaxQuizMinutes {
		return nil, fmt.Errorf("%w: duration must be between 1 and %d minutes", app_errors.ErrValidation, models.MaxQuizMinutes)
	}
	if err := s.ownCourse(ctx, in.CourseID, teacherID); err != nil {
		return nil, err
	}
	quiz := &models.Quiz{
		ID:              uuid.New(),
		CourseID:        in.CourseID,
		Title:           strings.TrimSpace(in.Title),
		Description:     strings.TrimSpace(in.Description),
		DurationMinutes: in.DurationMinutes,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.quizRepo.NewQuiz(ctx, quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *QuizService) Quiz(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	return s.quizRepo.QuizByID(ctx, id)
}

func (s *QuizService) CourseQuizzes(ctx context.Context, courseID uuid.UUID) ([]models.Quiz, error) {
	if _, err := s.courseRepo.CourseByID(ctx, courseID); err != nil {
		return nil, err
	}
	return s.quizRepo.QuizzesByCourse(ctx, courseID)
}

// OwnedQuiz loads the quiz and checks that teacherID teaches its course.
func (s *QuizService) OwnedQuiz(ctx context.Context, id, teacherID uuid.UUID) (*models.Quiz, error) {
	quiz, err := s.quizRepo.QuizByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ownCourse(ctx, quiz.CourseID, teacherID); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *QuizService) DeleteQuiz(ctx context.Context, id, teacherID uuid.UUID) error {
	if _, err := s.OwnedQuiz(ctx, id, teacherID); err != nil {
		return err
	}
	return s.quizRepo.DeleteQuiz(ctx, id)
}

func (s *QuizService) AddQuestion(ctx context.Context, quizID, teacherID uuid.UUID, in models.QuestionInput) (*models.Question, error) {
	if _, err := s.OwnedQuiz(ctx, quizID, teacherID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Text) == "" {
		return nil, fmt.Errorf("%w: question text is required", app_errors.ErrValidation)
	}
	if len(in.Answers) < 2 {
		return nil, fmt.Errorf("%w: a question needs at least two answers", app_errors.ErrValidation)
	}
	correct := 0
	q := &models.Question{ID: uuid.New(), QuizID: quizID, Text: strings.TrimSpace(in.Text)}
	for _, a := range in.Answers {
		if strings.TrimSpace(a.Text) == "" {
			return nil, fmt.Errorf("%w: answers must not be blank", app_errors.ErrValidation)
		}
		isCorrect := a.IsCorrect
		if isCorrect {
			correct++
		}
		q.Answers = append(q.Answers, models.Answer{
			ID:         uuid.New(),
			QuestionID: q.ID,
			Text:       strings.TrimSpace(a.Text),
			IsCorrect:  &isCorrect,
		})
	}
	if correct != 1 {
		return nil, fmt.Errorf("%w: exactly one answer must be correct", app_errors.ErrValidation)
	}
	if err := s.quizRepo.AddQuestion(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// Questions returns the quiz's questions. Correctness is only kept for the
// teacher of the course.
func (s *QuizService) Questions(ctx context.Context, quizID, userID uuid.UUID) ([]models.Question, error) {
	quiz, err := s.quizRepo.QuizByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	questions, err := s.quizRepo.QuestionsByQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := s.ownCourse(ctx, quiz.CourseID, userID); err == nil {
		return questions, nil
	}
	out := make([]models.Question, len(questions))
	for i, q := range questions {
		out[i] = q.StudentView()
	}
	return out, nil
}

// Grade counts the questions whose selected answer is the correct one.
// Unanswered questions and unknown ids score nothing; a repeated question
// keeps its last answer.
func Grade(questions []models.Question, answers []models.SelectedAnswer) (score, total int) {
	chosen := make(map[uuid.UUID]uuid.UUID, len(answers))
	for _, a := range answers {
		chosen[a.QuestionID] = a.AnswerID
	}
	for _, q := range questions {
		pick, ok := chosen[q.ID]
		if !ok {
			continue
		}
		for _, a := range q.Answers {
			if a.ID == pick && a.Correct() {
				score++
				break
			}
		}
	}
	return score, len(questions)
}
