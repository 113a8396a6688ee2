package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxQuizMinutes caps a quiz's duration. It keeps Duration far from overflow.
const MaxQuizMinutes = 600

type Quiz struct {
	ID              uuid.UUID `json:"id"`
	CourseID        uuid.UUID `json:"course_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DurationMinutes int       `json:"duration_minutes"`
	CreatedAt       time.Time `json:"created_at"`
}

// Duration is the time a student has once the attempt started.
func (q Quiz) Duration() time.Duration {
	return time.Duration(q.DurationMinutes) * time.Minute
}

type Question struct {
	ID      uuid.UUID `json:"id"`
	QuizID  uuid.UUID `json:"quiz_id"`
	Text    string    `json:"text"`
	Answers []Answer  `json:"answers"`
}

// Answer.IsCorrect is nil in the student view of a question.
type Answer struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	Text       string    `json:"text"`
	IsCorrect  *bool     `json:"is_correct,omitempty"`
}

func (a Answer) Correct() bool {
	return a.IsCorrect != nil && *a.IsCorrect
}

type QuizInput struct {
	CourseID        uuid.UUID `json:"course_id" binding:"required"`
	Title           string    `json:"title" binding:"required"`
	Description     string    `json:"description"`
	DurationMinutes int       `json:"duration_minutes" binding:"required,min=1,max=600"`
}

type AnswerInput struct {
	Text      string `json:"text" binding:"required"`
	IsCorrect bool   `json:"is_correct"`
}

type QuestionInput struct {
	Text    string        `json:"text" binding:"required"`
	Answers []AnswerInput `json:"answers" binding:"required,min=2,dive"`
}

// StudentView strips answer correctness.
func (q Question) StudentView() Question {
	out := q
	out.Answers = make([]Answer, len(q.Answers))
	for i, a := range q.Answers {
		a.IsCorrect = nil
		out.Answers[i] = a
	}
	return out
}
