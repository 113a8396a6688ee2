package models

import (
	"time"

	"github.com/google/uuid"
)

type SelectedAnswer struct {
	QuestionID uuid.UUID `json:"question_id"`
	AnswerID   uuid.UUID `json:"answer_id"`
}

type Submission struct {
	ID            uuid.UUID        `json:"id"`
	QuizID        uuid.UUID        `json:"quiz_id"`
	StudentID     uuid.UUID        `json:"student_id"`
	Answers       []SelectedAnswer `json:"answers"`
	Score         int              `json:"score"`
	Total         int              `json:"total"`
	StartedAt     time.Time        `json:"started_at"`
	SubmittedAt   time.Time        `json:"submitted_at"`
	AutoSubmitted bool             `json:"auto_submitted"`
}

type SubmissionRequest struct {
	QuizID        uuid.UUID        `json:"quiz_id" binding:"required"`
	StartedAt     time.Time        `json:"started_at"`
	Answers       []SelectedAnswer `json:"answers"`
	AutoSubmitted bool             `json:"auto_submitted"`
}
