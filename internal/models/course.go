package models

import (
	"time"

	"github.com/google/uuid"
)

type Course struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	TeacherID   uuid.UUID `json:"teacher_id"`
	JoinCode    string    `json:"join_code,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// VisibleTo is the course as userID may see it: only the teacher keeps the
// join code.
func (c Course) VisibleTo(userID uuid.UUID) Course {
	if c.TeacherID != userID {
		c.JoinCode = ""
	}
	return c
}

// CourseInput is the body of course create and update calls.
type CourseInput struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}
