package models

import (
	"time"

	"github.com/google/uuid"
)

type Enrollment struct {
	ID         uuid.UUID `json:"id"`
	CourseID   uuid.UUID `json:"course_id"`
	StudentID  uuid.UUID `json:"student_id"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// Roster row: an enrollment joined with the student's record.
type EnrolledStudent struct {
	Enrollment Enrollment `json:"enrollment"`
	Student    User       `json:"student"`
}
