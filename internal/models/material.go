package models

import (
	"time"

	"github.com/google/uuid"
)

type CourseMaterial struct {
	ID          uuid.UUID `json:"id"`
	CourseID    uuid.UUID `json:"course_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	ObjectKey   string    `json:"-"`
	FileName    string    `json:"file_name,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	Size        int64     `json:"size,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// HasFile reports whether the material carries an uploaded file rather than a link.
func (m CourseMaterial) HasFile() bool {
	return m.ObjectKey != "" || m.FileName != ""
}

type MaterialInput struct {
	CourseID    uuid.UUID `json:"course_id" binding:"required"`
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	URL         string    `json:"url" binding:"omitempty,url"`
}
