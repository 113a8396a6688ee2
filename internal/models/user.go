package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	StudentRole = "student"
	TeacherRole = "teacher"
)

// ValidRole reports whether role is one the platform knows about.
func ValidRole(role string) bool {
	return role == StudentRole || role == TeacherRole
}

type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
