package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/app_errors"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
)

// Demo accounts created by Seed.
const (
	SeedTeacherEmail    = "teacher@emstudy.local"
	SeedTeacherPassword = "teacher123"
	SeedStudentEmail    = "student@emstudy.local"
	SeedStudentPassword = "student123"
)

// Seed loads the demo data set: a teacher, a student enrolled in one course,
// and a short quiz with a link material. It does nothing when the teacher
// account already exists.
func (c *Collection) Seed(ctx context.Context) error {
	teacher, err := c.AuthService.CreateUser(ctx, models.User{
		Name:     "Demo Teacher",
		Email:    SeedTeacherEmail,
		Password: SeedTeacherPassword,
		Role:     models.TeacherRole,
	})
	if errors.Is(err, app_errors.ErrUserExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed teacher: %w", err)
	}
	student, err := c.AuthService.CreateUser(ctx, models.User{
		Name:     "Demo Student",
		Email:    SeedStudentEmail,
		Password: SeedStudentPassword,
		Role:     models.StudentRole,
	})
	if err != nil {
		return fmt.Errorf("seed student: %w", err)
	}

	course, err := c.CourseService.CreateCourse(ctx, teacher.User.ID, models.CourseInput{
		Title:       "Introduction to Go",
		Description: "Types, functions, packages and the standard library.",
	})
	if err != nil {
		return fmt.Errorf("seed course: %w", err)
	}
	if _, err := c.MaterialService.CreateMaterial(ctx, teacher.User.ID, models.MaterialInput{
		CourseID:    course.ID,
		Title:       "A Tour of Go",
		Description: "Interactive introduction to the language.",
		URL:         "https://go.dev/tour/",
	}, nil); err != nil {
		return fmt.Errorf("seed material: %w", err)
	}

	quiz, err := c.QuizService.CreateQuiz(ctx, teacher.User.ID, models.QuizInput{
		CourseID:        course.ID,
		Title:           "Basics check",
		Description:     "Two questions on the fundamentals.",
		DurationMinutes: 5,
	})
	if err != nil {
		return fmt.Errorf("seed quiz: %w", err)
	}
	questions := []models.QuestionInput{
		{
			Text: "Which keyword starts a goroutine?",
			Answers: []models.AnswerInput{
				{Text: "go", IsCorrect: true},
				{Text: "async"},
				{Text: "spawn"},
			},
		},
		{
			Text: "What is the zero value of a map?",
			Answers: []models.AnswerInput{
				{Text: "an empty map"},
				{Text: "nil", IsCorrect: true},
			},
		},
	}
	for _, q := range questions {
		if _, err := c.QuizService.AddQuestion(ctx, quiz.ID, teacher.User.ID, q); err != nil {
			return fmt.Errorf("seed question: %w", err)
		}
	}

	if _, err := c.EnrollmentService.Enroll(ctx, student.User.ID, course.JoinCode); err != nil {
		return fmt.Errorf("seed enrollment: %w", err)
	}
	return nil
}
