package apiclient

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
)

func (c *Client) CourseQuizzes(ctx context.Context, courseID uuid.UUID) ([]models.Quiz, error) {
	var out []models.Quiz
	if err := c.do(ctx, http.MethodGet, "/courses/"+courseID.String()+"/quizzes", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Quiz(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	var out models.Quiz
	if err := c.do(ctx, http.MethodGet, "/quizzes/"+id.String(), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateQuiz(ctx context.Context, in models.QuizInput) (*models.Quiz, error) {
	var out models.Quiz
	if err := c.do(ctx, http.MethodPost, "/quizzes", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteQuiz(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/quizzes/"+id.String(), nil, nil, nil)
}

func (c *Client) Questions(ctx context.Context, quizID uuid.UUID) ([]models.Question, error) {
	var out []models.Question
	if err := c.do(ctx, http.MethodGet, "/quizzes/"+quizID.String()+"/questions", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddQuestion(ctx context.Context, quizID uuid.UUID, in models.QuestionInput) (*models.Question, error) {
	var out models.Question
	if err := c.do(ctx, http.MethodPost, "/quizzes/"+quizID.String()+"/questions", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
