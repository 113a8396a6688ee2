package apiclient

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
)

func (c *Client) Submit(ctx context.Context, req models.SubmissionRequest) (*models.Submission, error) {
	var out models.Submission
	if err := c.do(ctx, http.MethodPost, "/submissions", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Submission(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	var out models.Submission
	if err := c.do(ctx, http.MethodGet, "/submissions/"+id.String(), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) QuizSubmissions(ctx context.Context, quizID uuid.UUID) ([]models.Submission, error) {
	var out []models.Submission
	if err := c.do(ctx, http.MethodGet, "/quizzes/"+quizID.String()+"/submissions", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MySubmissions(ctx context.Context) ([]models.Submission, error) {
	var out []models.Submission
	if err := c.do(ctx, http.MethodGet, "/submissions/mine", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
