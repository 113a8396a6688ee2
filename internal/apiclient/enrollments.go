package apiclient

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
)

type enrollRequest struct {
	JoinCode string `json:"join_code"`
}

func (c *Client) Enroll(ctx context.Context, joinCode string) (*models.Enrollment, error) {
	var out models.Enrollment
	if err := c.do(ctx, http.MethodPost, "/enrollments/enroll", nil, enrollRequest{JoinCode: joinCode}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyEnrollments(ctx context.Context) ([]models.Enrollment, error) {
	var out []models.Enrollment
	if err := c.do(ctx, http.MethodGet, "/enrollments", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CourseEnrollments(ctx context.Context, courseID uuid.UUID) ([]models.EnrolledStudent, error) {
	var out []models.EnrolledStudent
	if err := c.do(ctx, http.MethodGet, "/courses/"+courseID.String()+"/enrollments", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
