package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
)

func (c *Client) ListCourses(ctx context.Context, query string) ([]models.Course, error) {
	var q url.Values
	if query != "" {
		q = url.Values{"q": {query}}
	}
	var out []models.Course
	if err := c.do(ctx, http.MethodGet, "/courses", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MyCourses lists the courses a teacher authored or a student is enrolled in.
func (c *Client) MyCourses(ctx context.Context) ([]models.Course, error) {
	var out []models.Course
	if err := c.do(ctx, http.MethodGet, "/courses/mine", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Course(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	var out models.Course
	if err := c.do(ctx, http.MethodGet, "/courses/"+id.String(), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateCourse(ctx context.Context, in models.CourseInput) (*models.Course, error) {
	var out models.Course
	if err := c.do(ctx, http.MethodPost, "/courses", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCourse(ctx context.Context, id uuid.UUID, in models.CourseInput) (*models.Course, error) {
	var out models.Course
	if err := c.do(ctx, http.MethodPut, "/courses/"+id.String(), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteCourse(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/courses/"+id.String(), nil, nil, nil)
}
