package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
)

func (c *Client) Materials(ctx context.Context, courseID uuid.UUID) ([]models.CourseMaterial, error) {
	var out []models.CourseMaterial
	q := url.Values{"course_id": {courseID.String()}}
	if err := c.do(ctx, http.MethodGet, "/materials", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateMaterial posts a link material.
func (c *Client) CreateMaterial(ctx context.Context, in models.MaterialInput) (*models.CourseMaterial, error) {
	var out models.CourseMaterial
	if err := c.do(ctx, http.MethodPost, "/materials", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadMaterial posts a file material as multipart/form-data.
func (c *Client) UploadMaterial(ctx context.Context, in models.MaterialInput, filename string, file io.Reader) (*models.CourseMaterial, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	fields := map[string]string{
		"course_id":   in.CourseID.String(),
		"title":       in.Title,
		"description": in.Description,
		"url":         in.URL,
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write field %s: %w", k, err)
		}
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	var out models.CourseMaterial
	if err := c.send(ctx, http.MethodPost, "/materials", nil, buf, w.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteMaterial(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/materials/"+id.String(), nil, nil, nil)
}
