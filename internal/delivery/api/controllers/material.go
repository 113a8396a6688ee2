package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/app_errors"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/service/material"
	"github.com/MohamedLahlami/EMSTUDY-sub000/pkg/logger"
)

type MaterialService interface {
	CreateMaterial(ctx context.Context, teacherID uuid.UUID, in models.MaterialInput, file *material.File) (*models.CourseMaterial, error)
	Materials(ctx context.Context, courseID uuid.UUID) ([]models.CourseMaterial, error)
	OpenFile(ctx context.Context, id uuid.UUID) (*models.CourseMaterial, io.ReadCloser, error)
	DeleteMaterial(ctx context.Context, id, teacherID uuid.UUID) error
}

type MaterialHandler struct {
	service MaterialService
	log     logger.Log
}

func NewMaterialHandler(l logger.Log, s MaterialService) *MaterialHandler {
	return &MaterialHandler{service: s, log: l}
}

func (h *MaterialHandler) Materials(c *gin.Context) {
	courseID, err := uuid.Parse(c.Query("course_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "course_id is required"})
		return
	}
	list, err := h.service.Materials(c.Request.Context(), courseID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateMaterial takes a JSON link material or a multipart form with a file.
func (h *MaterialHandler) CreateMaterial(c *gin.Context) {
	teacherID, ok := clientID(c)
	if !ok {
		return
	}
	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		h.uploadMaterial(c, teacherID)
		return
	}

	var input models.MaterialInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m, err := h.service.CreateMaterial(c.Request.Context(), teacherID, input, nil)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *MaterialHandler) uploadMaterial(c *gin.Context, teacherID uuid.UUID) {
	if _, err := c.MultipartForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, h.log, fmt.Errorf("%w: upload exceeds %d bytes", app_errors.ErrFileSize, tooLarge.Limit))
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed multipart form"})
		return
	}
	courseID, err := uuid.Parse(c.PostForm("course_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course_id"})
		return
	}
	input := models.MaterialInput{
		CourseID:    courseID,
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		URL:         c.PostForm("url"),
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot open uploaded file"})
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(fileHeader.Filename))); byExt != "" {
			contentType = byExt
		}
	}

	m, err := h.service.CreateMaterial(c.Request.Context(), teacherID, input, &material.File{
		Name:        filepath.Base(fileHeader.Filename),
		Size:        fileHeader.Size,
		ContentType: contentType,
		Reader:      file,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// File streams an uploaded material. Links to it stand in for presigned
// URLs, so it is served without a bearer token.
func (h *MaterialHandler) File(c *gin.Context) {
	id, ok := pathID(c, "material_id")
	if !ok {
		return
	}
	m, rc, err := h.service.OpenFile(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	defer rc.Close()

	contentType := m.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, m.Size, contentType, rc, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", m.FileName),
	})
}

func (h *MaterialHandler) DeleteMaterial(c *gin.Context) {
	id, ok := pathID(c, "material_id")
	if !ok {
		return
	}
	teacherID, ok := clientID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteMaterial(c.Request.Context(), id, teacherID); err != nil {
		fail(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
