package material

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/app_errors"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
	"github.com/MohamedLahlami/EMSTUDY-sub000/pkg/logger"
)

type materialRepo interface {
	NewMaterial(ctx context.Context, m *models.CourseMaterial) error
	MaterialByID(ctx context.Context, id uuid.UUID) (*models.CourseMaterial, error)
	MaterialsByCourse(ctx context.Context, courseID uuid.UUID) ([]models.CourseMaterial, error)
	DeleteMaterial(ctx context.Context, id uuid.UUID) error
}

type courseRepo interface {
	CourseByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
}

// fileRepo stores the bytes of uploaded materials.
type fileRepo interface {
	Upload(ctx context.Context, courseID uuid.UUID, filename string, reader io.Reader, size int64, contentType string) (objectKey string, err error)
	URL(ctx context.Context, objectKey string) (string, error)
	Open(ctx context.Context, objectKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, objectKey string) error
}

type MaterialService struct {
	log       logger.Log
	materials materialRepo
	courses   courseRepo
	files     fileRepo
	maxSize   int64
	publicURL string
}

// NewMaterialService builds the service. publicURL is the API base that
// download links of stored files are built on.
func NewMaterialService(log logger.Log, m materialRepo, c courseRepo, f fileRepo, maxSize int64, publicURL string) *MaterialService {
	return &MaterialService{
		log:       log,
		materials: m,
		courses:   c,
		files:     f,
		maxSize:   maxSize,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

func (s *MaterialService) ownCourse(ctx context.Context, courseID, teacherID uuid.UUID) error {
	course, err := s.courses.CourseByID(ctx, courseID)
	if err != nil {
		return err
	}
	if course.TeacherID != teacherID {
		return app_errors.ErrNotCourseOwner
	}
	return nil
}

// File is an upload attached to a material create call.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Reader      io.Reader
}

// CreateMaterial stores a link material, or a file material when file is set.
func (s *MaterialService) CreateMaterial(ctx context.Context, teacherID uuid.UUID, in models.MaterialInput, file *File) (*models.CourseMaterial, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", app_errors.ErrValidation)
	}
	if file == nil && strings.TrimSpace(in.URL) == "" {
		return nil, app_errors.ErrMaterialSource
	}
	if err := s.ownCourse(ctx, in.CourseID, teacherID); err != nil {
		return nil, err
	}

	m := &models.CourseMaterial{
		ID:          uuid.New(),
		CourseID:    in.CourseID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		URL:         strings.TrimSpace(in.URL),
		CreatedAt:   time.Now().UTC(),
	}
	if file != nil {
		if s.maxSize > 0 && file.Size > s.maxSize {
			return nil, app_errors.ErrFileSize
		}
		key, err := s.files.Upload(ctx, in.CourseID, file.Name, file.Reader, file.Size, file.ContentType)
		if err != nil {
			return nil, fmt.Errorf("upload material: %w", err)
		}
		m.ObjectKey = key
		m.FileName = file.Name
		m.ContentType = file.ContentType
		m.Size = file.Size
		m.URL = ""
	}
	if err := s.materials.NewMaterial(ctx, m); err != nil {
		if m.ObjectKey != "" {
			_ = s.files.Delete(ctx, m.ObjectKey)
		}
		return nil, err
	}
	return s.present(ctx, m), nil
}

func (s *MaterialService) present(ctx context.Context, m *models.CourseMaterial) *models.CourseMaterial {
	if m.ObjectKey == "" {
		return m
	}
	out := *m
	url, err := s.files.URL(ctx, m.ObjectKey)
	if err != nil {
		s.log.ErrorErr("failed to sign material url", err, "material_id", m.ID)
	}
	if url == "" {
		url = fmt.Sprintf("%s/materials/%s/file", s.publicURL, m.ID)
	}
	out.URL = url
	return &out
}

func (s *MaterialService) Materials(ctx context.Context, courseID uuid.UUID) ([]models.CourseMaterial, error) {
	if _, err := s.courses.CourseByID(ctx, courseID); err != nil {
		return nil, err
	}
	list, err := s.materials.MaterialsByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	out := make([]models.CourseMaterial, len(list))
	for i := range list {
		out[i] = *s.present(ctx, &list[i])
	}
	return out, nil
}

// OpenFile streams the stored file of a material.
func (s *MaterialService) OpenFile(ctx context.Context, id uuid.UUID) (*models.CourseMaterial, io.ReadCloser, error) {
	m, err := s.materials.MaterialByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if m.ObjectKey == "" {
		return nil, nil, app_errors.ErrMaterialNotFound
	}
	rc, err := s.files.Open(ctx, m.ObjectKey)
	if err != nil {
		return nil, nil, err
	}
	return m, rc, nil
}

func (s *MaterialService) DeleteMaterial(ctx context.Context, id, teacherID uuid.UUID) error {
	m, err := s.materials.MaterialByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.ownCourse(ctx, m.CourseID, teacherID); err != nil {
		return err
	}
	if err := s.materials.DeleteMaterial(ctx, id); err != nil {
		return err
	}
	if m.ObjectKey != "" {
		if err := s.files.Delete(ctx, m.ObjectKey); err != nil {
			s.log.ErrorErr("failed to delete material file", err, "material_id", id)
		}
	}
	return nil
}
