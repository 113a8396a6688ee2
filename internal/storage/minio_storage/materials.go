package minio_storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/app_errors"
)

// MaterialStorage keeps uploaded course material files in one bucket.
type MaterialStorage struct {
	storage      *MinioStorage
	bucket       string
	presignedTTL time.Duration
}

func NewMaterialStorage(ctx context.Context, storage *MinioStorage, bucketName string, presignedTTL time.Duration) (*MaterialStorage, error) {
	if err := storage.ensureBucket(ctx, bucketName); err != nil {
		return nil, err
	}
	return &MaterialStorage{storage: storage, bucket: bucketName, presignedTTL: presignedTTL}, nil
}

func (s *MaterialStorage) Upload(
	ctx context.Context,
	courseID uuid.UUID,
	filename string,
	reader io.Reader,
	size int64,
	contentType string,
) (objectKey string, err error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".bin"
	}

	objectKey = fmt.Sprintf("materials/%s/%s%s", courseID.String(), uuid.NewString(), ext)

	if contentType == "" {
		contentType = mime.TypeByExtension(ext)
		if contentType == "" {
			contentType = "application/octet-stream"
		}
	}

	_, err = s.storage.client.PutObject(
		ctx,
		s.bucket,
		objectKey,
		reader,
		size,
		minio.PutObjectOptions{
			ContentType:        contentType,
			ContentDisposition: fmt.Sprintf("attachment; filename=%q", filepath.Base(filename)),
		},
	)
	if err != nil {
		return "", err
	}
	return objectKey, nil
}

// URL is a presigned download link valid for presignedTTL.
func (s *MaterialStorage) URL(ctx context.Context, objectKey string) (string, error) {
	reqParams := make(url.Values)
	presignedURL, err := s.storage.client.PresignedGetObject(
		ctx,
		s.bucket,
		objectKey,
		s.presignedTTL,
		reqParams,
	)
	if err != nil {
		return "", err
	}
	return presignedURL.String(), nil
}

func (s *MaterialStorage) Open(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	obj, err := s.storage.client.GetObject(ctx, s.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject is lazy; Stat surfaces a missing key.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, app_errors.ErrMaterialNotFound
		}
		return nil, err
	}
	return obj, nil
}

func (s *MaterialStorage) Delete(ctx context.Context, objectKey string) error {
	return s.storage.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{})
}
